package tuning

import (
	"github.com/pkg/errors"
)

// Sample rates in order of preference when several pairs encode to the same
// tuning.
var PreferredRates = []uint32{32000, 16000, 22050, 24000, 44100, 48000, 8000, 11025, 12000}

// Layout is a sample rate together with the note it pairs with in each of
// one or more observations.
type Layout struct {
	Rate  uint32
	Notes []Note
}

func preference(rate uint32) int {
	for i, preferred := range PreferredRates {
		if preferred == rate {
			return i
		}
	}

	return len(PreferredRates)
}

func roundness(rate uint32) int {
	switch {
	case rate%1000 == 0:
		return 0
	case rate%100 == 0:
		return 1
	case rate%10 == 0:
		return 2
	}

	return 3
}

func compareNotes(a []Note, b []Note) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}

			return 1
		}
	}

	return len(a) - len(b)
}

// better reports whether a ranks strictly above b: preferred rates first,
// then rounder rates, then lower notes, then the lower rate.
func better(a Layout, b Layout) bool {
	if pa, pb := preference(a.Rate), preference(b.Rate); pa != pb {
		return pa < pb
	}

	if ra, rb := roundness(a.Rate), roundness(b.Rate); ra != rb {
		return ra < rb
	}

	if cmp := compareNotes(a.Notes, b.Notes); cmp != 0 {
		return cmp < 0
	}

	return a.Rate < b.Rate
}

var ErrNoLayouts = errors.New("no layouts to rank")

// Rank returns the best of layouts.
func Rank(layouts []Layout) (Layout, error) {
	if len(layouts) == 0 {
		return Layout{}, ErrNoLayouts
	}

	var best = layouts[0]

	for _, layout := range layouts[1:] {
		if better(layout, best) {
			best = layout
		}
	}

	return best, nil
}

func candidateLayouts(candidates []Candidate) []Layout {
	var result = make([]Layout, 0, len(candidates))

	for _, candidate := range candidates {
		result = append(result, Layout{candidate.Rate, []Note{candidate.Note}})
	}

	return result
}
