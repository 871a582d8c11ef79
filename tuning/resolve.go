package tuning

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Observation is one tuning value seen for a sample together with the pairs
// that encode to it.
type Observation struct {
	Tuning     float32
	Candidates []Candidate
}

// Choice is the pair picked for one observed tuning.
type Choice struct {
	Tuning float32
	Candidate
}

type Resolution struct {
	Rate uint32
	Note Note
	// one entry per distinct observed tuning, in observation order
	Choices []Choice
}

// Lookup returns the pair chosen for tuning.
func (resolution *Resolution) Lookup(tuning float32) (Candidate, bool) {
	for _, choice := range resolution.Choices {
		if math.Float32bits(choice.Tuning) == math.Float32bits(tuning) {
			return choice.Candidate, true
		}
	}

	return Candidate{}, false
}

// ConsistencyError is returned when a chosen pair does not encode back to
// the tuning it was chosen for.
type ConsistencyError struct {
	Tuning float32
	Rate   uint32
	Note   Note
	Got    float32
}

func (err *ConsistencyError) Error() string {
	return fmt.Sprintf(
		"rate %d note %s encodes to %v (0x%08X), expected %v (0x%08X)",
		err.Rate,
		err.Note,
		err.Got,
		math.Float32bits(err.Got),
		err.Tuning,
		math.Float32bits(err.Tuning),
	)
}

var ErrNoCandidates = errors.New("no sample rate and base note encode to tuning")

type Resolver struct {
	badFloats map[uint32]bool
}

// NewResolver creates a resolver tolerating DefaultBadFloats plus extra.
func NewResolver(extra []uint32) *Resolver {
	var result = &Resolver{badFloats: make(map[uint32]bool)}

	for _, bits := range DefaultBadFloats {
		result.badFloats[bits] = true
	}

	for _, bits := range extra {
		result.badFloats[bits] = true
	}

	return result
}

// Observe builds the observation for tuning.
func (resolver *Resolver) Observe(tuning float32) (Observation, error) {
	var candidates = resolver.Candidates(tuning)

	if len(candidates) == 0 {
		return Observation{}, errors.Wrapf(ErrNoCandidates, "tuning %v (0x%08X)", tuning, math.Float32bits(tuning))
	}

	return Observation{tuning, candidates}, nil
}

func (resolver *Resolver) check(tuning float32, rate uint32, note Note) error {
	var got = Encode(rate, note)

	if got == tuning || resolver.isBadFloat(tuning) {
		return nil
	}

	return &ConsistencyError{tuning, rate, note, got}
}

func (resolver *Resolver) choose(result *Resolution, tuning float32, rate uint32, note Note) error {
	err := resolver.check(tuning, rate, note)

	if err != nil {
		return err
	}

	result.Choices = append(result.Choices, Choice{tuning, Candidate{note, rate}})

	return nil
}

func distinct(observations []Observation) []Observation {
	var result []Observation
	var seen = make(map[uint32]bool)

	for _, observation := range observations {
		var bits = math.Float32bits(observation.Tuning)

		if seen[bits] {
			continue
		}

		seen[bits] = true
		result = append(result, observation)
	}

	return result
}

func commonRates(observations []Observation) []uint32 {
	var counts = make(map[uint32]int)

	for _, observation := range observations {
		var rates = make(map[uint32]bool)

		for _, candidate := range observation.Candidates {
			rates[candidate.Rate] = true
		}

		for rate := range rates {
			counts[rate]++
		}
	}

	var result []uint32

	for rate, count := range counts {
		if count == len(observations) {
			result = append(result, rate)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	return result
}

// noteForRate returns the lowest note pairing with rate in the candidates
// of observation.
func noteForRate(observation Observation, rate uint32) (Note, error) {
	for _, candidate := range observation.Candidates {
		if candidate.Rate == rate {
			return candidate.Note, nil
		}
	}

	return 0, errors.Errorf("no candidate of tuning %v has rate %d", observation.Tuning, rate)
}

// Resolve picks one sample rate and base note for a sample observed with
// the given tunings, and the pair to use for each distinct tuning.
func (resolver *Resolver) Resolve(observations []Observation) (*Resolution, error) {
	observations = distinct(observations)

	if len(observations) == 0 {
		return nil, errors.New("no tuning observations")
	}

	for _, observation := range observations {
		if len(observation.Candidates) == 0 {
			return nil, errors.Wrapf(ErrNoCandidates, "tuning %v (0x%08X)", observation.Tuning, math.Float32bits(observation.Tuning))
		}
	}

	var result Resolution

	if len(observations) == 1 {
		var observation = observations[0]

		best, err := Rank(candidateLayouts(observation.Candidates))

		if err != nil {
			return nil, err
		}

		result.Rate = best.Rate
		result.Note = best.Notes[0]

		err = resolver.choose(&result, observation.Tuning, result.Rate, result.Note)

		if err != nil {
			return nil, err
		}

		return &result, nil
	}

	var finalists []Layout

	var rates = commonRates(observations)

	if len(rates) == 0 {
		// nothing in common, each tuning gets its own best pair
		for _, observation := range observations {
			best, err := Rank(candidateLayouts(observation.Candidates))

			if err != nil {
				return nil, err
			}

			err = resolver.choose(&result, observation.Tuning, best.Rate, best.Notes[0])

			if err != nil {
				return nil, err
			}

			finalists = append(finalists, best)
		}
	} else {
		var layouts = make([]Layout, 0, len(rates))

		for _, rate := range rates {
			var notes = make([]Note, 0, len(observations))

			for _, observation := range observations {
				note, err := noteForRate(observation, rate)

				if err != nil {
					return nil, err
				}

				notes = append(notes, note)
			}

			layouts = append(layouts, Layout{rate, notes})
		}

		best, err := Rank(layouts)

		if err != nil {
			return nil, err
		}

		for i, observation := range observations {
			err = resolver.choose(&result, observation.Tuning, best.Rate, best.Notes[i])

			if err != nil {
				return nil, err
			}

			finalists = append(finalists, Layout{best.Rate, []Note{best.Notes[i]}})
		}
	}

	final, err := Rank(finalists)

	if err != nil {
		return nil, err
	}

	result.Rate = final.Rate
	result.Note = final.Notes[0]

	return &result, nil
}
