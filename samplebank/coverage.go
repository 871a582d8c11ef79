package samplebank

import (
	"fmt"
	"sort"
	"strings"
)

const SAMPLE_ALIGNMENT = 16

func align(value uint32, alignment uint32) uint32 {
	return (value + alignment - 1) &^ (alignment - 1)
}

// Span is a claimed byte range. AlignedEnd includes the padding after the
// data, End does not.
type Span struct {
	Start      uint32
	AlignedEnd uint32
	End        uint32
}

type Range struct {
	Start uint32
	End   uint32
}

func (r Range) Len() uint32 {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("(0x%06X, 0x%06X)", r.Start, r.End)
}

func formatRanges(ranges []Range) string {
	var parts = make([]string, len(ranges))

	for i, r := range ranges {
		parts[i] = r.String()
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Coverage tracks which bytes of a bank are claimed by samples.
type Coverage struct {
	spans []Span
}

func (coverage *Coverage) Add(start uint32, alignedEnd uint32, end uint32) {
	coverage.spans = append(coverage.spans, Span{start, alignedEnd, end})
}

// Merge returns spans sorted by start, with spans that touch or overlap
// joined. Padding counts as claimed, so only genuinely unclaimed bytes are
// left between the results.
func Merge(spans []Span) []Span {
	var sorted = make([]Span, len(spans))
	copy(sorted, spans)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}

		if sorted[i].AlignedEnd != sorted[j].AlignedEnd {
			return sorted[i].AlignedEnd < sorted[j].AlignedEnd
		}

		return sorted[i].End < sorted[j].End
	})

	var result []Span

	for _, span := range sorted {
		if len(result) == 0 {
			result = append(result, span)
			continue
		}

		var last = &result[len(result)-1]

		if span.Start > last.AlignedEnd {
			result = append(result, span)
			continue
		}

		if span.AlignedEnd >= last.AlignedEnd {
			last.AlignedEnd = span.AlignedEnd
			last.End = span.End
		}
	}

	return result
}

// Gaps returns the ranges of [0, length) not covered by merged.
func Gaps(merged []Span, length uint32) []Range {
	var result []Range
	var pos uint32 = 0

	for _, span := range merged {
		if span.Start >= length {
			break
		}

		if span.Start > pos {
			result = append(result, Range{pos, span.Start})
		}

		if span.AlignedEnd > pos {
			pos = span.AlignedEnd
		}
	}

	if pos < length {
		result = append(result, Range{pos, length})
	}

	return result
}

// Finalize merges the registered spans and returns them with the uncovered
// ranges of a bank of the given length.
func (coverage *Coverage) Finalize(length uint32) ([]Span, []Range) {
	var merged = Merge(coverage.spans)

	return merged, Gaps(merged, length)
}
