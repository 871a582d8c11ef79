package samplebank

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoverageFinalize(t *testing.T) {
	tests := []struct {
		name       string
		spans      []Span
		length     uint32
		wantMerged []Span
		wantGaps   []Range
	}{
		{
			name:     "empty",
			length:   0x100,
			wantGaps: []Range{{0, 0x100}},
		},
		{
			name:       "fully covered",
			spans:      []Span{{0x40, 0x60, 0x5A}, {0, 0x40, 0x40}},
			length:     0x60,
			wantMerged: []Span{{0, 0x60, 0x5A}},
		},
		{
			name:       "duplicates",
			spans:      []Span{{0x10, 0x30, 0x2A}, {0x10, 0x30, 0x2A}},
			length:     0x30,
			wantMerged: []Span{{0x10, 0x30, 0x2A}},
			wantGaps:   []Range{{0, 0x10}},
		},
		{
			name:       "gaps",
			spans:      []Span{{0x10, 0x30, 0x22}, {0x50, 0x60, 0x58}},
			length:     0x100,
			wantMerged: []Span{{0x10, 0x30, 0x22}, {0x50, 0x60, 0x58}},
			wantGaps:   []Range{{0, 0x10}, {0x30, 0x50}, {0x60, 0x100}},
		},
		{
			name:       "overlapping",
			spans:      []Span{{0, 0x40, 0x40}, {0x20, 0x30, 0x30}, {0x30, 0x50, 0x50}},
			length:     0x50,
			wantMerged: []Span{{0, 0x50, 0x50}},
		},
	}

	for _, test := range tests {
		var coverage Coverage

		for _, span := range test.spans {
			coverage.Add(span.Start, span.AlignedEnd, span.End)
		}

		merged, gaps := coverage.Finalize(test.length)

		if !cmp.Equal(merged, test.wantMerged) {
			t.Errorf("unexpected merge for %s:\n%s", test.name, cmp.Diff(test.wantMerged, merged))
		}

		if !cmp.Equal(gaps, test.wantGaps) {
			t.Errorf("unexpected gaps for %s:\n%s", test.name, cmp.Diff(test.wantGaps, gaps))
		}
	}
}

func TestMergeIdempotentAndOrderIndependent(t *testing.T) {
	var spans = []Span{
		{0x80, 0x90, 0x88},
		{0x00, 0x20, 0x1C},
		{0x20, 0x40, 0x40},
		{0x50, 0x60, 0x52},
		{0x00, 0x20, 0x1C},
		{0x60, 0x70, 0x70},
	}

	var merged = Merge(spans)

	if again := Merge(merged); !cmp.Equal(again, merged) {
		t.Errorf("merge is not idempotent:\n%s", cmp.Diff(merged, again))
	}

	var reversed = make([]Span, len(spans))

	for i, span := range spans {
		reversed[len(spans)-1-i] = span
	}

	if other := Merge(reversed); !cmp.Equal(other, merged) {
		t.Errorf("merge depends on registration order:\n%s", cmp.Diff(merged, other))
	}

	want := []Span{{0x00, 0x40, 0x40}, {0x50, 0x70, 0x70}, {0x80, 0x90, 0x88}}

	if !cmp.Equal(merged, want) {
		t.Errorf("unexpected merge:\n%s", cmp.Diff(want, merged))
	}
}
