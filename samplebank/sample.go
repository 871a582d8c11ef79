package samplebank

import (
	"fmt"
	"math"

	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/lambertjamesd/z64audio/soundfont"
	"github.com/lambertjamesd/z64audio/tuning"
)

// Entry is one item of a finalized bank, either a *ResolvedSample or a
// *Blob.
type Entry interface {
	Range() Range
	Bytes() []byte
	isEntry()
}

// SampleInfo is what identifies a sample and the data it decodes from.
type SampleInfo struct {
	Bank    int
	Start   uint32
	End     uint32
	Data    []byte
	Padding []byte
	Codec   soundfont.Codec
	Book    *adpcm.Codebook
	Loop    *adpcm.Loop
}

func (info *SampleInfo) Range() Range {
	return Range{info.Start, info.End}
}

func (info *SampleInfo) Bytes() []byte {
	return info.Data
}

// NumFrames is the number of samples the data decodes to.
func (info *SampleInfo) NumFrames() uint32 {
	var frameSize = info.Codec.FrameSize()

	if frameSize == 0 {
		return 0
	}

	return uint32(len(info.Data)/frameSize) * 16
}

// Extension of the sample's output files, small adpcm samples are marked
// as half.
func (info *SampleInfo) Extension() string {
	if info.Codec == soundfont.CODEC_SMALL_ADPCM {
		return ".half"
	}

	return ""
}

// UnresolvedSample collects the tunings a sample was used with until it is
// resolved.
type UnresolvedSample struct {
	SampleInfo
	Tunings []float32
	Sources []string
}

func (sample *UnresolvedSample) observe(value float32, source string) {
	for _, existing := range sample.Tunings {
		if math.Float32bits(existing) == math.Float32bits(value) {
			return
		}
	}

	sample.Tunings = append(sample.Tunings, value)
	sample.Sources = append(sample.Sources, source)
}

// Resolve picks the sample rate and base note of the sample.
func (sample *UnresolvedSample) Resolve(resolver *tuning.Resolver) (*ResolvedSample, error) {
	var observations = make([]tuning.Observation, 0, len(sample.Tunings))

	for i, value := range sample.Tunings {
		observation, err := resolver.Observe(value)

		if err != nil {
			return nil, sample.consistencyError("tuning", nil, value, fmt.Sprintf("%s: %v", sample.Sources[i], err), err)
		}

		observations = append(observations, observation)
	}

	resolution, err := resolver.Resolve(observations)

	if err != nil {
		return nil, sample.consistencyError("tuning", nil, nil, "", err)
	}

	return &ResolvedSample{
		SampleInfo: sample.SampleInfo,
		SampleRate: resolution.Rate,
		BaseNote:   resolution.Note,
		Choices:    resolution.Choices,
	}, nil
}

func (sample *UnresolvedSample) consistencyError(field string, previous interface{}, current interface{}, detail string, err error) *ConsistencyError {
	return &ConsistencyError{
		Bank:     sample.Bank,
		Offset:   sample.Start,
		Field:    field,
		Previous: previous,
		Current:  current,
		Detail:   detail,
		Err:      err,
	}
}

type ResolvedSample struct {
	SampleInfo
	SampleRate uint32
	BaseNote   tuning.Note
	// the rate and note picked for each tuning the sample was used with
	Choices []tuning.Choice
	// set when the sample was located as a copy of a sample in another bank
	Donor *ResolvedSample
}

func (*ResolvedSample) isEntry() {}

// TuningChoice returns the rate and note to use for a soundfont entry with
// the given tuning, falling back to the sample's own values.
func (sample *ResolvedSample) TuningChoice(value float32) tuning.Candidate {
	for _, choice := range sample.Choices {
		if math.Float32bits(choice.Tuning) == math.Float32bits(value) {
			return choice.Candidate
		}
	}

	return tuning.Candidate{Note: sample.BaseNote, Rate: sample.SampleRate}
}

// Blob is data no sample accounts for.
type Blob struct {
	Start uint32
	End   uint32
	Data  []byte
	// set when every frame header in Data is plausible VADPCM
	LooksLikeADPCM bool
}

func (*Blob) isEntry() {}

func (blob *Blob) Range() Range {
	return Range{blob.Start, blob.End}
}

func (blob *Blob) Bytes() []byte {
	return blob.Data
}

func (blob *Blob) Name() string {
	return fmt.Sprintf("UNACCOUNTED_%X_%X", blob.Start, blob.End)
}
