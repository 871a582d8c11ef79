package samplebank

import (
	"io"

	"github.com/lambertjamesd/z64audio/aiff"
	"github.com/pkg/errors"
)

const aifcSampleSize = 16

// AIFC builds the AIFC file of the sample. The frame count is exact, the
// off by one of the sdk encoder is not reproduced.
func (sample *ResolvedSample) AIFC() (*aiff.Aiff, error) {
	rate, err := aiff.ExtendedFromF64(float64(sample.SampleRate))

	if err != nil {
		return nil, errors.Wrapf(err, "sample rate of sample at 0x%X", sample.Start)
	}

	var result = aiff.Aiff{
		Compressed: true,
		Common: &aiff.CommonChunk{
			NumChannels:     1,
			NumSampleFrames: sample.NumFrames(),
			SampleSize:      aifcSampleSize,
			SampleRate:      rate,
			CompressionType: sample.Codec.Tag(),
			CompressionName: sample.Codec.Name(),
		},
		Instrument: &aiff.InstrumentChunk{
			BaseNote: sample.BaseNote.MIDI(),
		},
		SoundData: &aiff.SoundDataChunk{
			WaveformData: sample.Data,
		},
	}

	if sample.Codec.IsADPCM() && sample.Book == nil {
		return nil, errors.Errorf("%s sample at 0x%X has no codebook", sample.Codec, sample.Start)
	}

	// pcm samples read from the rom may have no book, their files carry none
	if sample.Book != nil {
		result.Application = append(result.Application, aiff.NewStocChunk(aiff.VADPCM_CODES_NAME, sample.Book.SerializeAIFC()))
	}

	if sample.Loop != nil {
		result.Application = append(result.Application, aiff.NewStocChunk(aiff.VADPCM_LOOPS_NAME, sample.Loop.SerializeAIFC()))
	}

	return &result, nil
}

func (sample *ResolvedSample) EncodeAIFC(writer io.Writer) error {
	file, err := sample.AIFC()

	if err != nil {
		return err
	}

	return file.Serialize(writer)
}
