package extract

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// readWav reads the decoded samples of a WAV file.
func readWav(path string) (*audio.IntBuffer, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "could not open decoded sample")
	}

	defer file.Close()

	decoder := wav.NewDecoder(file)

	if !decoder.IsValidFile() {
		return nil, errors.Errorf("%s: invalid wav file", path)
	}

	buffer, err := decoder.FullPCMBuffer()

	if err != nil {
		return nil, errors.Wrapf(err, "%s: could not read samples", path)
	}

	return buffer, nil
}

// checkWav verifies the decoder wrote a mono file at the sample's rate.
func checkWav(path string, sampleRate uint32) (int, error) {
	buffer, err := readWav(path)

	if err != nil {
		return 0, err
	}

	if buffer.Format.NumChannels != 1 {
		return 0, errors.Errorf("%s: expected 1 channel, got %d", path, buffer.Format.NumChannels)
	}

	if buffer.Format.SampleRate != int(sampleRate) {
		return 0, errors.Errorf("%s: expected sample rate %d, got %d", path, sampleRate, buffer.Format.SampleRate)
	}

	return buffer.NumFrames(), nil
}
