package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/lambertjamesd/z64audio/aiff"
	"github.com/lambertjamesd/z64audio/tuning"
	"github.com/pkg/errors"
)

// inspectFile prints what an extracted AIFC file describes.
func inspectFile(out io.Writer, path string) error {
	file, err := os.Open(path)

	if err != nil {
		return errors.Wrap(err, "could not open aifc file")
	}

	defer file.Close()

	parsed, err := aiff.Parse(file)

	if err != nil {
		return errors.Wrap(err, path)
	}

	if parsed.Common == nil || parsed.SoundData == nil {
		return errors.Errorf("%s: missing common or sound data chunk", path)
	}

	var tag = binary.BigEndian.AppendUint32(nil, parsed.Common.CompressionType)

	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "    sample rate %g\n", aiff.F64FromExtended(parsed.Common.SampleRate))
	fmt.Fprintf(out, "    frames %d, %d bytes\n", parsed.Common.NumSampleFrames, len(parsed.SoundData.WaveformData))

	if parsed.Compressed {
		fmt.Fprintf(out, "    codec %s (%s)\n", tag, parsed.Common.CompressionName)
	}

	if parsed.Instrument != nil {
		fmt.Fprintf(out, "    base note %s\n", tuning.NoteFromMIDI(parsed.Instrument.BaseNote))
	}

	book, err := parsed.Codebook()

	if err != nil {
		return errors.Wrapf(err, "%s: codebook", path)
	}

	if book != nil {
		fmt.Fprintf(out, "    book order %d, %d predictors\n", book.Order, book.NPredictors)
	}

	loop, err := parsed.Loop()

	if err != nil {
		return errors.Wrapf(err, "%s: loop", path)
	}

	if loop != nil {
		fmt.Fprintf(out, "    loop 0x%X to 0x%X, count %d\n", loop.Start, loop.End, int32(loop.Count))
	}

	return nil
}
