package adpcm

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

func checkBookShape(order int32, npredictors int32) error {
	if order <= 0 || order > maxOrder {
		return errors.Errorf("invalid codebook order %d", order)
	}

	if npredictors <= 0 || npredictors > maxPredictors {
		return errors.Errorf("invalid codebook predictor count %d", npredictors)
	}

	return nil
}

func readBookEntries(reader io.Reader, book *Codebook) error {
	book.Book = make([]int16, book.EntryCount())

	err := binary.Read(reader, binary.BigEndian, book.Book)

	if err != nil {
		return errors.Wrap(err, "could not read codebook entries")
	}

	return nil
}

// ReadCodebook reads a codebook in the layout the audio driver uses:
// 32-bit order and predictor count followed by the entries.
func ReadCodebook(reader io.Reader) (*Codebook, error) {
	var result Codebook

	err := binary.Read(reader, binary.BigEndian, &result.Order)

	if err != nil {
		return nil, errors.Wrap(err, "could not read codebook order")
	}

	err = binary.Read(reader, binary.BigEndian, &result.NPredictors)

	if err != nil {
		return nil, errors.Wrap(err, "could not read codebook predictor count")
	}

	err = checkBookShape(result.Order, result.NPredictors)

	if err != nil {
		return nil, err
	}

	err = readBookEntries(reader, &result)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ReadCodebookFromAIFC reads the payload of a VADPCMCODES chunk, after the
// chunk name.
func ReadCodebookFromAIFC(reader io.Reader) (*Codebook, error) {
	var header struct {
		Version     int16
		Order       int16
		NPredictors int16
	}

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, errors.Wrap(err, "could not read codebook chunk header")
	}

	if header.Version != AIFC_CHUNK_VERSION {
		return nil, errors.Errorf("unsupported codebook chunk version %d", header.Version)
	}

	var result = Codebook{
		Order:       int32(header.Order),
		NPredictors: int32(header.NPredictors),
	}

	err = checkBookShape(result.Order, result.NPredictors)

	if err != nil {
		return nil, err
	}

	err = readBookEntries(reader, &result)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ReadLoop reads a loop in the layout the audio driver uses. The predictor
// state follows the header only for loops with a non zero count.
func ReadLoop(reader io.Reader) (*Loop, error) {
	var header struct {
		Start uint32
		End   uint32
		Count uint32
		Pad   uint32
	}

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, errors.Wrap(err, "could not read loop header")
	}

	var result = Loop{
		Start: header.Start,
		End:   header.End,
		Count: header.Count,
	}

	if result.HasState() {
		err = binary.Read(reader, binary.BigEndian, &result.State)

		if err != nil {
			return nil, errors.Wrap(err, "could not read loop predictor state")
		}
	}

	return &result, nil
}

// ReadLoopFromAIFC reads the payload of a VADPCMLOOPS chunk, after the chunk
// name. Only single loop chunks are supported.
func ReadLoopFromAIFC(reader io.Reader) (*Loop, error) {
	var header struct {
		Version  uint16
		NumLoops uint16
	}

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, errors.Wrap(err, "could not read loop chunk header")
	}

	if header.Version != AIFC_CHUNK_VERSION {
		return nil, errors.Errorf("unsupported loop chunk version %d", header.Version)
	}

	if header.NumLoops != 1 {
		return nil, errors.Errorf("only one loop is supported, got %d", header.NumLoops)
	}

	var result Loop

	err = binary.Read(reader, binary.BigEndian, &result)

	if err != nil {
		return nil, errors.Wrap(err, "could not read loop")
	}

	return &result, nil
}
