package aiff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/pkg/errors"
)

func readExtended(reader io.Reader) (ExtendedFloat, error) {
	var exponent uint16
	err := binary.Read(reader, binary.BigEndian, &exponent)

	if err != nil {
		return ExtendedFloat{}, err
	}

	var mantissa uint64
	err = binary.Read(reader, binary.BigEndian, &mantissa)

	if err != nil {
		return ExtendedFloat{}, err
	}

	return ExtendedFloat{
		(exponent & 0x8000) != 0,
		exponent & 0x7FFF,
		mantissa,
	}, nil
}

func readPString(reader io.Reader) (string, error) {
	var len uint8
	err := binary.Read(reader, binary.BigEndian, &len)

	if err != nil {
		return "", err
	}

	var buffer = make([]byte, len)
	_, err = io.ReadFull(reader, buffer)

	if err != nil {
		return "", err
	}

	if len%2 == 0 {
		// read padding byte
		err = binary.Read(reader, binary.BigEndian, &len)

		if err != nil {
			return "", err
		}
	}

	return string(buffer), nil
}

func parseCommonChunk(reader io.Reader, compressed bool) (*CommonChunk, error) {
	var result CommonChunk

	var header struct {
		NumChannels     int16
		NumSampleFrames uint32
		SampleSize      int16
	}

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, err
	}

	result.NumChannels = header.NumChannels
	result.NumSampleFrames = header.NumSampleFrames
	result.SampleSize = header.SampleSize

	result.SampleRate, err = readExtended(reader)

	if err != nil {
		return nil, err
	}

	if compressed {
		err = binary.Read(reader, binary.BigEndian, &result.CompressionType)

		if err != nil {
			return nil, err
		}

		result.CompressionName, err = readPString(reader)

		if err != nil {
			return nil, err
		}
	}

	return &result, nil
}

func parseSoundDataChunk(reader io.Reader, chunkSize uint32) (*SoundDataChunk, error) {
	var result SoundDataChunk

	if chunkSize < 8 {
		return nil, errors.Errorf("sound data chunk too small (%d bytes)", chunkSize)
	}

	err := binary.Read(reader, binary.BigEndian, &result.Offset)

	if err != nil {
		return nil, err
	}

	err = binary.Read(reader, binary.BigEndian, &result.BlockSize)

	if err != nil {
		return nil, err
	}

	result.WaveformData = make([]byte, chunkSize-8)

	_, err = io.ReadFull(reader, result.WaveformData)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

func parseInstrumentChunk(reader io.Reader) (*InstrumentChunk, error) {
	var result InstrumentChunk

	err := binary.Read(reader, binary.BigEndian, &result)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

func parseApplicationChunk(reader io.Reader, chunkSize uint32) (*ApplicationChunk, error) {
	var result ApplicationChunk

	if chunkSize < 4 {
		return nil, errors.Errorf("application chunk too small (%d bytes)", chunkSize)
	}

	err := binary.Read(reader, binary.BigEndian, &result.Signature)

	if err != nil {
		return nil, err
	}

	result.Data = make([]byte, chunkSize-4)

	_, err = io.ReadFull(reader, result.Data)

	return &result, err
}

func Parse(reader io.ReadSeeker) (*Aiff, error) {
	var result Aiff

	var header [3]uint32

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, errors.Wrap(err, "could not read FORM header")
	}

	if header[0] != FORM_HEADER {
		return nil, errors.New("file didn't have FORM header")
	}

	if header[2] == AIFC {
		result.Compressed = true
	} else if header[2] != AIFF {
		return nil, errors.New("file didn't have AIFF or AIFC type")
	}

	for {
		var chunkHeader [2]uint32

		err = binary.Read(reader, binary.BigEndian, &chunkHeader)

		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "could not read chunk header")
		}

		var id = chunkHeader[0]
		var chunkSize = chunkHeader[1]

		currPos, err := reader.Seek(0, io.SeekCurrent)

		if err != nil {
			return nil, err
		}

		switch id {
		case COMM:
			result.Common, err = parseCommonChunk(reader, result.Compressed)
		case SSND:
			result.SoundData, err = parseSoundDataChunk(reader, chunkSize)
		case INST:
			result.Instrument, err = parseInstrumentChunk(reader)
		case APPL:
			var appl *ApplicationChunk
			appl, err = parseApplicationChunk(reader, chunkSize)

			if err == nil {
				result.Application = append(result.Application, appl)
			}
		}

		if err != nil {
			return nil, errors.Wrapf(err, "could not parse chunk %08X", id)
		}

		_, err = reader.Seek(int64(chunkSize+chunkSize%2)+currPos, io.SeekStart)

		if err != nil {
			return nil, err
		}
	}

	return &result, nil
}

// FindStocChunk returns the payload of the stoc application chunk with the
// given name, after the name itself.
func (aiff *Aiff) FindStocChunk(name string) ([]byte, bool) {
	var prefix = PString(name)

	for _, appl := range aiff.Application {
		if appl.Signature == STOC && bytes.HasPrefix(appl.Data, prefix) {
			return appl.Data[len(prefix):], true
		}
	}

	return nil, false
}

func (aiff *Aiff) Codebook() (*adpcm.Codebook, error) {
	payload, ok := aiff.FindStocChunk(VADPCM_CODES_NAME)

	if !ok {
		return nil, nil
	}

	return adpcm.ReadCodebookFromAIFC(bytes.NewReader(payload))
}

func (aiff *Aiff) Loop() (*adpcm.Loop, error) {
	payload, ok := aiff.FindStocChunk(VADPCM_LOOPS_NAME)

	if !ok {
		return nil, nil
	}

	return adpcm.ReadLoopFromAIFC(bytes.NewReader(payload))
}
