package aiff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

type chunkData struct {
	header uint32
	data   []byte
}

// PString encodes a pascal string padded to an even total length.
func PString(value string) []byte {
	var result = make([]byte, 0, len(value)+2)

	result = append(result, byte(len(value)))
	result = append(result, value...)

	if len(value)%2 == 0 {
		result = append(result, 0)
	}

	return result
}

// NewStocChunk builds a "stoc" application chunk, the container of the
// VADPCM codebook and loop.
func NewStocChunk(name string, payload []byte) *ApplicationChunk {
	var data = PString(name)

	return &ApplicationChunk{
		Signature: STOC,
		Data:      append(data, payload...),
	}
}

func (commonChunk *CommonChunk) serialize(compressed bool) []byte {
	var result bytes.Buffer

	binary.Write(&result, binary.BigEndian, commonChunk.NumChannels)
	binary.Write(&result, binary.BigEndian, commonChunk.NumSampleFrames)
	binary.Write(&result, binary.BigEndian, commonChunk.SampleSize)

	var rate = commonChunk.SampleRate.Bytes()
	result.Write(rate[:])

	if compressed {
		binary.Write(&result, binary.BigEndian, commonChunk.CompressionType)
		result.Write(PString(commonChunk.CompressionName))
	}

	return result.Bytes()
}

func (instrumentChunk *InstrumentChunk) serialize() []byte {
	var result bytes.Buffer

	binary.Write(&result, binary.BigEndian, instrumentChunk)

	return result.Bytes()
}

func (applicationChunk *ApplicationChunk) serialize() []byte {
	var result bytes.Buffer

	binary.Write(&result, binary.BigEndian, applicationChunk.Signature)
	result.Write(applicationChunk.Data)

	return result.Bytes()
}

func (soundData *SoundDataChunk) serialize() []byte {
	var result bytes.Buffer

	binary.Write(&result, binary.BigEndian, soundData.Offset)
	binary.Write(&result, binary.BigEndian, soundData.BlockSize)
	result.Write(soundData.WaveformData)

	return result.Bytes()
}

func (aiff *Aiff) chunks() ([]chunkData, error) {
	var result []chunkData

	if aiff.Common == nil {
		return nil, errors.New("missing common chunk")
	}

	if aiff.SoundData == nil {
		return nil, errors.New("missing sound data chunk")
	}

	result = append(result, chunkData{COMM, aiff.Common.serialize(aiff.Compressed)})

	if aiff.Instrument != nil {
		result = append(result, chunkData{INST, aiff.Instrument.serialize()})
	}

	for _, appl := range aiff.Application {
		result = append(result, chunkData{APPL, appl.serialize()})
	}

	result = append(result, chunkData{SSND, aiff.SoundData.serialize()})

	return result, nil
}

// Serialize writes the FORM container. Chunks are written in the order
// COMM, INST, APPL..., SSND and odd sized chunks get one padding byte.
func (aiff *Aiff) Serialize(writer io.Writer) error {
	bufferChunks, err := aiff.chunks()

	if err != nil {
		return err
	}

	// form type
	var totalLength uint32 = 4

	for _, chunk := range bufferChunks {
		totalLength = totalLength + 8 + uint32(len(chunk.data)+len(chunk.data)%2)
	}

	var formType uint32 = AIFF

	if aiff.Compressed {
		formType = AIFC
	}

	var out bytes.Buffer

	binary.Write(&out, binary.BigEndian, [3]uint32{FORM_HEADER, totalLength, formType})

	for _, chunk := range bufferChunks {
		binary.Write(&out, binary.BigEndian, [2]uint32{chunk.header, uint32(len(chunk.data))})
		out.Write(chunk.data)

		if len(chunk.data)%2 != 0 {
			out.WriteByte(0)
		}
	}

	_, err = writer.Write(out.Bytes())

	if err != nil {
		return errors.Wrap(err, "could not write aiff data")
	}

	return nil
}
