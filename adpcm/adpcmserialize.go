package adpcm

import (
	"bytes"
	"encoding/binary"
)

// SerializeAIFC returns the VADPCMCODES chunk payload for the codebook.
func (book *Codebook) SerializeAIFC() []byte {
	var result bytes.Buffer

	var header = [3]int16{
		AIFC_CHUNK_VERSION,
		int16(book.Order),
		int16(book.NPredictors),
	}

	binary.Write(&result, binary.BigEndian, header)
	binary.Write(&result, binary.BigEndian, book.Book)

	return result.Bytes()
}

// SerializeAIFC returns the VADPCMLOOPS chunk payload for a single loop.
func (loop *Loop) SerializeAIFC() []byte {
	var result bytes.Buffer

	var header = [2]uint16{
		AIFC_CHUNK_VERSION,
		1, // number of loops
	}

	binary.Write(&result, binary.BigEndian, header)
	binary.Write(&result, binary.BigEndian, loop)

	return result.Bytes()
}
