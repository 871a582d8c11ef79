package romextractor

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

type ByteSwapper func(p []byte)

func NativeByteSwapper(p []byte) {

}

func ByteSwappedByteSwapper(p []byte) {
	for offset := 0; offset+4 <= len(p); offset += 4 {
		p[offset+0], p[offset+1], p[offset+2], p[offset+3] = p[offset+1], p[offset+0], p[offset+3], p[offset+2]
	}
}

func LittleEndianSwapper(p []byte) {
	for offset := 0; offset+4 <= len(p); offset += 4 {
		p[offset+0], p[offset+1], p[offset+2], p[offset+3] = p[offset+3], p[offset+2], p[offset+1], p[offset+0]
	}
}

var ErrUnknownRomFormat = errors.New("unrecognized rom header, expected a z64, v64 or n64 image")

func DetermineByteSwapper(header []byte) (ByteSwapper, error) {
	if len(header) >= 4 {
		if header[0] == 0x80 && header[1] == 0x37 && header[2] == 0x12 && header[3] == 0x40 {
			return NativeByteSwapper, nil
		} else if header[1] == 0x80 && header[0] == 0x37 && header[3] == 0x12 && header[2] == 0x40 {
			return ByteSwappedByteSwapper, nil
		} else if header[3] == 0x80 && header[2] == 0x37 && header[1] == 0x12 && header[0] == 0x40 {
			return LittleEndianSwapper, nil
		}
	}

	return nil, ErrUnknownRomFormat
}

// CorrectByteswap converts a rom image to big endian in place.
func CorrectByteswap(data []byte) error {
	swapper, err := DetermineByteSwapper(data)

	if err != nil {
		return err
	}

	swapper(data)

	return nil
}

func ReadRom(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, errors.Wrap(err, "could not read rom")
	}

	err = CorrectByteswap(data)

	if err != nil {
		return nil, errors.Wrap(err, filename)
	}

	return data, nil
}

// Section returns size bytes of rom starting at offset.
func Section(rom []byte, offset uint32, size uint32) ([]byte, error) {
	var end = uint64(offset) + uint64(size)

	if end > uint64(len(rom)) {
		return nil, &StructuralError{
			Reason: "rom range out of bounds",
			Detail: fmt.Sprintf("[0x%X, 0x%X) with rom size 0x%X", offset, end, len(rom)),
		}
	}

	return rom[offset:end], nil
}

// OffsetByteReader reads content as if it started at offset, so pointers
// stored relative to offset can be passed directly to Seek.
type OffsetByteReader struct {
	content []byte
	offset  int
	curr    int
}

func NewOffsetByteReader(content []byte, offset int) *OffsetByteReader {
	return &OffsetByteReader{content, offset, offset}
}

func (reader *OffsetByteReader) Read(p []byte) (n int, err error) {
	if reader.curr >= len(reader.content) {
		return 0, io.EOF
	}

	var actualRead = copy(p, reader.content[reader.curr:])

	reader.curr = reader.curr + actualRead

	if actualRead != len(p) {
		return actualRead, io.ErrUnexpectedEOF
	}

	return actualRead, nil
}

func (reader *OffsetByteReader) Seek(offset int64, whence int) (ret int64, err error) {
	var next int

	switch whence {
	case io.SeekCurrent:
		next = reader.curr + int(offset)
	case io.SeekStart:
		next = reader.offset + int(offset)
	case io.SeekEnd:
		next = len(reader.content) + int(offset)
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}

	if next < reader.offset || next > len(reader.content) {
		return 0, errors.Errorf("seek to 0x%X outside of data", next-reader.offset)
	}

	reader.curr = next

	return int64(reader.curr - reader.offset), nil
}
