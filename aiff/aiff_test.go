package aiff

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestExtendedFromF64(t *testing.T) {
	tests := []struct {
		in   float64
		want [EXTENDED_SIZE]byte
	}{
		{0, [EXTENDED_SIZE]byte{}},
		{math.Copysign(0, -1), [EXTENDED_SIZE]byte{0x80}},
		{1, [EXTENDED_SIZE]byte{0x3f, 0xff, 0x80}},
		{16000, [EXTENDED_SIZE]byte{0x40, 0x0c, 0xfa}},
		{32000, [EXTENDED_SIZE]byte{0x40, 0x0d, 0xfa}},
		{44100, [EXTENDED_SIZE]byte{0x40, 0x0e, 0xac, 0x44}},
		{-2, [EXTENDED_SIZE]byte{0xc0, 0x00, 0x80}},
	}

	for i, test := range tests {
		ext, err := ExtendedFromF64(test.in)

		if err != nil {
			t.Errorf("unexpected error for test %d: %v", i, err)
			continue
		}

		got := ext.Bytes()

		if got != test.want {
			t.Errorf("unexpected bytes for test %d (%v):\ngot: %x\nwant:%x", i, test.in, got, test.want)
		}

		back := F64FromExtended(ext)

		if back != test.in || math.Signbit(back) != math.Signbit(test.in) {
			t.Errorf("did not get back input for test %d, got: %v, want: %v", i, back, test.in)
		}
	}
}

func TestExtendedFromF64Unsupported(t *testing.T) {
	tests := []float64{
		math.SmallestNonzeroFloat64,
		math.Inf(1),
		math.Inf(-1),
		math.NaN(),
	}

	for i, in := range tests {
		_, err := ExtendedFromF64(in)

		if errors.Cause(err) != ErrUnsupportedFloat {
			t.Errorf("did not get expected error for test %d, got: %v", i, err)
		}
	}
}

func TestPString(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", []byte{0, 0}},
		{"a", []byte{1, 'a'}},
		{"ab", []byte{2, 'a', 'b', 0}},
		{"Uncompressed", append(append([]byte{12}, "Uncompressed"...), 0)},
	}

	for i, test := range tests {
		got := PString(test.in)

		if !bytes.Equal(got, test.want) {
			t.Errorf("unexpected pstring for test %d, got: %x, want: %x", i, got, test.want)
		}
	}
}

func testFile(t *testing.T) *Aiff {
	rate, err := ExtendedFromF64(22050)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return &Aiff{
		Compressed: true,
		Common: &CommonChunk{
			NumChannels:     1,
			NumSampleFrames: 32,
			SampleSize:      16,
			SampleRate:      rate,
			CompressionType: 0x41445039,
			CompressionName: "Nintendo/SGI VADPCM 9-bytes/frame",
		},
		Instrument: &InstrumentChunk{BaseNote: 60},
		Application: []*ApplicationChunk{
			NewStocChunk(VADPCM_CODES_NAME, []byte{0, 1, 0, 2, 0}),
		},
		SoundData: &SoundDataChunk{
			WaveformData: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18},
		},
	}
}

func TestSerializeLayout(t *testing.T) {
	var out bytes.Buffer

	err := testFile(t).Serialize(&out)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := out.Bytes()

	if len(data)%2 != 0 {
		t.Errorf("output length is odd: %d", len(data))
	}

	if string(data[0:4]) != "FORM" || string(data[8:12]) != "AIFC" {
		t.Errorf("unexpected container header: %q", data[:12])
	}

	if size := binary.BigEndian.Uint32(data[4:8]); int(size) != len(data)-8 {
		t.Errorf("unexpected FORM size, got: %d, want: %d", size, len(data)-8)
	}

	var tags []string

	for offset := 12; offset < len(data); {
		tag := string(data[offset : offset+4])
		size := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))

		tags = append(tags, tag)

		if tag == "COMM" && size != 2+4+2+EXTENDED_SIZE+4+34 {
			t.Errorf("unexpected COMM size: %d", size)
		}

		if tag == "APPL" && size%2 == 0 {
			t.Errorf("expected odd APPL size, got: %d", size)
		}

		offset += 8 + size + size%2
	}

	want := []string{"COMM", "INST", "APPL", "SSND"}

	if !cmp.Equal(tags, want) {
		t.Errorf("unexpected chunk order:\n%s", cmp.Diff(want, tags))
	}
}

// The APPL chunk has an odd size and is followed by a padding byte.
func TestSerializeGolden(t *testing.T) {
	var out bytes.Buffer

	err := testFile(t).Serialize(&out)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{
		// FORM
		0x46, 0x4F, 0x52, 0x4D, 0x00, 0x00, 0x00, 0xA0, 0x41, 0x49, 0x46, 0x43,
		// COMM
		0x43, 0x4F, 0x4D, 0x4D, 0x00, 0x00, 0x00, 0x38, 0x00, 0x01, 0x00, 0x00, 0x00, 0x20, 0x00, 0x10,
		0x40, 0x0D, 0xAC, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x41, 0x44, 0x50, 0x39, 0x21, 0x4E,
		0x69, 0x6E, 0x74, 0x65, 0x6E, 0x64, 0x6F, 0x2F, 0x53, 0x47, 0x49, 0x20, 0x56, 0x41, 0x44, 0x50,
		0x43, 0x4D, 0x20, 0x39, 0x2D, 0x62, 0x79, 0x74, 0x65, 0x73, 0x2F, 0x66, 0x72, 0x61, 0x6D, 0x65,
		// INST
		0x49, 0x4E, 0x53, 0x54, 0x00, 0x00, 0x00, 0x14, 0x3C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		// APPL
		0x41, 0x50, 0x50, 0x4C, 0x00, 0x00, 0x00, 0x15, 0x73, 0x74, 0x6F, 0x63, 0x0B, 0x56, 0x41, 0x44,
		0x50, 0x43, 0x4D, 0x43, 0x4F, 0x44, 0x45, 0x53, 0x00, 0x01, 0x00, 0x02, 0x00, 0x00,
		// SSND
		0x53, 0x53, 0x4E, 0x44, 0x00, 0x00, 0x00, 0x1A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
		0x11, 0x12,
	}

	if !cmp.Equal(out.Bytes(), want) {
		t.Errorf("unexpected aiff file:\n%s", cmp.Diff(want, out.Bytes()))
	}
}

func TestSerializeParse(t *testing.T) {
	var want = testFile(t)
	var out bytes.Buffer

	err := want.Serialize(&out)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Parse(bytes.NewReader(out.Bytes()))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("parsed file does not match:\n%s", cmp.Diff(want, got))
	}

	codes, ok := got.FindStocChunk(VADPCM_CODES_NAME)

	if !ok || !bytes.Equal(codes, []byte{0, 1, 0, 2, 0}) {
		t.Errorf("unexpected codes payload: %x", codes)
	}

	if _, ok := got.FindStocChunk(VADPCM_LOOPS_NAME); ok {
		t.Error("found a loop chunk that was never written")
	}
}

func TestSerializeMissingChunks(t *testing.T) {
	var out bytes.Buffer

	err := (&Aiff{Compressed: true}).Serialize(&out)

	if err == nil {
		t.Error("did not get expected error")
	}

	if out.Len() != 0 {
		t.Errorf("wrote %d bytes for an invalid file", out.Len())
	}
}
