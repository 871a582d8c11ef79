package soundfont

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/lambertjamesd/z64audio/romextractor"
)

func put(data []byte, offset int, values ...interface{}) {
	var out bytes.Buffer

	for _, value := range values {
		binary.Write(&out, binary.BigEndian, value)
	}

	copy(data[offset:], out.Bytes())
}

func testSoundfont() ([]byte, romextractor.TableEntry) {
	var data = make([]byte, 0xB8)

	// header, instrument list
	put(data, 0x00, uint32(0x50), uint32(0x58), uint32(0x10), uint32(0))
	// instrument
	put(data, 0x10, [4]uint8{0, 0, 127, 0}, uint32(0x70),
		uint32(0), float32(0),
		uint32(0x30), float32(1),
		uint32(0), float32(0),
	)
	// adpcm sample, bank 1
	put(data, 0x30, uint32(0x00000020), uint32(0x10), uint32(0x80), uint32(0x90))
	// pcm sample, bank 2
	put(data, 0x40, uint32(0x54000040), uint32(0x100), uint32(0), uint32(0))
	// drum list, sound effects
	put(data, 0x50, uint32(0x60), uint32(0))
	put(data, 0x58, uint32(0x40), float32(0.5))
	// drum
	put(data, 0x60, [4]uint8{0, 64, 0, 0}, uint32(0x30), float32(2), uint32(0x70))
	// loop
	put(data, 0x80, uint32(0), uint32(0x38), uint32(0), uint32(0))
	// book
	put(data, 0x90, int32(2), int32(1))

	for i := 0; i < 16; i++ {
		put(data, 0x98+2*i, int16(i))
	}

	var entry = romextractor.TableEntry{
		Size:       uint32(len(data)),
		Medium:     romextractor.MEDIUM_CART,
		ShortData1: 0x01FF,
		ShortData2: 0x0201,
		ShortData3: 1,
	}

	return data, entry
}

func TestReadSoundfont(t *testing.T) {
	data, entry := testSoundfont()

	font, err := ReadSoundfont(3, data, entry)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(font.Instruments) != 2 || font.Instruments[1] != nil {
		t.Fatalf("unexpected instruments: %v", font.Instruments)
	}

	var instrument = font.Instruments[0]

	if instrument.NormalRangeHi != 127 || instrument.Envelope != 0x70 {
		t.Errorf("unexpected instrument header: %+v", instrument)
	}

	if instrument.Low.Sample != nil || instrument.High.Sample != nil {
		t.Error("empty ranges should not have a sample")
	}

	var book = &adpcm.Codebook{Order: 2, NPredictors: 1, Book: make([]int16, 16)}

	for i := range book.Book {
		book.Book[i] = int16(i)
	}

	want := &Sample{
		Codec:      CODEC_ADPCM,
		Medium:     romextractor.MEDIUM_RAM,
		Size:       0x20,
		SampleAddr: 0x10,
		Loop:       &adpcm.Loop{End: 0x38},
		Book:       book,
	}

	if !cmp.Equal(instrument.Normal.Sample, want) {
		t.Errorf("unexpected sample:\n%s", cmp.Diff(want, instrument.Normal.Sample))
	}

	if len(font.Drums) != 1 || font.Drums[0].Pan != 64 {
		t.Fatalf("unexpected drums: %v", font.Drums)
	}

	if font.Drums[0].TunedSample.Sample != instrument.Normal.Sample {
		t.Error("sample used twice should be parsed once")
	}

	if len(font.Effects) != 1 || font.Effects[0].Sample.Codec != CODEC_S16 || font.Effects[0].Sample.Book != nil {
		t.Fatalf("unexpected effects: %v", font.Effects)
	}
}

func TestSamples(t *testing.T) {
	data, entry := testSoundfont()

	font, err := ReadSoundfont(3, data, entry)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs, err := font.Samples()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type summary struct {
		Addr   uint32
		Tuning float32
		Slot   int
		Use    Use
		Source string
	}

	var got []summary

	for _, ref := range refs {
		got = append(got, summary{ref.Sample.SampleAddr, ref.Tuning, ref.Slot, ref.Use, ref.Source})
	}

	want := []summary{
		{0x10, 1, 0, Use{USE_INSTRUMENT, 0, REGION_NORMAL}, "soundfont 3 instrument 0 normal"},
		{0x10, 2, 0, Use{USE_DRUM, 0, ""}, "soundfont 3 drum 0"},
		{0x100, 0.5, 1, Use{USE_EFFECT, 0, ""}, "soundfont 3 effect 0"},
	}

	if !cmp.Equal(got, want) {
		t.Errorf("unexpected sample references:\n%s", cmp.Diff(want, got))
	}
}

func TestReadSoundfontErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(data []byte)
	}{
		{"pointer out of range", func(data []byte) { put(data, 0x08, uint32(0x1000)) }},
		{"bad codec", func(data []byte) { put(data, 0x30, uint32(0x70000020)) }},
		{"null adpcm book", func(data []byte) { put(data, 0x3C, uint32(0)) }},
		{"bad book shape", func(data []byte) { put(data, 0x90, int32(0)) }},
	}

	for _, test := range tests {
		data, entry := testSoundfont()
		test.modify(data)

		if _, err := ReadSoundfont(0, data, entry); err == nil {
			t.Errorf("did not get expected error for %s", test.name)
		}
	}
}

func TestCodec(t *testing.T) {
	tests := []struct {
		codec     Codec
		frameSize int
		tag       uint32
		name      string
	}{
		{CODEC_ADPCM, 9, 0x41445039, "Nintendo/SGI VADPCM 9-bytes/frame"},
		{CODEC_S8, 16, 0x4850434D, "Half-frame PCM"},
		{CODEC_S16_INMEMORY, 32, 0x4E4F4E45, "Uncompressed"},
		{CODEC_SMALL_ADPCM, 5, 0x41445035, "Nintendo/SGI VADPCM 5-bytes/frame"},
		{CODEC_REVERB, 0, 0x52565242, "Nintendo Reverb format"},
		{CODEC_S16, 32, 0x4E4F4E45, "Uncompressed"},
	}

	for _, test := range tests {
		if test.codec.FrameSize() != test.frameSize || test.codec.Tag() != test.tag || test.codec.Name() != test.name {
			t.Errorf("unexpected codec info for %s: %d %08X %q", test.codec, test.codec.FrameSize(), test.codec.Tag(), test.codec.Name())
		}
	}

	if Codec(6).Valid() {
		t.Error("codec 6 should not be valid")
	}
}
