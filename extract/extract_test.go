package extract

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
	"github.com/lambertjamesd/z64audio/aiff"
	"github.com/lambertjamesd/z64audio/config"
	"github.com/lambertjamesd/z64audio/romextractor"
	"github.com/lambertjamesd/z64audio/samplebank"
	"github.com/lambertjamesd/z64audio/tuning"
	"github.com/pkg/errors"
)

func init() {
	config.Versions["test"] = &config.Version{
		Name:            "test",
		AudiobankRom:    0x1000,
		AudioseqRom:     0x2000,
		AudiotableRom:   0x3000,
		SoundfontTable:  0x100,
		SeqFontTable:    0x200,
		SeqTable:        0x220,
		SampleBankTable: 0x300,
		BufferBugs:      []int{0},
	}
}

func put(data []byte, offset int, values ...interface{}) {
	var out bytes.Buffer

	for _, value := range values {
		binary.Write(&out, binary.BigEndian, value)
	}

	copy(data[offset:], out.Bytes())
}

func tableEntry(romAddr uint32, size uint32, shortData ...uint16) []interface{} {
	var result = []interface{}{romAddr, size, uint8(romextractor.MEDIUM_CART), uint8(romextractor.CACHE_TEMPORARY)}

	for len(shortData) < 3 {
		shortData = append(shortData, 0)
	}

	for _, value := range shortData {
		result = append(result, value)
	}

	return result
}

func testBankData() ([]byte, []byte) {
	var bank0 = make([]byte, 0x100)

	for i := range bank0 {
		bank0[i] = byte(i*5 + 1)
	}

	var bank2 = make([]byte, 0x40)

	copy(bank2, bank0[0x10:0x30])

	for i := 0x20; i < len(bank2); i++ {
		bank2[i] = 0xEE
	}

	return bank0, bank2
}

// testRom builds a rom with one soundfont using two samples of sample bank
// 0, an alias of bank 0 and bank 2 holding a copy of the first sample.
func testRom(soundfontBanks uint16) []byte {
	var rom = make([]byte, 0x4000)

	put(rom, 0, uint32(0x80371240))

	// soundfont table
	put(rom, 0x100, int16(1), int16(0), uint32(0), [8]byte{})
	put(rom, 0x110, tableEntry(0, 0x80, soundfontBanks, 0x0100, 0)...)

	// sequence font table, sequence table
	put(rom, 0x200, uint16(2), uint8(1), uint8(0))
	put(rom, 0x220, int16(1), int16(0), uint32(0), [8]byte{})
	put(rom, 0x230, tableEntry(0, 0x10)...)

	// sample bank table
	put(rom, 0x300, int16(3), int16(0), uint32(0), [8]byte{})
	put(rom, 0x310, tableEntry(0, 0x100)...)
	put(rom, 0x320, tableEntry(0, 0)...)
	put(rom, 0x330, tableEntry(0x100, 0x40)...)

	// soundfont: instrument list, instrument, adpcm sample, pcm sample, book
	var font = 0x1000
	put(rom, font+0x00, uint32(0), uint32(0), uint32(0x10))
	put(rom, font+0x10, [4]uint8{0, 0, 127, 0}, uint32(0x60),
		uint32(0), float32(0),
		uint32(0x30), float32(1),
		uint32(0x40), float32(0.5),
	)
	put(rom, font+0x30, uint32(0x00000020), uint32(0x10), uint32(0), uint32(0x50))
	put(rom, font+0x40, uint32(0x50000020), uint32(0x40), uint32(0), uint32(0))
	put(rom, font+0x50, int32(2), int32(1))

	for i := 0; i < 16; i++ {
		put(rom, font+0x58+2*i, int16(i))
	}

	// sequence
	put(rom, 0x2000, []byte("sequence data..."))

	bank0, bank2 := testBankData()
	copy(rom[0x3000:], bank0)
	copy(rom[0x3100:], bank2)

	return rom
}

// fakeDecoder writes a silent mono WAV at the sample rate of the AIFC file.
type fakeDecoder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (decoder *fakeDecoder) Check() error {
	return decoder.err
}

func (decoder *fakeDecoder) Decode(aifcPath string, wavPath string) error {
	decoder.mu.Lock()
	decoder.calls = append(decoder.calls, filepath.Base(wavPath))
	decoder.mu.Unlock()

	in, err := os.Open(aifcPath)

	if err != nil {
		return err
	}

	defer in.Close()

	file, err := aiff.Parse(in)

	if err != nil {
		return err
	}

	var rate = int(aiff.F64FromExtended(file.Common.SampleRate))

	return writeTestWav(wavPath, rate, 1, int(file.Common.NumSampleFrames))
}

func writeTestWav(path string, rate int, channels int, frames int) error {
	out, err := os.Create(path)

	if err != nil {
		return err
	}

	defer out.Close()

	enc := wav.NewEncoder(out, rate, 16, channels, 1)
	buf := &audio.IntBuffer{Data: make([]int, frames*channels), Format: &audio.Format{SampleRate: rate, NumChannels: channels}}

	err = enc.Write(buf)

	if err != nil {
		return err
	}

	return enc.Close()
}

func testConfig(t *testing.T) *config.Config {
	var dir = t.TempDir()

	var cfg = &config.Config{
		Logger:      (*logging.TestLogger)(t),
		Version:     "test",
		RomPath:     filepath.Join(dir, "baserom.z64"),
		OutDir:      filepath.Join(dir, "assets"),
		BaseromDir:  filepath.Join(dir, "baserom"),
		Workers:     2,
		WriteRecord: true,
	}

	err := cfg.Validate()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return cfg
}

func newTestExtractor(t *testing.T, cfg *config.Config, decoder Decoder) *Extractor {
	e, err := New(cfg, decoder)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.Progress = io.Discard

	return e
}

func listFiles(t *testing.T, dir string) []string {
	var result []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			result = append(result, filepath.ToSlash(rel))
		}

		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Strings(result)

	return result
}

func TestRun(t *testing.T) {
	var cfg = testConfig(t)
	var decoder = &fakeDecoder{}

	err := os.WriteFile(cfg.RomPath, testRom(0x00FF), 0664)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var e = newTestExtractor(t, cfg, decoder)

	err = e.Run()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBaserom := []string{
		"audio_code_tables/samplebank_table.bin",
		"audio_code_tables/sequence_font_table.bin",
		"audio_code_tables/sequence_table.bin",
		"audio_code_tables/soundfont_table.bin",
		"audioseq_files/seq_0.aseq",
		"audiobank_files/Soundfont_0.bin",
		"audiotable_files/Samplebank_0.bin",
		"audiotable_files/Samplebank_2.bin",
	}
	sort.Strings(wantBaserom)

	if got := listFiles(t, cfg.BaseromDir); !cmp.Equal(got, wantBaserom) {
		t.Errorf("unexpected baserom files:\n%s", cmp.Diff(wantBaserom, got))
	}

	wantAssets := []string{
		"samplebanks/Samplebank_0.xml",
		"samplebanks/Samplebank_2.xml",
		"samples/Bank0/Sample0.wav",
		"samples/Bank0/Sample1.wav",
		"samples/Bank0/UNACCOUNTED_0_10.bin",
		"samples/Bank0/UNACCOUNTED_30_40.bin",
		"samples/Bank0/UNACCOUNTED_60_100.bin",
		"samples/Bank0/aifc/Sample0.aifc",
		"samples/Bank0/aifc/Sample1.aifc",
		"samples/Bank0/aifc/UNACCOUNTED_0_10.bin",
		"samples/Bank0/aifc/UNACCOUNTED_30_40.bin",
		"samples/Bank0/aifc/UNACCOUNTED_60_100.bin",
		"samples/Bank2/Sample0.wav",
		"samples/Bank2/UNACCOUNTED_20_40.bin",
		"samples/Bank2/aifc/Sample0.aifc",
		"samples/Bank2/aifc/UNACCOUNTED_20_40.bin",
		"xml/samplebanks/Samplebank_0.xml",
		"xml/samplebanks/Samplebank_2.xml",
		"xml/soundfonts/Soundfont_0.xml",
	}
	sort.Strings(wantAssets)

	if got := listFiles(t, cfg.OutDir); !cmp.Equal(got, wantAssets) {
		t.Errorf("unexpected asset files:\n%s", cmp.Diff(wantAssets, got))
	}

	if len(decoder.calls) != 3 {
		t.Errorf("expected 3 decoded samples, got: %v", decoder.calls)
	}

	if e.Banks[1] != nil || !cmp.Equal(e.Banks[0].Pointers, []int{1}) || !e.Banks[0].BufferBug {
		t.Errorf("unexpected sample banks")
	}

	var samples = e.Banks[0].Samples()

	if len(samples) != 2 || samples[0].SampleRate != 32000 || samples[0].BaseNote != tuning.C4 || samples[1].BaseNote.String() != "C5" {
		t.Fatalf("unexpected samples in bank 0: %v", samples)
	}

	var cloned = e.Banks[2].Samples()

	if len(cloned) != 1 || cloned[0].Donor != samples[0] {
		t.Errorf("expected bank 2 to hold a copy of the first sample, got: %v", cloned)
	}

	wantFont := []samplebank.FontRecordSample{
		{Kind: "Instrument", Index: 0, Region: "Normal", Sample: "SAMPLE_0_0", SampleRate: 32000, BaseNote: "C4"},
		{Kind: "Instrument", Index: 0, Region: "High", Sample: "SAMPLE_0_1", SampleRate: 32000, BaseNote: "C5"},
	}

	if len(e.FontRecords) != 1 || !cmp.Equal(e.FontRecords[0].Samples, wantFont) {
		t.Errorf("unexpected soundfont records: %v", e.FontRecords)
	}

	blob, err := os.ReadFile(filepath.Join(cfg.OutDir, "samples/Bank2/UNACCOUNTED_20_40.bin"))

	if err != nil || !bytes.Equal(blob, bytes.Repeat([]byte{0xEE}, 0x20)) {
		t.Errorf("unexpected blob contents %v %v", blob, err)
	}
}

func TestExtractMissingDecoder(t *testing.T) {
	var cfg = testConfig(t)

	cfg.DecoderPath = filepath.Join(t.TempDir(), "z64sample")

	var e = newTestExtractor(t, cfg, NewToolDecoder(cfg.DecoderPath, cfg.Logger))

	err := e.Load(testRom(0x00FF))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = e.Resolve()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = e.Extract()

	var toolErr *ExternalToolError

	if !errors.As(err, &toolErr) || toolErr.Tool != cfg.DecoderPath {
		t.Fatalf("did not get expected error, got: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.OutDir, "samples")); !os.IsNotExist(err) {
		t.Errorf("nothing should be written without a decoder")
	}
}

func TestExtractDecoderFailure(t *testing.T) {
	var cfg = testConfig(t)
	var failure = &ExternalToolError{Tool: "z64sample", Err: errors.New("exit status 1")}

	var e = newTestExtractor(t, cfg, &failingDecoder{failure})

	err := e.Load(testRom(0x00FF))

	if err == nil {
		err = e.Resolve()
	}

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err = e.Extract(); err != failure {
		t.Errorf("did not get expected error, got: %v", err)
	}
}

type failingDecoder struct {
	err error
}

func (decoder *failingDecoder) Check() error {
	return nil
}

func (decoder *failingDecoder) Decode(aifcPath string, wavPath string) error {
	return decoder.err
}

func TestLoadMissingSampleBank(t *testing.T) {
	var cfg = testConfig(t)
	var e = newTestExtractor(t, cfg, &fakeDecoder{})

	// no sample bank for the first slot
	err := e.Load(testRom(0xFFFF))

	var structuralErr *romextractor.StructuralError

	if !errors.As(err, &structuralErr) {
		t.Errorf("did not get expected error, got: %v", err)
	}
}

func TestLoadRecords(t *testing.T) {
	var cfg = testConfig(t)

	cfg.RecordDir = t.TempDir()

	var record = `<?xml version="1.0" encoding="UTF-8"?>
<SampleBank Name="Bank0" Index="0">
    <Sample Name="SAMPLE_0_0" Offset="0x000010" Size="0x0020" SampleRate="22050" BaseNote="C4"></Sample>
</SampleBank>
`

	err := writeFile(filepath.Join(cfg.RecordDir, "samplebanks", "Samplebank_0.xml"), []byte(record))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var e = newTestExtractor(t, cfg, &fakeDecoder{})

	err = e.Load(testRom(0x00FF))

	if err == nil {
		err = e.Resolve()
	}

	if err == nil {
		err = e.Extract()
	}

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var samples = e.Banks[0].Samples()

	if samples[0].SampleRate != 22050 || samples[1].SampleRate != 32000 {
		t.Errorf("record not applied, got rates %d %d", samples[0].SampleRate, samples[1].SampleRate)
	}

	if cloned := e.Banks[2].Samples(); cloned[0].SampleRate != 22050 {
		t.Errorf("clone should use the recorded rate, got %d", cloned[0].SampleRate)
	}
}

func TestCheckWav(t *testing.T) {
	var dir = t.TempDir()

	tests := []struct {
		name     string
		rate     int
		channels int
		wantErr  bool
	}{
		{"good", 16000, 1, false},
		{"stereo", 16000, 2, true},
		{"wrong rate", 22050, 1, true},
	}

	for _, test := range tests {
		var path = filepath.Join(dir, test.name+".wav")

		err := writeTestWav(path, test.rate, test.channels, 32)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		frames, err := checkWav(path, 16000)

		if (err != nil) != test.wantErr {
			t.Errorf("unexpected error for %s: %v", test.name, err)
		}

		if err == nil && frames != 32 {
			t.Errorf("unexpected frame count for %s: %d", test.name, frames)
		}
	}

	var garbage = filepath.Join(dir, "garbage.wav")
	os.WriteFile(garbage, []byte("not a wav file"), 0664)

	if _, err := checkWav(garbage, 16000); err == nil {
		t.Error("expected an error for an invalid file")
	}
}
