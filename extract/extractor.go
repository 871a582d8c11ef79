// Package extract runs the extraction of the sample banks of a rom: it reads
// the audio code tables, collects every sample use of every soundfont, then
// finalizes and writes out each sample bank.
package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ausocean/utils/logging"
	"github.com/lambertjamesd/z64audio/config"
	"github.com/lambertjamesd/z64audio/romextractor"
	"github.com/lambertjamesd/z64audio/samplebank"
	"github.com/lambertjamesd/z64audio/soundfont"
	"github.com/lambertjamesd/z64audio/tuning"
	"github.com/pkg/errors"
)

type Extractor struct {
	cfg      *config.Config
	version  *config.Version
	log      logging.Logger
	decoder  Decoder
	resolver *tuning.Resolver

	// progress bars are drawn here
	Progress io.Writer

	rom             []byte
	sampleBankTable *romextractor.AudioTable
	soundfontTable  *romextractor.AudioTable
	sequenceTable   *romextractor.AudioTable
	seqFontTable    []byte

	// indexed by sample bank table entry, alias entries are nil
	Banks      []*samplebank.Bank
	Soundfonts []*soundfont.Soundfont
	// filled by Extract, one per entry of Soundfonts
	FontRecords []*samplebank.FontRecord
}

// New creates an extractor for a validated config.
func New(cfg *config.Config, decoder Decoder) (*Extractor, error) {
	version, err := config.LookupVersion(cfg.Version)

	if err != nil {
		return nil, err
	}

	return &Extractor{
		cfg:      cfg,
		version:  version,
		log:      cfg.Logger,
		decoder:  decoder,
		resolver: tuning.NewResolver(cfg.BadFloats),
		Progress: os.Stderr,
	}, nil
}

// Run extracts every sample bank of the configured rom.
func (e *Extractor) Run() error {
	rom, err := romextractor.ReadRom(e.cfg.RomPath)

	if err != nil {
		return err
	}

	e.log.Info("read rom", "path", e.cfg.RomPath, "size", len(rom), "version", e.version.Name)

	err = e.Load(rom)

	if err != nil {
		return err
	}

	err = e.Resolve()

	if err != nil {
		return err
	}

	return e.Extract()
}

// Load reads the audio tables, sample banks and soundfonts of rom and
// registers every sample use with its sample bank.
func (e *Extractor) Load(rom []byte) error {
	e.rom = rom

	err := e.readTables()

	if err != nil {
		return err
	}

	err = e.dumpTables()

	if err != nil {
		return err
	}

	err = e.collectSampleBanks()

	if err != nil {
		return err
	}

	err = e.collectSoundfonts()

	if err != nil {
		return err
	}

	err = e.dumpSequences()

	if err != nil {
		return err
	}

	for _, font := range e.Soundfonts {
		err = e.addSamples(font)

		if err != nil {
			return err
		}
	}

	if e.cfg.RecordDir != "" {
		return e.applyRecords()
	}

	return nil
}

func (e *Extractor) readTables() error {
	var err error

	e.soundfontTable, err = romextractor.ReadAudioTable("soundfont", e.rom, e.version.SoundfontTable)

	if err != nil {
		return err
	}

	e.sampleBankTable, err = romextractor.ReadAudioTable("sample bank", e.rom, e.version.SampleBankTable)

	if err != nil {
		return err
	}

	e.sequenceTable, err = romextractor.ReadAudioTable("sequence", e.rom, e.version.SeqTable)

	if err != nil {
		return err
	}

	e.seqFontTable, err = romextractor.Section(e.rom, e.version.SeqFontTable, e.version.SeqFontTableSize())

	if err != nil {
		return errors.Wrap(err, "sequence font table")
	}

	e.log.Debug("read audio tables",
		"soundfonts", len(e.soundfontTable.Entries),
		"samplebanks", len(e.sampleBankTable.Entries),
		"sequences", len(e.sequenceTable.Entries))

	return e.sampleBankTable.ValidateSampleBanks()
}

func (e *Extractor) baseromPath(elem ...string) string {
	return filepath.Join(append([]string{e.cfg.BaseromDir}, elem...)...)
}

func (e *Extractor) assetPath(elem ...string) string {
	return filepath.Join(append([]string{e.cfg.OutDir}, elem...)...)
}

func writeFile(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0777)

	if err != nil {
		return errors.Wrapf(err, "could not create directory for %s", path)
	}

	err = os.WriteFile(path, data, 0664)

	if err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}

	return nil
}

func (e *Extractor) dumpTables() error {
	var tables = []struct {
		name string
		data []byte
	}{
		{"samplebank_table.bin", e.sampleBankTable.Raw},
		{"soundfont_table.bin", e.soundfontTable.Raw},
		{"sequence_table.bin", e.sequenceTable.Raw},
		{"sequence_font_table.bin", e.seqFontTable},
	}

	for _, table := range tables {
		err := writeFile(e.baseromPath("audio_code_tables", table.name), table.data)

		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Extractor) collectSampleBanks() error {
	var table = e.sampleBankTable
	var base = e.version.AudiotableRom + table.RomAddr

	e.Banks = make([]*samplebank.Bank, len(table.Entries))

	for i, entry := range table.Entries {
		if entry.IsAlias() {
			continue
		}

		data, err := entry.Data(e.rom, base)

		if err != nil {
			return errors.Wrapf(err, "sample bank %d", i)
		}

		var bank = samplebank.NewBank(i, entry, data, e.log)

		bank.BufferBug = e.version.HasBufferBug(i)
		e.Banks[i] = bank

		err = writeFile(e.baseromPath("audiotable_files", fmt.Sprintf("Samplebank_%d.bin", i)), data)

		if err != nil {
			return err
		}
	}

	// aliases are registered in table order on the bank they point at
	for i, entry := range table.Entries {
		if !entry.IsAlias() {
			continue
		}

		target, err := table.AliasTarget(i)

		if err != nil {
			return err
		}

		e.log.Debug("sample bank alias", "index", i, "target", target)
		e.Banks[target].RegisterPointer(i)
	}

	return nil
}

// sampleBank returns the bank a sample bank id refers to, following
// aliases, or nil for no bank.
func (e *Extractor) sampleBank(id int) (*samplebank.Bank, error) {
	if id == romextractor.NO_SAMPLE_BANK {
		return nil, nil
	}

	if id < 0 || id >= len(e.Banks) {
		return nil, &romextractor.StructuralError{Reason: fmt.Sprintf("sample bank %d does not exist", id)}
	}

	target, err := e.sampleBankTable.AliasTarget(id)

	if err != nil {
		return nil, err
	}

	return e.Banks[target], nil
}

func soundfontFileName(index int) string {
	return fmt.Sprintf("Soundfont_%d", index)
}

func (e *Extractor) collectSoundfonts() error {
	var table = e.soundfontTable
	var base = e.version.AudiobankRom + table.RomAddr

	for i, entry := range table.Entries {
		if entry.IsAlias() {
			e.log.Debug("skipping soundfont alias", "index", i, "target", entry.RomAddr)
			continue
		}

		data, err := entry.Data(e.rom, base)

		if err != nil {
			return errors.Wrapf(err, "soundfont %d", i)
		}

		font, err := soundfont.ReadSoundfont(i, data, entry)

		if err != nil {
			return err
		}

		e.Soundfonts = append(e.Soundfonts, font)

		err = writeFile(e.baseromPath("audiobank_files", soundfontFileName(i)+".bin"), data)

		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Extractor) dumpSequences() error {
	var table = e.sequenceTable
	var base = e.version.AudioseqRom + table.RomAddr

	for i, entry := range table.Entries {
		if entry.IsAlias() {
			continue
		}

		data, err := entry.Data(e.rom, base)

		if err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}

		err = writeFile(e.baseromPath("audioseq_files", fmt.Sprintf("seq_%d.aseq", i)), data)

		if err != nil {
			return err
		}
	}

	return nil
}

// soundfontBanks returns the first and second sample bank of font, after
// the version's fake bank remapping.
func (e *Extractor) soundfontBanks(font *soundfont.Soundfont) ([2]*samplebank.Bank, error) {
	var slots [2]*samplebank.Bank
	var err error

	slots[0], err = e.sampleBank(e.version.SampleBank1(font.Index, font.Entry.SampleBankId1()))

	if err != nil {
		return slots, errors.Wrapf(err, "soundfont %d", font.Index)
	}

	slots[1], err = e.sampleBank(int(font.Entry.SampleBankId2()))

	if err != nil {
		return slots, errors.Wrapf(err, "soundfont %d", font.Index)
	}

	return slots, nil
}

func slotBank(slots [2]*samplebank.Bank, font *soundfont.Soundfont, ref soundfont.SampleRef) (*samplebank.Bank, error) {
	var bank = slots[ref.Slot]

	if bank == nil {
		return nil, &romextractor.StructuralError{
			Reason: fmt.Sprintf("soundfont %d has no sample bank %d", font.Index, ref.Slot+1),
			Detail: ref.Source,
		}
	}

	return bank, nil
}

func (e *Extractor) addSamples(font *soundfont.Soundfont) error {
	slots, err := e.soundfontBanks(font)

	if err != nil {
		return err
	}

	refs, err := font.Samples()

	if err != nil {
		return err
	}

	for _, ref := range refs {
		bank, err := slotBank(slots, font, ref)

		if err != nil {
			return err
		}

		err = bank.AddSample(ref)

		if err != nil {
			return err
		}
	}

	e.log.Debug("collected soundfont", "index", font.Index, "samples", len(refs))

	return nil
}

func recordFileName(index int) string {
	return fmt.Sprintf("Samplebank_%d.xml", index)
}

func (e *Extractor) applyRecords() error {
	for _, bank := range e.Banks {
		if bank == nil {
			continue
		}

		var path = filepath.Join(e.cfg.RecordDir, "samplebanks", recordFileName(bank.Index))

		file, err := os.Open(path)

		if os.IsNotExist(err) {
			e.log.Debug("no extraction record", "bank", bank.Index, "path", path)
			continue
		} else if err != nil {
			return errors.Wrap(err, "could not open extraction record")
		}

		record, err := samplebank.ReadRecord(file)
		file.Close()

		if err != nil {
			return errors.Wrap(err, path)
		}

		err = bank.ApplyRecord(record)

		if err != nil {
			return err
		}

		e.log.Info("applied extraction record", "bank", bank.Index, "samples", len(record.Samples))
	}

	return nil
}

// Resolve resolves the samples of every sample bank. It must complete for
// all banks before any bank's coverage is finalized.
func (e *Extractor) Resolve() error {
	for _, bank := range e.Banks {
		if bank == nil {
			continue
		}

		err := bank.FinalizeSamples(e.resolver)

		if err != nil {
			return err
		}
	}

	return nil
}
