package samplebank

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ausocean/utils/logging"
	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/lambertjamesd/z64audio/romextractor"
	"github.com/lambertjamesd/z64audio/soundfont"
	"github.com/lambertjamesd/z64audio/tuning"
	"github.com/pkg/errors"
)

type bankState int

const (
	stateCollecting bankState = iota
	stateResolved
	stateFinalized
)

type override struct {
	size uint32
	rate uint32
	note tuning.Note
}

// Bank is one sample bank of the audio table. Samples are added while
// soundfonts are scanned, then the bank is finalized in two phases:
// FinalizeSamples resolves every sample found in the bank, FinalizeCoverage
// accounts for the bytes no sample claimed.
type Bank struct {
	Index     int
	Entry     romextractor.TableEntry
	Data      []byte
	BufferBug bool
	// indices of table entries that alias this bank
	Pointers []int

	log       logging.Logger
	state     bankState
	samples   map[uint32]*UnresolvedSample
	coverage  Coverage
	overrides map[uint32]override
	resolved  []*ResolvedSample
	entries   []Entry
}

func NewBank(index int, entry romextractor.TableEntry, data []byte, log logging.Logger) *Bank {
	return &Bank{
		Index:   index,
		Entry:   entry,
		Data:    data,
		log:     log,
		samples: make(map[uint32]*UnresolvedSample),
	}
}

func (bank *Bank) Name() string {
	return fmt.Sprintf("Bank%d", bank.Index)
}

func (bank *Bank) RegisterPointer(index int) {
	bank.Pointers = append(bank.Pointers, index)
}

// AddSample records one use of a sample stored in this bank.
func (bank *Bank) AddSample(ref soundfont.SampleRef) error {
	if bank.state != stateCollecting {
		return ErrFinalized
	}

	var header = ref.Sample
	var start = header.SampleAddr
	var end = uint64(start) + uint64(header.Size)

	if end > uint64(len(bank.Data)) {
		return &romextractor.StructuralError{
			Reason: fmt.Sprintf("sample bank %d: sample [0x%X, 0x%X) outside of bank", bank.Index, start, end),
			Detail: ref.Source,
		}
	}

	if header.Size%2 != 0 {
		return &romextractor.StructuralError{
			Reason: fmt.Sprintf("sample bank %d: sample at 0x%X has odd size 0x%X", bank.Index, start, header.Size),
			Detail: ref.Source,
		}
	}

	var alignedEnd = align(uint32(end), SAMPLE_ALIGNMENT)
	var paddingEnd = alignedEnd

	if paddingEnd > uint32(len(bank.Data)) {
		paddingEnd = uint32(len(bank.Data))
	}

	bank.coverage.Add(start, alignedEnd, uint32(end))

	if prev, ok := bank.samples[start]; ok {
		err := bank.checkSame(prev, ref, uint32(end))

		if err != nil {
			return err
		}

		prev.observe(ref.Tuning, ref.Source)

		return nil
	}

	var sample = &UnresolvedSample{
		SampleInfo: SampleInfo{
			Bank:    bank.Index,
			Start:   start,
			End:     uint32(end),
			Data:    bank.Data[start:end],
			Padding: bank.Data[end:paddingEnd],
			Codec:   header.Codec,
			Book:    header.Book,
			Loop:    header.Loop,
		},
	}

	sample.observe(ref.Tuning, ref.Source)
	bank.samples[start] = sample

	return nil
}

func (bank *Bank) checkSame(prev *UnresolvedSample, ref soundfont.SampleRef, end uint32) error {
	var header = ref.Sample

	if prev.End != end {
		return prev.consistencyError("end", fmt.Sprintf("0x%X", prev.End), fmt.Sprintf("0x%X", end), ref.Source, nil)
	}

	if prev.Codec != header.Codec {
		return prev.consistencyError("codec", prev.Codec, header.Codec, ref.Source, nil)
	}

	if !prev.Book.Equal(header.Book) {
		return prev.consistencyError("book", prev.Book, header.Book, ref.Source, nil)
	}

	if !prev.Loop.Equal(header.Loop) {
		return prev.consistencyError("loop", prev.Loop, header.Loop, ref.Source, nil)
	}

	return nil
}

// ApplyRecord makes the samples listed in an extraction record use the
// recorded sample rate and base note instead of resolving them.
func (bank *Bank) ApplyRecord(record *Record) error {
	if bank.state != stateCollecting {
		return ErrFinalized
	}

	overrides, err := record.overrides()

	if err != nil {
		return errors.Wrapf(err, "extraction record of sample bank %d", bank.Index)
	}

	bank.overrides = overrides

	return nil
}

// FinalizeSamples resolves the sample rate and base note of every sample
// added to the bank. Only this bank is read.
func (bank *Bank) FinalizeSamples(resolver *tuning.Resolver) error {
	if bank.state != stateCollecting {
		return ErrFinalized
	}

	bank.log.Info("finalize sample bank", "bank", bank.Index, "samples", len(bank.samples))

	var starts = make([]uint32, 0, len(bank.samples))

	for start := range bank.samples {
		starts = append(starts, start)
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var resolved = make([]*ResolvedSample, 0, len(starts))

	for _, start := range starts {
		var sample = bank.samples[start]

		result, err := bank.resolve(sample, resolver)

		if err != nil {
			return err
		}

		bank.log.Debug("resolved sample", "bank", bank.Index, "offset", fmt.Sprintf("0x%X", start),
			"rate", result.SampleRate, "note", result.BaseNote.String(), "tunings", len(sample.Tunings))

		resolved = append(resolved, result)
	}

	bank.resolved = resolved
	bank.samples = nil
	bank.state = stateResolved

	return nil
}

func (bank *Bank) resolve(sample *UnresolvedSample, resolver *tuning.Resolver) (*ResolvedSample, error) {
	recorded, ok := bank.overrides[sample.Start]

	if !ok {
		return sample.Resolve(resolver)
	}

	if recorded.size != sample.End-sample.Start {
		return nil, sample.consistencyError("size", fmt.Sprintf("0x%X", recorded.size),
			fmt.Sprintf("0x%X", sample.End-sample.Start), "extraction record", nil)
	}

	var result = ResolvedSample{
		SampleInfo: sample.SampleInfo,
		SampleRate: recorded.rate,
		BaseNote:   recorded.note,
	}

	for _, value := range sample.Tunings {
		result.Choices = append(result.Choices, tuning.Choice{
			Tuning:    value,
			Candidate: tuning.Candidate{Note: recorded.note, Rate: recorded.rate},
		})
	}

	return &result, nil
}

func (bank *Bank) findMatch(donors []*Bank, start uint32, end uint32) (*ResolvedSample, int) {
	for _, donor := range donors {
		if donor == nil || donor == bank {
			continue
		}

		for _, sample := range donor.resolved {
			var length = uint32(len(sample.Data))

			if length == 0 || start+length > end {
				continue
			}

			if bytes.Equal(bank.Data[start:start+length], sample.Data) {
				return sample, donor.Index
			}
		}
	}

	return nil, 0
}

func (bank *Bank) clone(donor *ResolvedSample, start uint32) *ResolvedSample {
	var end = start + uint32(len(donor.Data))
	var paddingEnd = align(end, SAMPLE_ALIGNMENT)

	if paddingEnd > uint32(len(bank.Data)) {
		paddingEnd = uint32(len(bank.Data))
	}

	var info = donor.SampleInfo

	info.Bank = bank.Index
	info.Start = start
	info.End = end
	info.Data = bank.Data[start:end]
	info.Padding = bank.Data[end:paddingEnd]

	return &ResolvedSample{
		SampleInfo: info,
		SampleRate: donor.SampleRate,
		BaseNote:   donor.BaseNote,
		Choices:    donor.Choices,
		Donor:      donor,
	}
}

// looksLikeADPCM reports whether data could be 9 byte VADPCM frames coded
// with the largest book the bank's samples use.
func (bank *Bank) looksLikeADPCM(data []byte) bool {
	var npredictors = 0

	for _, sample := range bank.resolved {
		if sample.Book != nil && int(sample.Book.NPredictors) > npredictors {
			npredictors = int(sample.Book.NPredictors)
		}
	}

	return npredictors != 0 && adpcm.LooksLikeFrames(data, adpcm.FRAME_SIZE, npredictors)
}

// FinalizeCoverage accounts for every byte of the bank. Gaps between the
// bank's own samples are matched against the resolved samples of the other
// banks in donors, in ascending bank then sample order, first match wins.
// Whatever is left of a gap once nothing matches becomes a single Blob.
// donors is indexed by table entry, alias entries are nil.
func (bank *Bank) FinalizeCoverage(donors []*Bank) error {
	switch bank.state {
	case stateCollecting:
		return errors.Wrapf(ErrNotResolved, "sample bank %d", bank.Index)
	case stateFinalized:
		return ErrFinalized
	}

	for _, donor := range donors {
		if donor != nil && donor.state == stateCollecting {
			return errors.Wrapf(ErrNotResolved, "donor sample bank %d", donor.Index)
		}
	}

	var entries = make([]Entry, 0, len(bank.resolved))

	for _, sample := range bank.resolved {
		entries = append(entries, sample)
	}

	_, gaps := bank.coverage.Finalize(uint32(len(bank.Data)))

	if len(gaps) != 0 {
		bank.log.Info("sample bank has incomplete coverage", "bank", bank.Index, "unaccounted", formatRanges(gaps))
	}

	for _, gap := range gaps {
		var start = gap.Start

		for start < gap.End {
			match, donorIndex := bank.findMatch(donors, start, gap.End)

			if match == nil {
				var blob = &Blob{Start: start, End: gap.End, Data: bank.Data[start:gap.End]}

				blob.LooksLikeADPCM = bank.looksLikeADPCM(blob.Data)

				bank.log.Info("no match found in other banks, leaving as binary blob",
					"bank", bank.Index, "range", blob.Range().String(), "adpcm", blob.LooksLikeADPCM)

				entries = append(entries, blob)
				break
			}

			var sample = bank.clone(match, start)

			bank.log.Info("located match", "bank", bank.Index, "range", sample.Range().String(),
				"donor", donorIndex, "offset", fmt.Sprintf("0x%X", match.Start))

			entries = append(entries, sample)

			start = align(sample.End, SAMPLE_ALIGNMENT)

			if start > gap.End {
				start = gap.End
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Range().Start < entries[j].Range().Start })

	bank.entries = entries
	bank.state = stateFinalized

	return nil
}

// Entries returns the finalized contents of the bank in offset order.
func (bank *Bank) Entries() ([]Entry, error) {
	if bank.state != stateFinalized {
		return nil, errors.Wrapf(ErrNotResolved, "sample bank %d not finalized", bank.Index)
	}

	return bank.entries, nil
}

// Samples returns the finalized samples, in the order they are numbered.
func (bank *Bank) Samples() []*ResolvedSample {
	var result []*ResolvedSample

	for _, entry := range bank.entries {
		if sample, ok := entry.(*ResolvedSample); ok {
			result = append(result, sample)
		}
	}

	return result
}

func (bank *Bank) Blobs() []*Blob {
	var result []*Blob

	for _, entry := range bank.entries {
		if blob, ok := entry.(*Blob); ok {
			result = append(result, blob)
		}
	}

	return result
}

// LookupSample finds the finalized sample starting at offset and its number.
func (bank *Bank) LookupSample(offset uint32) (int, *ResolvedSample, bool) {
	for i, sample := range bank.Samples() {
		if sample.Start == offset {
			return i, sample, true
		}
	}

	return 0, nil, false
}

func (bank *Bank) SampleName(index int) string {
	return fmt.Sprintf("SAMPLE_%d_%d", bank.Index, index)
}

func SampleFileName(index int) string {
	return fmt.Sprintf("Sample%d", index)
}
