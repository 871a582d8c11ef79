package romextractor

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

type Medium uint8

const (
	MEDIUM_RAM        Medium = 0
	MEDIUM_UNK        Medium = 1
	MEDIUM_CART       Medium = 2
	MEDIUM_DISK_DRIVE Medium = 3
)

var mediumNames = map[Medium]string{
	MEDIUM_RAM:        "MEDIUM_RAM",
	MEDIUM_UNK:        "MEDIUM_UNK",
	MEDIUM_CART:       "MEDIUM_CART",
	MEDIUM_DISK_DRIVE: "MEDIUM_DISK_DRIVE",
}

func (medium Medium) String() string {
	if name, ok := mediumNames[medium]; ok {
		return name
	}

	return fmt.Sprintf("Medium(%d)", uint8(medium))
}

type CachePolicy uint8

const (
	CACHE_PERMANENT  CachePolicy = 0
	CACHE_PERSISTENT CachePolicy = 1
	CACHE_TEMPORARY  CachePolicy = 2
	CACHE_EITHER     CachePolicy = 3
	CACHE_DIRECT     CachePolicy = 4
)

var cachePolicyNames = map[CachePolicy]string{
	CACHE_PERMANENT:  "CACHE_LOAD_PERMANENT",
	CACHE_PERSISTENT: "CACHE_LOAD_PERSISTENT",
	CACHE_TEMPORARY:  "CACHE_LOAD_TEMPORARY",
	CACHE_EITHER:     "CACHE_LOAD_EITHER",
	CACHE_DIRECT:     "CACHE_LOAD_EITHER_NOSYNC",
}

func (policy CachePolicy) String() string {
	if name, ok := cachePolicyNames[policy]; ok {
		return name
	}

	return fmt.Sprintf("CachePolicy(%d)", uint8(policy))
}

const TABLE_HEADER_SIZE = 0x10
const TABLE_ENTRY_SIZE = 0x10

// no sample bank for a soundfont slot
const NO_SAMPLE_BANK = 0xFF

// StructuralError reports rom data that does not have the expected layout.
type StructuralError struct {
	Table  string
	Index  int
	Reason string
	Detail string
}

func (err *StructuralError) Error() string {
	var msg = err.Reason

	if err.Table != "" {
		msg = fmt.Sprintf("%s table entry %d: %s", err.Table, err.Index, err.Reason)
	}

	if err.Detail != "" {
		msg = msg + " (" + err.Detail + ")"
	}

	return msg
}

type TableEntry struct {
	RomAddr     uint32
	Size        uint32
	Medium      Medium
	CachePolicy CachePolicy
	ShortData1  uint16
	ShortData2  uint16
	ShortData3  uint16
}

// IsAlias reports whether the entry points at another entry of the same
// table, RomAddr then holds that entry's index.
func (entry *TableEntry) IsAlias() bool {
	return entry.Size == 0
}

func (entry *TableEntry) SampleBankId1() uint8 {
	return uint8(entry.ShortData1 >> 8)
}

func (entry *TableEntry) SampleBankId2() uint8 {
	return uint8(entry.ShortData1)
}

func (entry *TableEntry) NumInstruments() int {
	return int(entry.ShortData2 >> 8)
}

func (entry *TableEntry) NumDrums() int {
	return int(entry.ShortData2 & 0xFF)
}

func (entry *TableEntry) NumSfx() int {
	return int(entry.ShortData3)
}

// Data returns the bytes of the entry, base being the rom address its
// RomAddr is relative to.
func (entry *TableEntry) Data(rom []byte, base uint32) ([]byte, error) {
	return Section(rom, base+entry.RomAddr, entry.Size)
}

type AudioTable struct {
	Name           string
	NumEntries     int16
	UnkMediumParam int16
	RomAddr        uint32
	Entries        []TableEntry
	// the table bytes including the header
	Raw []byte
}

// ReadAudioTable reads the audio code table at offset in rom.
func ReadAudioTable(name string, rom []byte, offset uint32) (*AudioTable, error) {
	header, err := Section(rom, offset, TABLE_HEADER_SIZE)

	if err != nil {
		return nil, errors.Wrapf(err, "%s table header", name)
	}

	var result = AudioTable{Name: name}
	var reader = bytes.NewReader(header)

	binary.Read(reader, binary.BigEndian, &result.NumEntries)
	binary.Read(reader, binary.BigEndian, &result.UnkMediumParam)
	binary.Read(reader, binary.BigEndian, &result.RomAddr)

	if result.NumEntries < 0 {
		return nil, &StructuralError{Reason: fmt.Sprintf("%s table has a negative entry count %d", name, result.NumEntries)}
	}

	var size = TABLE_HEADER_SIZE + uint32(result.NumEntries)*TABLE_ENTRY_SIZE

	result.Raw, err = Section(rom, offset, size)

	if err != nil {
		return nil, errors.Wrapf(err, "%s table entries", name)
	}

	reader = bytes.NewReader(result.Raw[TABLE_HEADER_SIZE:])
	result.Entries = make([]TableEntry, result.NumEntries)

	for i := range result.Entries {
		var raw struct {
			RomAddr     uint32
			Size        uint32
			Medium      uint8
			CachePolicy uint8
			ShortData1  uint16
			ShortData2  uint16
			ShortData3  uint16
		}

		err = binary.Read(reader, binary.BigEndian, &raw)

		if err != nil {
			return nil, errors.Wrapf(err, "%s table entry %d", name, i)
		}

		result.Entries[i] = TableEntry{
			RomAddr:     raw.RomAddr,
			Size:        raw.Size,
			Medium:      Medium(raw.Medium),
			CachePolicy: CachePolicy(raw.CachePolicy),
			ShortData1:  raw.ShortData1,
			ShortData2:  raw.ShortData2,
			ShortData3:  raw.ShortData3,
		}
	}

	return &result, nil
}

func (table *AudioTable) structuralError(index int, reason string, args ...interface{}) error {
	return &StructuralError{
		Table:  table.Name,
		Index:  index,
		Reason: fmt.Sprintf(reason, args...),
	}
}

// AliasTarget returns the entry index an alias entry points at. Aliases must
// point at a real entry, never at another alias.
func (table *AudioTable) AliasTarget(index int) (int, error) {
	var entry = &table.Entries[index]

	if !entry.IsAlias() {
		return index, nil
	}

	if entry.RomAddr >= uint32(len(table.Entries)) {
		return 0, table.structuralError(index, "alias to missing entry %d", entry.RomAddr)
	}

	var target = int(entry.RomAddr)

	if table.Entries[target].IsAlias() {
		return 0, table.structuralError(index, "alias to entry %d, which is also an alias", target)
	}

	return target, nil
}

// ValidateSampleBanks checks the fixed layout of sample bank entries: cart
// medium, no short data and aliases of depth one.
func (table *AudioTable) ValidateSampleBanks() error {
	for i := range table.Entries {
		var entry = &table.Entries[i]

		if entry.ShortData1 != 0 || entry.ShortData2 != 0 || entry.ShortData3 != 0 {
			return table.structuralError(i, "sample bank short data should be 0, got %d %d %d",
				entry.ShortData1, entry.ShortData2, entry.ShortData3)
		}

		if entry.Medium != MEDIUM_CART {
			return table.structuralError(i, "sample bank medium should be %s, got %s", MEDIUM_CART, entry.Medium)
		}

		_, err := table.AliasTarget(i)

		if err != nil {
			return err
		}
	}

	return nil
}
