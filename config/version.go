package config

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Version locates the audio segments and code tables in a rom image.
type Version struct {
	Name string

	AudiobankRom    uint32
	AudioseqRom     uint32
	AudiotableRom   uint32
	SoundfontTable  uint32
	SeqFontTable    uint32
	SeqTable        uint32
	SampleBankTable uint32

	// soundfonts whose first sample bank id is wrong in the table, mapped to
	// the sample bank they actually use
	FakeBanks map[int]int
	// sample banks built with the audio table buffer bug
	BufferBugs []int
}

var Versions = map[string]*Version{
	"oot_mqdbg": {
		Name:            "oot_mqdbg",
		AudiobankRom:    0x19030,
		AudioseqRom:     0x44DF0,
		AudiotableRom:   0x94870,
		SoundfontTable:  0xBCC270,
		SeqFontTable:    0xBCC4E0,
		SeqTable:        0xBCC6A0,
		SampleBankTable: 0xBCCD90,
		FakeBanks:       map[int]int{37: 2},
		BufferBugs:      []int{0},
	},
	"oot_n0": {
		Name:            "oot_n0",
		AudiobankRom:    0x0D390,
		AudioseqRom:     0x29DE0,
		AudiotableRom:   0x79470,
		SoundfontTable:  0xB896A0,
		SeqFontTable:    0xB89910,
		SeqTable:        0xB89AD0,
		SampleBankTable: 0xB8A1C0,
		FakeBanks:       map[int]int{37: 2},
		BufferBugs:      []int{0},
	},
	"mm_j0": {
		Name:            "mm_j0",
		AudiobankRom:    0x222F0,
		AudioseqRom:     0x48160,
		AudiotableRom:   0x995D0,
		SoundfontTable:  0xC97130,
		SeqFontTable:    0xC973C0,
		SeqTable:        0xC975D0,
		SampleBankTable: 0xC97DE0,
		FakeBanks:       map[int]int{39: 2},
	},
	"mm_u0": {
		Name:            "mm_u0",
		AudiobankRom:    0x20700,
		AudioseqRom:     0x46AF0,
		AudiotableRom:   0x97F70,
		SoundfontTable:  0xC776C0,
		SeqFontTable:    0xC77960,
		SeqTable:        0xC77B70,
		SampleBankTable: 0xC78380,
		FakeBanks:       map[int]int{40: 2},
	},
	"mm_e1dbg": {
		Name:            "mm_e1dbg",
		AudiobankRom:    0x2B2D0,
		AudioseqRom:     0x516C0,
		AudiotableRom:   0xA2B40,
		SoundfontTable:  0xE0F7E0,
		SeqFontTable:    0xE0FA80,
		SeqTable:        0xE0FC90,
		SampleBankTable: 0xE104A0,
		FakeBanks:       map[int]int{40: 2},
	},
}

func VersionNames() []string {
	var result = make([]string, 0, len(Versions))

	for name := range Versions {
		result = append(result, name)
	}

	sort.Strings(result)

	return result
}

func LookupVersion(name string) (*Version, error) {
	version, ok := Versions[name]

	if !ok {
		return nil, errors.Errorf("invalid version %q, must be one of %s", name, strings.Join(VersionNames(), ", "))
	}

	return version, nil
}

// SampleBank1 is the first sample bank of a soundfont, after fake bank
// remapping.
func (version *Version) SampleBank1(soundfont int, tableValue uint8) int {
	if bank, ok := version.FakeBanks[soundfont]; ok {
		return bank
	}

	return int(tableValue)
}

func (version *Version) HasBufferBug(bank int) bool {
	for _, index := range version.BufferBugs {
		if index == bank {
			return true
		}
	}

	return false
}

// SeqFontTableSize is the size of the sequence font table, which is
// directly followed by the sequence table.
func (version *Version) SeqFontTableSize() uint32 {
	return version.SeqTable - version.SeqFontTable
}
