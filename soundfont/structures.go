package soundfont

import (
	"fmt"
	"strings"

	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/lambertjamesd/z64audio/romextractor"
)

type Codec uint8

const (
	CODEC_ADPCM        Codec = 0
	CODEC_S8           Codec = 1
	CODEC_S16_INMEMORY Codec = 2
	CODEC_SMALL_ADPCM  Codec = 3
	CODEC_REVERB       Codec = 4
	CODEC_S16          Codec = 5
)

type codecInfo struct {
	name      string
	frameSize int
	tag       [4]byte
	longName  string
}

var codecs = map[Codec]codecInfo{
	CODEC_ADPCM:        {"CODEC_ADPCM", 9, [4]byte{'A', 'D', 'P', '9'}, "Nintendo/SGI VADPCM 9-bytes/frame"},
	CODEC_S8:           {"CODEC_S8", 16, [4]byte{'H', 'P', 'C', 'M'}, "Half-frame PCM"},
	CODEC_S16_INMEMORY: {"CODEC_S16_INMEMORY", 32, [4]byte{'N', 'O', 'N', 'E'}, "Uncompressed"},
	CODEC_SMALL_ADPCM:  {"CODEC_SMALL_ADPCM", 5, [4]byte{'A', 'D', 'P', '5'}, "Nintendo/SGI VADPCM 5-bytes/frame"},
	CODEC_REVERB:       {"CODEC_REVERB", 0, [4]byte{'R', 'V', 'R', 'B'}, "Nintendo Reverb format"},
	CODEC_S16:          {"CODEC_S16", 32, [4]byte{'N', 'O', 'N', 'E'}, "Uncompressed"},
}

func (codec Codec) Valid() bool {
	_, ok := codecs[codec]
	return ok
}

func (codec Codec) String() string {
	if info, ok := codecs[codec]; ok {
		return info.name
	}

	return fmt.Sprintf("Codec(%d)", uint8(codec))
}

// FrameSize is the size in bytes of one 16 sample frame, 0 for the reverb
// format which has no frames.
func (codec Codec) FrameSize() int {
	return codecs[codec].frameSize
}

// Tag is the AIFC compression type.
func (codec Codec) Tag() uint32 {
	var tag = codecs[codec].tag
	return uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8 | uint32(tag[3])
}

// Name is the AIFC compression name.
func (codec Codec) Name() string {
	return codecs[codec].longName
}

func (codec Codec) IsADPCM() bool {
	return codec == CODEC_ADPCM || codec == CODEC_SMALL_ADPCM
}

type Sample struct {
	Unk0        bool
	Codec       Codec
	Medium      romextractor.Medium
	UnkBit26    bool
	IsRelocated bool
	Size        uint32
	// offset into the sample bank
	SampleAddr uint32
	Loop       *adpcm.Loop
	Book       *adpcm.Codebook
}

type TunedSample struct {
	Sample *Sample
	Tuning float32
}

type Instrument struct {
	IsRelocated    uint8
	NormalRangeLo  uint8
	NormalRangeHi  uint8
	AdsrDecayIndex uint8
	Envelope       uint32
	Low            TunedSample
	Normal         TunedSample
	High           TunedSample
}

type Drum struct {
	AdsrDecayIndex uint8
	Pan            uint8
	IsRelocated    uint8
	TunedSample    TunedSample
	Envelope       uint32
}

type Soundfont struct {
	Index int
	Entry romextractor.TableEntry
	// nil entries are empty instrument slots
	Instruments []*Instrument
	Drums       []*Drum
	Effects     []TunedSample
}

const (
	USE_INSTRUMENT = "Instrument"
	USE_DRUM       = "Drum"
	USE_EFFECT     = "Effect"
)

const (
	REGION_LOW    = "Low"
	REGION_NORMAL = "Normal"
	REGION_HIGH   = "High"
)

// Use names the soundfont entry playing a sample. Region is only set for
// instruments.
type Use struct {
	Kind   string
	Index  int
	Region string
}

func (use Use) String() string {
	var result = fmt.Sprintf("%s %d", strings.ToLower(use.Kind), use.Index)

	if use.Region != "" {
		result += " " + strings.ToLower(use.Region)
	}

	return result
}

// SampleRef is one use of a sample by a soundfont.
type SampleRef struct {
	Sample *Sample
	Tuning float32
	// 0 for the soundfont's first sample bank, 1 for the second
	Slot int
	Use  Use
	// where the reference was found, for diagnostics
	Source string
}
