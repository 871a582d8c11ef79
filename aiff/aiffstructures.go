package aiff

import (
	"math"

	"github.com/pkg/errors"
)

const FORM_HEADER = 0x464F524D

const AIFC = 0x41494643
const AIFF = 0x41494646

const COMM = 0x434F4D4D
const INST = 0x494E5354
const SSND = 0x53534E44
const APPL = 0x4150504C

// application signature of the VADPCM chunks
const STOC = 0x73746F63

const VADPCM_CODES_NAME = "VADPCMCODES"
const VADPCM_LOOPS_NAME = "VADPCMLOOPS"

const EXTENDED_SIZE = 10

const f64ExponentBias = 1023
const f80ExponentBias = 0x3FFF

// Sign * 1.Mantissa * pow(2, Exponent - 0x3FFF)
type ExtendedFloat struct {
	Sign     bool
	Exponent uint16
	Mantissa uint64
}

type CommonChunk struct {
	NumChannels     int16
	NumSampleFrames uint32
	SampleSize      int16
	SampleRate      ExtendedFloat
	CompressionType uint32
	CompressionName string
}

type Loop struct {
	PlayMode  int16
	BeginLoop int16
	EndLoop   int16
}

type InstrumentChunk struct {
	BaseNote     uint8
	Detune       uint8
	LowNote      uint8
	HighNote     uint8
	LowVelocity  uint8
	HighVelocity uint8
	Gain         int16
	SustainLoop  Loop
	ReleaseLoop  Loop
}

type ApplicationChunk struct {
	Signature uint32
	Data      []byte
}

type SoundDataChunk struct {
	Offset       uint32
	BlockSize    uint32
	WaveformData []byte
}

type Aiff struct {
	Compressed  bool
	Common      *CommonChunk
	Instrument  *InstrumentChunk
	Application []*ApplicationChunk
	SoundData   *SoundDataChunk
}

var ErrUnsupportedFloat = errors.New("cannot convert denormal, infinite or NaN value to 80-bit float")

// ExtendedFromF64 converts val to the 80-bit extended format by rebiasing
// the exponent and making the leading mantissa bit explicit.
func ExtendedFromF64(val float64) (ExtendedFloat, error) {
	if val == 0 {
		return ExtendedFloat{Sign: math.Signbit(val)}, nil
	}

	var asInt = math.Float64bits(val)

	var sign = asInt & 0x8000000000000000
	var exponent = (asInt ^ sign) >> 52
	var mantissa = asInt & 0xFFFFFFFFFFFFF

	if exponent == 0 || exponent == 0x7FF {
		return ExtendedFloat{}, errors.Wrapf(ErrUnsupportedFloat, "got %v", val)
	}

	exponent = exponent + f80ExponentBias - f64ExponentBias

	mantissa = 0x8000000000000000 | (mantissa << (63 - 52))

	return ExtendedFloat{
		sign != 0,
		uint16(exponent),
		mantissa,
	}, nil
}

func F64FromExtended(val ExtendedFloat) float64 {
	if val.Exponent == 0 && val.Mantissa == 0 {
		if val.Sign {
			return math.Copysign(0, -1)
		}
		return 0
	}

	var sign float64 = 1

	if val.Sign {
		sign = -1
	}

	var mant = float64(val.Mantissa) / math.Pow(2, 63)

	return sign * mant * math.Pow(2, float64(val.Exponent)-f80ExponentBias)
}

func (val ExtendedFloat) Bytes() [EXTENDED_SIZE]byte {
	var result [EXTENDED_SIZE]byte

	var exponent = val.Exponent & 0x7FFF

	if val.Sign {
		exponent |= 0x8000
	}

	result[0] = byte(exponent >> 8)
	result[1] = byte(exponent)

	for i := 0; i < 8; i++ {
		result[2+i] = byte(val.Mantissa >> (56 - 8*i))
	}

	return result
}
