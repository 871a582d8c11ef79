package soundfont

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lambertjamesd/z64audio/adpcm"
	"github.com/lambertjamesd/z64audio/romextractor"
	"github.com/pkg/errors"
)

type parseState struct {
	parsed map[uint32]interface{}
	size   uint32
}

type typeParser func(*parseState, io.ReadSeeker, uint32) (interface{}, error)

const SAMPLE_SIZE = 0x10
const INSTRUMENT_SIZE = 0x20
const DRUM_SIZE = 0x10
const TUNED_SAMPLE_SIZE = 0x08

const sampleSizeMask = 0xFFFFFF

// readTypeAt parses the structure at address once, later reads of the same
// address share the first result.
func readTypeAt(state *parseState, reader io.ReadSeeker, address uint32, parser typeParser) (interface{}, error) {
	if address >= state.size {
		return nil, errors.Errorf("pointer 0x%X outside of soundfont of size 0x%X", address, state.size)
	}

	result, exists := state.parsed[address]

	if exists {
		return result, nil
	}

	currPos, err := reader.Seek(0, io.SeekCurrent)

	if err != nil {
		return nil, err
	}

	_, err = reader.Seek(int64(address), io.SeekStart)

	if err != nil {
		return nil, err
	}

	result, err = parser(state, reader, address)

	if err != nil {
		return nil, errors.Wrapf(err, "at 0x%X", address)
	}

	if state.parsed == nil {
		state.parsed = make(map[uint32]interface{})
	}

	state.parsed[address] = result

	_, err = reader.Seek(currPos, io.SeekStart)

	if err != nil {
		return nil, err
	}

	return result, nil
}

func readLoop(state *parseState, reader io.ReadSeeker, address uint32) (interface{}, error) {
	return adpcm.ReadLoop(reader)
}

func readBook(state *parseState, reader io.ReadSeeker, address uint32) (interface{}, error) {
	return adpcm.ReadCodebook(reader)
}

func readSample(state *parseState, reader io.ReadSeeker, address uint32) (interface{}, error) {
	var raw struct {
		Bits       uint32
		SampleAddr uint32
		Loop       uint32
		Book       uint32
	}

	err := binary.Read(reader, binary.BigEndian, &raw)

	if err != nil {
		return nil, err
	}

	var result = Sample{
		Unk0:        raw.Bits>>31 != 0,
		Codec:       Codec((raw.Bits >> 28) & 0x7),
		Medium:      romextractor.Medium((raw.Bits >> 26) & 0x3),
		UnkBit26:    (raw.Bits>>25)&1 != 0,
		IsRelocated: (raw.Bits>>24)&1 != 0,
		Size:        raw.Bits & sampleSizeMask,
		SampleAddr:  raw.SampleAddr,
	}

	if !result.Codec.Valid() {
		return nil, errors.Errorf("invalid codec %d", uint8(result.Codec))
	}

	if raw.Loop != 0 {
		interfaceCheck, err := readTypeAt(state, reader, raw.Loop, readLoop)

		if err != nil {
			return nil, err
		}

		loop, ok := interfaceCheck.(*adpcm.Loop)

		if !ok {
			return nil, errors.New("expected *adpcm.Loop")
		}

		result.Loop = loop
	}

	if raw.Book != 0 {
		interfaceCheck, err := readTypeAt(state, reader, raw.Book, readBook)

		if err != nil {
			return nil, err
		}

		book, ok := interfaceCheck.(*adpcm.Codebook)

		if !ok {
			return nil, errors.New("expected *adpcm.Codebook")
		}

		result.Book = book
	} else if result.Codec.IsADPCM() {
		return nil, errors.New("null book for ADPCM sample")
	}

	return &result, nil
}

func readTunedSample(state *parseState, reader io.ReadSeeker) (TunedSample, error) {
	var raw struct {
		Sample uint32
		Tuning float32
	}

	err := binary.Read(reader, binary.BigEndian, &raw)

	if err != nil {
		return TunedSample{}, err
	}

	var result = TunedSample{Tuning: raw.Tuning}

	if raw.Sample == 0 {
		return result, nil
	}

	interfaceCheck, err := readTypeAt(state, reader, raw.Sample, readSample)

	if err != nil {
		return TunedSample{}, err
	}

	sample, ok := interfaceCheck.(*Sample)

	if !ok {
		return TunedSample{}, errors.New("expected *Sample")
	}

	result.Sample = sample

	return result, nil
}

func readInstrument(state *parseState, reader io.ReadSeeker, address uint32) (interface{}, error) {
	var result Instrument

	var header [4]uint8

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, err
	}

	result.IsRelocated = header[0]
	result.NormalRangeLo = header[1]
	result.NormalRangeHi = header[2]
	result.AdsrDecayIndex = header[3]

	err = binary.Read(reader, binary.BigEndian, &result.Envelope)

	if err != nil {
		return nil, err
	}

	for _, tunedSample := range []*TunedSample{&result.Low, &result.Normal, &result.High} {
		*tunedSample, err = readTunedSample(state, reader)

		if err != nil {
			return nil, err
		}
	}

	return &result, nil
}

func readDrum(state *parseState, reader io.ReadSeeker, address uint32) (interface{}, error) {
	var result Drum

	var header [4]uint8

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, err
	}

	result.AdsrDecayIndex = header[0]
	result.Pan = header[1]
	result.IsRelocated = header[2]

	result.TunedSample, err = readTunedSample(state, reader)

	if err != nil {
		return nil, err
	}

	err = binary.Read(reader, binary.BigEndian, &result.Envelope)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ReadSoundfont parses a soundfont binary. The instrument, drum and sound
// effect counts come from the table entry.
func ReadSoundfont(index int, data []byte, entry romextractor.TableEntry) (*Soundfont, error) {
	var state = parseState{size: uint32(len(data))}
	var reader = romextractor.NewOffsetByteReader(data, 0)

	var result = Soundfont{
		Index:       index,
		Entry:       entry,
		Instruments: make([]*Instrument, entry.NumInstruments()),
	}

	var header struct {
		Drums uint32
		Sfx   uint32
	}

	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, errors.Wrapf(err, "soundfont %d header", index)
	}

	for i := range result.Instruments {
		var address uint32

		err = binary.Read(reader, binary.BigEndian, &address)

		if err != nil {
			return nil, errors.Wrapf(err, "soundfont %d instrument list", index)
		}

		if address == 0 {
			continue
		}

		interfaceCheck, err := readTypeAt(&state, reader, address, readInstrument)

		if err != nil {
			return nil, errors.Wrapf(err, "soundfont %d instrument %d", index, i)
		}

		instrument, ok := interfaceCheck.(*Instrument)

		if !ok {
			return nil, errors.Errorf("soundfont %d instrument %d: expected *Instrument", index, i)
		}

		result.Instruments[i] = instrument
	}

	if header.Drums != 0 && entry.NumDrums() != 0 {
		_, err = reader.Seek(int64(header.Drums), io.SeekStart)

		if err != nil {
			return nil, errors.Wrapf(err, "soundfont %d drum list", index)
		}

		for i := 0; i < entry.NumDrums(); i++ {
			var address uint32

			err = binary.Read(reader, binary.BigEndian, &address)

			if err != nil {
				return nil, errors.Wrapf(err, "soundfont %d drum list", index)
			}

			if address == 0 {
				result.Drums = append(result.Drums, nil)
				continue
			}

			interfaceCheck, err := readTypeAt(&state, reader, address, readDrum)

			if err != nil {
				return nil, errors.Wrapf(err, "soundfont %d drum %d", index, i)
			}

			drum, ok := interfaceCheck.(*Drum)

			if !ok {
				return nil, errors.Errorf("soundfont %d drum %d: expected *Drum", index, i)
			}

			result.Drums = append(result.Drums, drum)
		}
	}

	if header.Sfx != 0 && entry.NumSfx() != 0 {
		_, err = reader.Seek(int64(header.Sfx), io.SeekStart)

		if err != nil {
			return nil, errors.Wrapf(err, "soundfont %d sound effect list", index)
		}

		for i := 0; i < entry.NumSfx(); i++ {
			tunedSample, err := readTunedSample(&state, reader)

			if err != nil {
				return nil, errors.Wrapf(err, "soundfont %d sound effect %d", index, i)
			}

			result.Effects = append(result.Effects, tunedSample)
		}
	}

	return &result, nil
}

func sampleRef(soundfont *Soundfont, tunedSample TunedSample, use Use) (SampleRef, bool, error) {
	if tunedSample.Sample == nil {
		return SampleRef{}, false, nil
	}

	var source = fmt.Sprintf("soundfont %d %s", soundfont.Index, use)
	var slot int

	switch tunedSample.Sample.Medium {
	case romextractor.MEDIUM_RAM:
		slot = 0
	case romextractor.MEDIUM_UNK:
		slot = 1
	default:
		return SampleRef{}, false, errors.Errorf("%s: sample medium %s does not select a sample bank", source, tunedSample.Sample.Medium)
	}

	return SampleRef{tunedSample.Sample, tunedSample.Tuning, slot, use, source}, true, nil
}

// Samples lists every sample use in the soundfont: instruments (low, normal
// then high range), then drums, then sound effects.
func (soundfont *Soundfont) Samples() ([]SampleRef, error) {
	var result []SampleRef

	var add = func(tunedSample TunedSample, use Use) error {
		ref, ok, err := sampleRef(soundfont, tunedSample, use)

		if ok {
			result = append(result, ref)
		}

		return err
	}

	for i, instrument := range soundfont.Instruments {
		if instrument == nil {
			continue
		}

		var ranges = []struct {
			region      string
			tunedSample TunedSample
		}{
			{REGION_LOW, instrument.Low},
			{REGION_NORMAL, instrument.Normal},
			{REGION_HIGH, instrument.High},
		}

		for _, r := range ranges {
			err := add(r.tunedSample, Use{USE_INSTRUMENT, i, r.region})

			if err != nil {
				return nil, err
			}
		}
	}

	for i, drum := range soundfont.Drums {
		if drum == nil {
			continue
		}

		err := add(drum.TunedSample, Use{USE_DRUM, i, ""})

		if err != nil {
			return nil, err
		}
	}

	for i, effect := range soundfont.Effects {
		err := add(effect, Use{USE_EFFECT, i, ""})

		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
