package tuning

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Note is an index into the 128 entry pitch table of the audio driver.
// Index 0 is A0, index 39 is C4.
type Note int

const NOTE_COUNT = 128

const C4 Note = 39

// first index whose pitch lies below A0
const wrapIndex = 117

var octaveNames = [12]string{"C", "DF", "D", "EF", "E", "F", "GF", "G", "AF", "A", "BF", "B"}

var pitchNames [NOTE_COUNT]string
var pitchFrequencies [NOTE_COUNT]float32

func init() {
	for i := 0; i < NOTE_COUNT; i++ {
		var semitone = Note(i).semitone()

		var octave = semitone/12 - 1
		var octaveName = fmt.Sprint(octave)

		if octave < 0 {
			octaveName = fmt.Sprintf("NEG%d", -octave)
		}

		pitchNames[i] = octaveNames[semitone%12] + octaveName
		pitchFrequencies[i] = float32(math.Pow(2, float64(semitone-60)/12))
	}
}

// semitone is the unwrapped MIDI style note number, C4 being 60.
func (note Note) semitone() int {
	if int(note) < wrapIndex {
		return int(note) + 21
	}

	return int(note) + 21 - NOTE_COUNT
}

func (note Note) Valid() bool {
	return note >= 0 && note < NOTE_COUNT
}

func (note Note) String() string {
	if !note.Valid() {
		return fmt.Sprintf("Note(%d)", int(note))
	}

	return pitchNames[note]
}

// MIDI returns the note number written to the INST chunk of an AIFC file.
func (note Note) MIDI() uint8 {
	return uint8((int(note) + 21) % NOTE_COUNT)
}

// Frequency is the pitch multiplier the driver uses for the note, 1.0 at C4.
func (note Note) Frequency() float32 {
	return pitchFrequencies[note]
}

func ParseNote(name string) (Note, error) {
	for i, pitchName := range pitchNames {
		if pitchName == name {
			return Note(i), nil
		}
	}

	return 0, errors.Errorf("unknown pitch name %q", name)
}

// NoteFromMIDI is the inverse of MIDI.
func NoteFromMIDI(midi uint8) Note {
	return Note((int(midi) + NOTE_COUNT - 21) % NOTE_COUNT)
}
