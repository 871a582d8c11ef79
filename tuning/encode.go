package tuning

import (
	"math"
)

// rate the driver treats as unity playback speed
const OUTPUT_RATE = 32000

const MIN_RATE = 1
const MAX_RATE = 96000

// Tuning values found in the game data that are one unit in the
// last place away from what their sample rate and base note encode to.
var DefaultBadFloats = []uint32{
	0x3E7319E3,
}

// Candidate is one sample rate and base note pair that encodes to a tuning.
type Candidate struct {
	Note Note
	Rate uint32
}

// Encode computes the tuning the driver stores for a sample recorded at
// rate and played back at its natural pitch on note. All arithmetic is
// single precision, as in the game.
func Encode(rate uint32, note Note) float32 {
	var ratio = float32(float32(rate) / float32(OUTPUT_RATE))

	return float32(ratio / note.Frequency())
}

func ulpDistance(a float32, b float32) uint32 {
	var bitsA = int64(math.Float32bits(a))
	var bitsB = int64(math.Float32bits(b))

	if bitsA > bitsB {
		return uint32(bitsA - bitsB)
	}

	return uint32(bitsB - bitsA)
}

// Candidates lists every pair that re-encodes to tuning, ordered by note.
// Tunings in the bad float set also accept pairs one unit in the last place
// away.
func (resolver *Resolver) Candidates(tuning float32) []Candidate {
	var result []Candidate

	if tuning <= 0 || math.IsInf(float64(tuning), 0) || math.IsNaN(float64(tuning)) {
		return nil
	}

	var tolerance uint32 = 0

	if resolver.isBadFloat(tuning) {
		tolerance = 1
	}

	for note := Note(0); note < NOTE_COUNT; note++ {
		var estimate = math.Round(float64(tuning) * float64(note.Frequency()) * OUTPUT_RATE)

		for delta := -1.0; delta <= 1; delta++ {
			var rate = estimate + delta

			if rate < MIN_RATE || rate > MAX_RATE {
				continue
			}

			if ulpDistance(Encode(uint32(rate), note), tuning) <= tolerance {
				result = append(result, Candidate{note, uint32(rate)})
			}
		}
	}

	return result
}

func (resolver *Resolver) isBadFloat(tuning float32) bool {
	return resolver.badFloats[math.Float32bits(tuning)]
}
