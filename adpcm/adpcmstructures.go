package adpcm

const PREDICTOR_SIZE = 8
const LOOP_STATE_SIZE = 16

// version written to and expected in the VADPCMCODES and VADPCMLOOPS chunks
const AIFC_CHUNK_VERSION = 1

const maxOrder = 16
const maxPredictors = 16

// Codebook is the predictor book of a VADPCM sample as stored in the rom.
// Book holds PREDICTOR_SIZE * Order * NPredictors entries.
type Codebook struct {
	Order       int32
	NPredictors int32
	Book        []int16
}

// Loop is a VADPCM loop. A Count of 0xFFFFFFFF loops forever. State is
// only present in the rom when Count is not zero and is zeroed otherwise.
type Loop struct {
	Start uint32
	End   uint32
	Count uint32
	State [LOOP_STATE_SIZE]int16
}

func (book *Codebook) EntryCount() int {
	return PREDICTOR_SIZE * int(book.Order) * int(book.NPredictors)
}

func (book *Codebook) Equal(other *Codebook) bool {
	if book == nil || other == nil {
		return book == other
	}

	if book.Order != other.Order || book.NPredictors != other.NPredictors || len(book.Book) != len(other.Book) {
		return false
	}

	for i, val := range book.Book {
		if other.Book[i] != val {
			return false
		}
	}

	return true
}

func (loop *Loop) Equal(other *Loop) bool {
	if loop == nil || other == nil {
		return loop == other
	}

	return *loop == *other
}

func (loop *Loop) HasState() bool {
	return loop.Count != 0
}
