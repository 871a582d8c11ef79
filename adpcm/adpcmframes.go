package adpcm

// frame sizes, in bytes, of the two VADPCM variants
const FRAME_SIZE = 9
const SMALL_FRAME_SIZE = 5

const maxScale = 12

func couldBeHeader(header byte, npredictors int) bool {
	var scale = header >> 4
	var optimalp = header & 0xf

	return scale <= maxScale && int(optimalp) < npredictors
}

// LooksLikeFrames reports whether every frame header in data is a plausible
// VADPCM header for a book with npredictors predictors. A trailing partial
// frame is ignored. Nothing is decoded, this is only a hint for data that
// nothing else accounts for.
func LooksLikeFrames(data []byte, frameSize int, npredictors int) bool {
	if frameSize <= 0 || len(data) < frameSize {
		return false
	}

	for offset := 0; offset+frameSize <= len(data); offset += frameSize {
		if !couldBeHeader(data[offset], npredictors) {
			return false
		}
	}

	return true
}
