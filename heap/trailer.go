package heap

import "encoding/binary"

const wordSize = 4

// used-byte count and record count
const fixedTrailerWords = 2

/*
Page trailer, last bytes of every page
┌──────────────────────────────────────────────────────────────┐
| offset[n-1] | offset[n-2] | ... | offset[0] | n | used       |
└──────────────────────────────────────────────────────────────┘
each cell is a 4 byte big endian signed int. used and n sit at a
fixed distance from the end of the page so a reader finds them
without knowing n.
*/
func TrailerSize(count int) int {
	return (count + fixedTrailerWords) * wordSize
}

// EncodeTrailer lays out the trailer for a page holding len(offsets)
// records in usedBytes bytes. offsets are in insertion order.
func EncodeTrailer(usedBytes int, offsets []int) []byte {
	trailer := make([]byte, TrailerSize(len(offsets)))

	pos := 0
	for i := len(offsets) - 1; i >= 0; i-- {
		putWord(trailer[pos:], offsets[i])
		pos += wordSize
	}
	putWord(trailer[pos:], len(offsets))
	putWord(trailer[pos+wordSize:], usedBytes)

	return trailer
}

func putWord(buffer []byte, value int) {
	binary.BigEndian.PutUint32(buffer, uint32(int32(value)))
}
