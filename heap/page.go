package heap

import "fmt"

/*
Page
┌──────────────────────────────────────────────────────────────┐
| record 0 | record 1 | ... | record n-1 ──>                    |
|                                                              |
|                          (zero filled)                       |
|                                                              |
|                                  <── trailer (see trailer.go) |
└──────────────────────────────────────────────────────────────┘
records grow forward from byte 0, the trailer is written once
at the end of the page right before the page is flushed.
*/
type PageBuffer struct {
	buffer  []byte
	used    int
	offsets []int
	sealed  bool
}

func NewPageBuffer(pageSize int) *PageBuffer {
	return &PageBuffer{
		buffer: make([]byte, pageSize),
	}
}

// MaxRecordSize is the largest record an empty page of pageSize can take.
func MaxRecordSize(pageSize int) int {
	return pageSize - TrailerSize(1)
}

// TryAppend places record after the records already on the page. It
// returns false, leaving the page untouched, when the record plus the grown
// trailer would not fit. On an empty page that is ErrOversizedRecord since
// no other page can do better.
func (pb *PageBuffer) TryAppend(record []byte) (bool, error) {
	if pb.sealed {
		return false, ErrPageSealed
	}

	if pb.used+TrailerSize(len(pb.offsets)+1)+len(record) > len(pb.buffer) {
		if len(pb.offsets) == 0 {
			return false, fmt.Errorf("%w: %d bytes, page size %d", ErrOversizedRecord, len(record), len(pb.buffer))
		}
		return false, nil
	}

	copy(pb.buffer[pb.used:], record)
	pb.offsets = append(pb.offsets, pb.used)
	pb.used += len(record)
	return true, nil
}

// Seal writes the trailer into the tail of the page. After Seal the page
// only accepts Reset.
func (pb *PageBuffer) Seal() error {
	if pb.sealed {
		return ErrPageSealed
	}
	trailer := EncodeTrailer(pb.used, pb.offsets)
	copy(pb.buffer[len(pb.buffer)-len(trailer):], trailer)
	pb.sealed = true
	return nil
}

// Reset empties the page for reuse.
func (pb *PageBuffer) Reset() {
	clear(pb.buffer)
	pb.used = 0
	pb.offsets = pb.offsets[:0]
	pb.sealed = false
}

func (pb *PageBuffer) Used() int {
	return pb.used
}

func (pb *PageBuffer) Count() int {
	return len(pb.offsets)
}

func (pb *PageBuffer) Offsets() []int {
	return append([]int(nil), pb.offsets...)
}

func (pb *PageBuffer) Sealed() bool {
	return pb.sealed
}

// Bytes is the full page; callers must not modify it.
func (pb *PageBuffer) Bytes() []byte {
	return pb.buffer
}
