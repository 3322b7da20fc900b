package checksums

import "hash/crc32"

// Running is a CRC32 (IEEE) over every page handed to Update, in order.
// Two loads of the same input with the same page size end with the same Sum.
type Running struct {
	crc   uint32
	pages uint64
}

func (r *Running) Update(page []byte) {
	r.crc = crc32.Update(r.crc, crc32.IEEETable, page)
	r.pages++
}

func (r *Running) Sum() uint32 {
	return r.crc
}

func (r *Running) Pages() uint64 {
	return r.pages
}
