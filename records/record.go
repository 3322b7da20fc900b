package records

import "math"

const TextFieldCount = 8

// Text field positions inside Record.Text. The order is part of the on-disk
// format.
const (
	PersonName = iota
	BirthPlace
	Field
	Genre
	Instrument
	Nationality
	Thumbnail
	Description
)

// AbsentMillis is stored in a temporal slot when the value is missing.
// Zero is a valid instant (1970-01-01) so it cannot double as the marker.
const AbsentMillis = int64(math.MinInt64)

// NullMillis is a count of milliseconds since the Unix epoch that may be
// absent.
type NullMillis struct {
	Millis int64
	Valid  bool
}

func Millis(ms int64) NullMillis {
	return NullMillis{Millis: ms, Valid: true}
}

// Value returns the slot value written to disk.
func (n NullMillis) Value() int64 {
	if !n.Valid {
		return AbsentMillis
	}
	return n.Millis
}

type Record struct {
	ID    int32
	Birth NullMillis
	Death NullMillis
	// Absent text is the empty string.
	Text [TextFieldCount]string
}
