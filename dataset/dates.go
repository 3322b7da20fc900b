package dataset

import (
	"fmt"
	"strings"
	"time"

	"heap-loader/records"
)

var (
	ErrUnknownDateFormat = fmt.Errorf("unknown date format")
	ErrUnparsableDate    = fmt.Errorf("unparsable date")
)

const (
	isoDateLayout   = "2006-1-2"
	slashDateLayout = "2/1/2006"
)

// ParseDate turns a dataset date cell into milliseconds since the epoch
// (UTC midnight). Cells come in a handful of shapes:
//
//	{1770-12-16|1770-12-17}   list, first entry wins
//	NULL, --06-15             no usable date, absent
//	1770-12-16T00:00:00Z      date part only
//	1770-12-16, 16/12/1770
//
// Anything else is absent plus an error describing why.
func ParseDate(s string) (records.NullMillis, error) {
	s = strings.TrimSpace(s)

	if strings.Contains(s, "{") {
		s = strings.TrimPrefix(s, "{")
		if end := strings.LastIndex(s, "}"); end >= 0 {
			s = s[:end]
		}
		s, _, _ = strings.Cut(s, "|")
	}

	var layout string
	switch {
	case s == "" || s == "NULL" || strings.Contains(s, "--"):
		return records.NullMillis{}, nil
	case strings.ContainsAny(s, "T:"):
		s, _, _ = strings.Cut(s, "T")
		s, _, _ = strings.Cut(s, " ")
		layout = isoDateLayout
	case strings.Contains(s, "-"):
		layout = isoDateLayout
	case strings.Contains(s, "/"):
		layout = slashDateLayout
	default:
		return records.NullMillis{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, s)
	}

	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return records.NullMillis{}, fmt.Errorf("%w: %q: %v", ErrUnparsableDate, s, err)
	}
	return records.Millis(t.UnixMilli()), nil
}
