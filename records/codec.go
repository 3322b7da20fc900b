package records

import (
	"encoding/binary"
	"strings"
)

/*
Serialized record
┌──────────────────────────────────────────────────────────────┐
| id (4 byte) | birth millis (8 byte) | death millis (8 byte)  |
|──────────────────────────────────────────────────────────────|
| field0 $ field1 $ ... field7 $                               |
└──────────────────────────────────────────────────────────────┘
integers are big endian. inside a field '\' is written as '\\'
and '$' as '\$' so the only bare '$' bytes are terminators.
*/
const FixedFieldsSize = 20

const (
	Delimiter = '$'
	Escape    = '\\'
)

var fieldEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`)

// EncodedLen is the exact length Encode returns for r.
func EncodedLen(r Record) int {
	size := FixedFieldsSize
	for _, f := range r.Text {
		size += len(f) + 1 + strings.Count(f, `\`) + strings.Count(f, `$`)
	}
	return size
}

// Encode serializes r. The output depends only on r.
func Encode(r Record) []byte {
	out := make([]byte, FixedFieldsSize, EncodedLen(r))

	binary.BigEndian.PutUint32(out[0:4], uint32(r.ID))
	binary.BigEndian.PutUint64(out[4:12], uint64(r.Birth.Value()))
	binary.BigEndian.PutUint64(out[12:20], uint64(r.Death.Value()))

	for _, f := range r.Text {
		out = append(out, fieldEscaper.Replace(f)...)
		out = append(out, Delimiter)
	}
	return out
}
