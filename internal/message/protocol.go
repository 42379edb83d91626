package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rpitems/internal/codec"
)

// Separator delimits the type tag and every positional field.
const Separator = "^"

// ErrSeparatorInField is returned for a field value that contains Separator;
// it would shift every later positional field.
var ErrSeparatorInField = errors.New("field contains the " + Separator + " separator")

type Type string

const (
	TypeGive      Type = "GIVE"
	TypeTrade     Type = "TRADE"
	TypeShow      Type = "SHOW"
	TypeStatus    Type = "STATUS"
	TypeAccept    Type = "ACCEPT"
	TypeReject    Type = "REJECT"
	TypeResult    Type = "RESULT"
	TypeSyncStart Type = "DB_SYNC_START"
	TypeSyncChunk Type = "DB_SYNC_CHUNK"
	TypeSyncEnd   Type = "DB_SYNC_END"
)

type typeSpec struct {
	fields  int
	encoded bool
}

// Response types are Base64-encoded as a whole; sync frames are not because
// only their payload segment needs it and it is encoded already.
var typeTable = map[Type]typeSpec{
	TypeGive:      {fields: 5},
	TypeTrade:     {fields: 5},
	TypeShow:      {fields: 4},
	TypeStatus:    {fields: 2},
	TypeAccept:    {fields: 2, encoded: true},
	TypeReject:    {fields: 3, encoded: true},
	TypeResult:    {fields: 5, encoded: true},
	TypeSyncStart: {fields: 6},
	TypeSyncChunk: {fields: 4},
	TypeSyncEnd:   {fields: 1},
}

func Known(t Type) bool {
	_, ok := typeTable[t]
	return ok
}

// Encoded reports whether messages of type t travel Base64-encoded.
func Encoded(t Type) bool {
	return typeTable[t].encoded
}

// FieldCount is the number of positional fields after the tag.
func FieldCount(t Type) int {
	return typeTable[t].fields
}

// Build composes a message of type t, encoding it when the type requires.
func Build(t Type, fields ...string) string {
	raw := string(t)
	if len(fields) > 0 {
		raw += Separator + strings.Join(fields, Separator)
	}
	if Encoded(t) {
		return codec.EncodeString(raw)
	}
	return raw
}

// Parse detects whether raw is plain or Base64-encoded and returns its type and
// every field including the leading tag. Empty fields are preserved. When no
// known type is found the first plain field is returned as the type; callers
// check Known before acting on it.
func Parse(raw string) (Type, []string) {
	if t, ok := knownTag(raw); ok {
		return t, Split(raw)
	}
	if codec.LooksEncoded(raw) {
		decoded := codec.DecodeString(raw)
		if t, ok := knownTag(decoded); ok {
			return t, Split(decoded)
		}
	}
	fields := Split(raw)
	return Type(fields[0]), fields
}

// CheckFields rejects values that cannot travel as one positional field.
func CheckFields(fields ...string) error {
	for i, f := range fields {
		if strings.Contains(f, Separator) {
			return fmt.Errorf("field %d %q: %w", i+1, f, ErrSeparatorInField)
		}
	}
	return nil
}

// Split splits s on Separator keeping empty fields.
func Split(s string) []string {
	return strings.Split(s, Separator)
}

func knownTag(s string) (Type, bool) {
	tag, _, _ := strings.Cut(s, Separator)
	t := Type(tag)
	return t, Known(t)
}

// Field returns fields[i] or "" when the message is shorter.
func Field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// IntField parses fields[i] as an integer, returning 0 when absent or invalid.
func IntField(fields []string, i int) int {
	n, err := strconv.Atoi(strings.TrimSpace(Field(fields, i)))
	if err != nil {
		return 0
	}
	return n
}

func int64Field(fields []string, i int) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(Field(fields, i)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
