// Package canon implements the ESRP canonical JSON codec: a deterministic
// byte encoding of a protocol.Value tree, used as the sole input to
// content-addressed hashing anywhere the protocol needs a stable digest
// (payload fingerprints, artifact verification, conformance fixtures).
//
// Canonical JSON differs from ordinary json.Marshal output in three ways:
// object keys are sorted by UTF-8 byte order, no whitespace is emitted, and
// floating point numbers are rejected outright rather than silently
// rounded. Unlike RFC 8785, canonical JSON here sorts by raw UTF-8 bytes
// (not UTF-16 code units) and performs no Unicode normalization — the
// bytes a caller sent are the bytes that get hashed.
package canon

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/esrp/kernel/internal/protocol"
)

// Canonicalize serializes v to canonical JSON bytes. It is the only
// serialization that should feed a content-addressed hash.
func Canonicalize(v protocol.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v protocol.Value) error {
	switch val := v.(type) {
	case nil, protocol.Null:
		buf.WriteString("null")
		return nil
	case protocol.String:
		writeString(buf, string(val))
		return nil
	case protocol.Int:
		fmt.Fprintf(buf, "%d", int64(val))
		return nil
	case protocol.Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case protocol.Array:
		return writeArray(buf, val)
	case protocol.Object:
		return writeObject(buf, val)
	default:
		return &Error{Code: CodeMalformedValue, Message: fmt.Sprintf("unsupported value type %T", v)}
	}
}

func writeArray(buf *bytes.Buffer, arr protocol.Array) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, obj protocol.Object) error {
	buf.WriteByte('{')

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Sort(byUTF8Bytes(keys))

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		if err := writeValue(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// byUTF8Bytes sorts strings by their raw UTF-8 byte sequence. Go's native
// string comparison (`<`) already compares byte-by-byte, so this is
// equivalent to sort.Strings — spelled out explicitly because it is a
// normative rule of the codec, not an implementation detail.
type byUTF8Bytes []string

func (b byUTF8Bytes) Len() int           { return len(b) }
func (b byUTF8Bytes) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b byUTF8Bytes) Less(i, j int) bool { return b[i] < b[j] }

// writeString escapes a string for canonical JSON: quote, backslash, and
// the three named control escapes get their short form; every other
// control character becomes \u00XX; everything else is copied through as
// raw UTF-8 bytes. No HTML escaping, no Unicode normalization.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
