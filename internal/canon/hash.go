package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/esrp/kernel/internal/protocol"
)

// Hash returns the lowercase hex SHA-256 digest of v's canonical JSON
// encoding. There is no domain-separation prefix: Hash(v) is exactly
// SHA256(Canonicalize(v)), so the digest is reproducible by any
// conformant implementation given the same value tree.
func Hash(v protocol.Value) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return HashBytes(canonical), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of raw bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FromJSON parses raw JSON bytes into a protocol.Value, translating a
// float rejection into a *Error so callers of this package never need to
// reach into internal/protocol's error taxonomy.
func FromJSON(data []byte) (protocol.Value, error) {
	v, err := protocol.ParseValue(data)
	if err != nil {
		if errors.Is(err, protocol.ErrFloatNotAllowed) {
			return nil, &Error{Code: CodeFloatNotAllowed, Message: "floating point numbers are not allowed in canonical JSON"}
		}
		return nil, fmt.Errorf("canon: parse json: %w", err)
	}
	return v, nil
}

// HashJSON parses raw JSON bytes and returns the canonical SHA-256 digest
// in one call.
func HashJSON(data []byte) (string, error) {
	v, err := FromJSON(data)
	if err != nil {
		return "", err
	}
	return Hash(v)
}

// CanonicalizeJSON parses raw JSON bytes and re-emits them in canonical
// form in one call.
func CanonicalizeJSON(data []byte) ([]byte, error) {
	v, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return Canonicalize(v)
}

// VerifyHash reports whether data's canonical digest equals expected,
// comparing case-insensitively per the protocol's SHA-256 case-handling
// resolution (producers emit lowercase; consumers accept either case).
func VerifyHash(data []byte, expected string) (bool, error) {
	actual, err := HashJSON(data)
	if err != nil {
		return false, err
	}
	return constantTimeEqualFold(actual, expected), nil
}

func constantTimeEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		diff |= ca ^ cb
	}
	return diff == 0
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
