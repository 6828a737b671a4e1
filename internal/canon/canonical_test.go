package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esrp/kernel/internal/protocol"
)

func TestCanonicalizeBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    protocol.Value
		expected string
	}{
		{"string", protocol.String("hello"), `"hello"`},
		{"empty string", protocol.String(""), `""`},
		{"int", protocol.Int(42), "42"},
		{"negative int", protocol.Int(-100), "-100"},
		{"zero", protocol.Int(0), "0"},
		{"max int64", protocol.Int(9223372036854775807), "9223372036854775807"},
		{"min int64", protocol.Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", protocol.Bool(true), "true"},
		{"bool false", protocol.Bool(false), "false"},
		{"null", protocol.Null{}, "null"},
		{"nil value", nil, "null"},
		{"empty array", protocol.Array{}, "[]"},
		{"empty object", protocol.Object{}, "{}"},
		{"array of ints", protocol.Array{protocol.Int(1), protocol.Int(2), protocol.Int(3)}, "[1,2,3]"},
		{"simple object", protocol.Object{"a": protocol.Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalizeSortedKeysUTF8(t *testing.T) {
	obj := protocol.Object{
		"zebra": protocol.Int(1),
		"alpha": protocol.Int(2),
		"beta":  protocol.Int(3),
	}

	result, err := Canonicalize(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestCanonicalizeNestedSortedKeys(t *testing.T) {
	obj := protocol.Object{
		"z": protocol.Object{
			"b": protocol.Int(1),
			"a": protocol.Int(2),
		},
		"a": protocol.Int(3),
	}

	result, err := Canonicalize(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

// TestCanonicalizeUTF8NotUTF16Ordering is the codec's defining test: keys
// sort by raw UTF-8 byte value. Under RFC 8785's UTF-16 code-unit
// ordering, the surrogate pair for U+10000 (0xD800) would sort before
// U+E000; under UTF-8 byte ordering, U+E000's lead byte (0xEE) sorts
// before U+10000's lead byte (0xF0), so the result is reversed.
func TestCanonicalizeUTF8NotUTF16Ordering(t *testing.T) {
	basic := ""
	supplementary := "\U00010000"

	obj := protocol.Object{
		basic:         protocol.Int(1),
		supplementary: protocol.Int(2),
	}

	result, err := Canonicalize(obj)
	require.NoError(t, err)

	expected := `{"` + basic + `":1,"` + supplementary + `":2}`
	assert.Equal(t, expected, string(result))
}

func TestCanonicalizeNoHTMLEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    protocol.Value
		expected string
	}{
		{"less than", protocol.String("<script>"), `"<script>"`},
		{"greater than", protocol.String("</script>"), `"</script>"`},
		{"ampersand", protocol.String("a & b"), `"a & b"`},
		{"all html chars", protocol.String("<script>alert('xss')</script>"), `"<script>alert('xss')</script>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalizeNullAllowed(t *testing.T) {
	obj := protocol.Object{"empty": protocol.Null{}}
	result, err := Canonicalize(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"empty":null}`, string(result))
}

func TestCanonicalizeStringEscaping(t *testing.T) {
	v := protocol.String("line1\nline2\ttab\"quote\\backslash")
	result, err := Canonicalize(v)
	require.NoError(t, err)
	s := string(result)
	assert.Contains(t, s, `\n`)
	assert.Contains(t, s, `\t`)
	assert.Contains(t, s, `\"`)
	assert.Contains(t, s, `\\`)
}

func TestCanonicalizeUnicodePreservedRaw(t *testing.T) {
	v := protocol.String("Hello 世界 🌍")
	result, err := Canonicalize(v)
	require.NoError(t, err)
	s := string(result)
	assert.Contains(t, s, "世界")
	assert.Contains(t, s, "🌍")
}

func TestCanonicalizeDeterministic(t *testing.T) {
	obj := protocol.Object{"c": protocol.Int(3), "a": protocol.Int(1), "b": protocol.Int(2)}
	c1, err := Canonicalize(obj)
	require.NoError(t, err)
	c2, err := Canonicalize(obj)
	require.NoError(t, err)
	c3, err := Canonicalize(obj)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, c2, c3)
}

func TestFromJSONRejectsFloat(t *testing.T) {
	_, err := FromJSON([]byte(`{"temperature": 0.7}`))
	require.Error(t, err)
	assert.True(t, IsError(err, CodeFloatNotAllowed))
}

func TestFromJSONAcceptsFloatAsString(t *testing.T) {
	result, err := CanonicalizeJSON([]byte(`{"temperature": "0.7"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"temperature":"0.7"}`, string(result))
}

func TestHashBytesKnownVector(t *testing.T) {
	// SHA-256 of the empty string is a well-known constant.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashBytes(nil))
}

func TestHashJSONIsCanonicalHashOfSortedForm(t *testing.T) {
	h1, err := HashJSON([]byte(`{"z":1,"a":2}`))
	require.NoError(t, err)
	h2, err := HashJSON([]byte(`{"a":2,"z":1}`))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestVerifyHashCaseInsensitive(t *testing.T) {
	data := []byte(`{"a":1}`)
	hash, err := HashJSON(data)
	require.NoError(t, err)

	ok, err := VerifyHash(data, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyHash(data, upperHex(hash))
	require.NoError(t, err)
	assert.True(t, ok)
}

func upperHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
