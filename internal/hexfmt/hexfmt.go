// Package hexfmt renders and parses payload bytes the way the harness
// displays them: uppercase hex pairs separated by single spaces.
package hexfmt

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

const digits = "0123456789ABCDEF"

// Encode renders data as spaced uppercase hex:
// []byte{0xDE, 0xAD} -> "DE AD". Empty input yields "".
func Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data)*3 - 1)
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[v>>4])
		b.WriteByte(digits[v&0x0f])
	}
	return b.String()
}

// Decode parses a hex payload as typed by a user: whitespace is
// ignored and digits may be upper or lower case. An odd digit count or
// a non-hex character is an error.
func Decode(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	out, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("hexfmt: %w", err)
	}
	return out, nil
}
