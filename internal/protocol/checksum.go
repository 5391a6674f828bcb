package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// ChecksumError reports a query whose bytes do not sum to zero. It is only
// ever shown next to the formatted query.
type ChecksumError struct {
	Sum byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum 0x%02x != 0", e.Sum)
}

// Checksum returns the byte sum of b modulo 256. A well-formed query ends in
// the byte that brings this to zero.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// FormatQuery renders a query as lowercase hex for display. With check set the
// trailing checksum byte is verified and dropped. Trailing zero padding is
// stripped, then the result is padded back to width bytes when width > 0.
//
// The text is always returned; a checksum mismatch comes back as a
// *ChecksumError next to it.
func FormatQuery(query []byte, width int, check bool) (string, error) {
	var err error
	if check && len(query) > 0 {
		if sum := Checksum(query); sum != 0 {
			err = &ChecksumError{Sum: sum}
		}
		query = query[:len(query)-1]
	}
	stripped := bytes.TrimRight(query, "\x00")
	if width > 0 && len(stripped) < width {
		padded := make([]byte, width)
		copy(padded, stripped)
		stripped = padded
	}
	return hex.EncodeToString(stripped), err
}
