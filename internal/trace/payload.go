package trace

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var lengthMarker = regexp.MustCompile(`Length \d+:`)

// DecodeError reports payload text that is not a valid hex byte run.
type DecodeError struct {
	Line int
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("trace: line %d: invalid payload %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("trace: invalid payload %q: %v", e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodePayload strips the optional "Length N:" marker and all whitespace,
// then parses the remainder as hex byte pairs.
func DecodePayload(text string) ([]byte, error) {
	stripped := lengthMarker.ReplaceAllString(text, "")
	stripped = strings.Join(strings.Fields(stripped), "")
	b, err := hex.DecodeString(stripped)
	if err != nil {
		return nil, &DecodeError{Text: text, Err: err}
	}
	return b, nil
}

// EncodePayload renders b the way the filter driver logs it:
// "Length N: 93 0A 00 ...".
func EncodePayload(b []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Length %d:", len(b))
	for _, v := range b {
		fmt.Fprintf(&sb, " %02X", v)
	}
	return sb.String()
}
