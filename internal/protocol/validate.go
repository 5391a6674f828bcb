package protocol

import (
	"encoding/binary"
	"fmt"
)

// FramingByte starts every device response.
const FramingByte = 0x93

const responseHeaderSize = 3

// DecodedPart is a Part whose response header has been checked and split.
type DecodedPart struct {
	Query []byte
	// Status is the signed header word; negative values are device errors.
	Status int16
	Body   []byte
	Line   int
}

// FramingError means a response is not shaped like a device response at all,
// which implies the trace itself is corrupt.
type FramingError struct {
	Query    []byte
	Response []byte
	Line     int
	Reason   string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("protocol: line %d: %s: query % x, response % x", e.Line, e.Reason, e.Query, e.Response)
}

// Validate checks the response framing and extracts status and body.
func Validate(p Part) (DecodedPart, error) {
	if len(p.Response) < responseHeaderSize {
		return DecodedPart{}, &FramingError{Query: p.Query, Response: p.Response, Line: p.Line, Reason: "response too short"}
	}
	if p.Response[0] != FramingByte {
		return DecodedPart{}, &FramingError{Query: p.Query, Response: p.Response, Line: p.Line, Reason: "unknown response"}
	}
	return DecodedPart{
		Query:  p.Query,
		Status: int16(binary.BigEndian.Uint16(p.Response[1:3])),
		Body:   p.Response[responseHeaderSize:],
		Line:   p.Line,
	}, nil
}
