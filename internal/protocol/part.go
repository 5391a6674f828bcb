package protocol

import (
	"errors"
	"fmt"

	"igotu-tracedecode/internal/trace"
)

// Part is a write burst paired with the read burst that followed it.
type Part struct {
	Query    []byte
	Response []byte
	// Line is the trace line of the first write of the burst.
	Line int
}

// UnmatchedResponse describes read bytes that no open query could claim.
type UnmatchedResponse struct {
	Line int
	Data []byte
}

var ErrUnmatchedResponse = errors.New("protocol: response without query")

func (u UnmatchedResponse) Err() error {
	return fmt.Errorf("%w: line %d: % x", ErrUnmatchedResponse, u.Line, u.Data)
}

// Reassembler folds read/write events into Parts. A new write is the only
// boundary signal: everything read since the previous write belongs to it.
type Reassembler struct {
	readBuf   []byte
	readLine  int
	writeBuf  []byte
	writeLine int

	// OnUnmatched, when set, receives reads that are discarded because no
	// non-empty write precedes them.
	OnUnmatched func(UnmatchedResponse)
}

// Push consumes one event and returns the Part it completes, if any.
func (ra *Reassembler) Push(ev trace.Event) (Part, bool) {
	switch ev.Dir {
	case trace.Read:
		if len(ra.readBuf) == 0 {
			ra.readLine = ev.Line
		}
		ra.readBuf = append(ra.readBuf, ev.Data...)
		return Part{}, false
	case trace.Write:
		p, ok := ra.emit()
		if !ok && len(ra.readBuf) > 0 && ra.OnUnmatched != nil {
			ra.OnUnmatched(UnmatchedResponse{Line: ra.readLine, Data: ra.readBuf})
		}
		ra.readBuf = nil
		ra.writeBuf = append([]byte(nil), ev.Data...)
		ra.writeLine = ev.Line
		return p, ok
	default:
		return Part{}, false
	}
}

// Flush returns the trailing Part at the end of the trace.
func (ra *Reassembler) Flush() (Part, bool) {
	p, ok := ra.emit()
	if !ok && len(ra.readBuf) > 0 && ra.OnUnmatched != nil {
		ra.OnUnmatched(UnmatchedResponse{Line: ra.readLine, Data: ra.readBuf})
	}
	ra.readBuf = nil
	ra.writeBuf = nil
	return p, ok
}

func (ra *Reassembler) emit() (Part, bool) {
	if len(ra.writeBuf) == 0 {
		return Part{}, false
	}
	p := Part{Query: ra.writeBuf, Response: ra.readBuf, Line: ra.writeLine}
	ra.writeBuf = nil
	return p, true
}

// Reassemble is the batch form of Reassembler.
func Reassemble(events []trace.Event) []Part {
	var ra Reassembler
	parts := make([]Part, 0, len(events)/2+1)
	for _, ev := range events {
		if p, ok := ra.Push(ev); ok {
			parts = append(parts, p)
		}
	}
	if p, ok := ra.Flush(); ok {
		parts = append(parts, p)
	}
	return parts
}
