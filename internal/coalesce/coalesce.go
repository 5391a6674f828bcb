package coalesce

import (
	"fmt"

	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

// Every command is sent as two write bursts, each answered separately. The
// Coalescer pairs those bursts back into one query, and diverts the raw
// payload packets that follow a block-write before they can be mistaken for
// commands.

type State int

const (
	Idle State = iota
	AwaitingFragment
	ConsumingRaw
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFragment:
		return "awaiting-fragment"
	case ConsumingRaw:
		return "consuming-raw"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type EntryKind int

const (
	// EntryFragment is the first half of a command; it only carries a body.
	EntryFragment EntryKind = iota
	EntryError
	EntryRaw
	EntryCommand
)

func (k EntryKind) String() string {
	switch k {
	case EntryFragment:
		return "fragment"
	case EntryError:
		return "error"
	case EntryRaw:
		return "raw"
	case EntryCommand:
		return "command"
	default:
		return fmt.Sprintf("entry(%d)", int(k))
	}
}

// Entry is the output for one DecodedPart.
type Entry struct {
	Kind EntryKind
	// Query is the failed query (EntryError), the full query of the raw
	// packet (EntryRaw), or the merged query (EntryCommand).
	Query  []byte
	Status int16
	// Packet is the 7-byte payload of an EntryRaw.
	Packet []byte
	Record *command.Record
	// Body is the response body of the part, dumped next to the entry.
	Body []byte
	Line int
}

// Coalescer owns the pending fragment and the raw packet countdown.
type Coalescer struct {
	state        State
	pending      []byte
	rawRemaining int
}

func New() *Coalescer {
	return &Coalescer{}
}

func (c *Coalescer) State() State {
	return c.state
}

// RawRemaining is the number of raw packets still expected.
func (c *Coalescer) RawRemaining() int {
	return c.rawRemaining
}

// Step consumes one part. Device errors come first and drop any pending
// fragment; an outstanding raw countdown comes before fragment pairing.
func (c *Coalescer) Step(dp protocol.DecodedPart) Entry {
	e := Entry{Status: dp.Status, Body: dp.Body, Line: dp.Line}

	switch {
	case dp.Status < 0:
		e.Kind = EntryError
		e.Query = dp.Query
		c.pending = nil
		if c.state == AwaitingFragment {
			c.state = Idle
		}

	case c.state == ConsumingRaw:
		e.Kind = EntryRaw
		e.Query = dp.Query
		e.Packet = dp.Query
		if len(e.Packet) > command.RawPacketSize {
			e.Packet = e.Packet[:command.RawPacketSize]
		}
		c.rawRemaining--
		if c.rawRemaining <= 0 {
			c.rawRemaining = 0
			c.state = Idle
		}

	case c.state == Idle:
		e.Kind = EntryFragment
		c.pending = dp.Query
		c.state = AwaitingFragment

	default:
		full := make([]byte, 0, len(c.pending)+len(dp.Query))
		full = append(full, c.pending...)
		full = append(full, dp.Query...)
		c.pending = nil
		c.state = Idle

		rec := command.Decode(full, dp.Body, dp.Status)
		e.Kind = EntryCommand
		e.Query = full
		e.Record = &rec
		if n := rec.RawPackets(); n > 0 {
			c.rawRemaining = n
			c.state = ConsumingRaw
		}
	}
	return e
}
