package coalesce

import (
	"bytes"
	"reflect"
	"testing"

	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

func query(b ...byte) []byte {
	q := make([]byte, 16)
	copy(q, b)
	q[15] = -protocol.Checksum(q[:15])
	return q
}

func part(q []byte, status int16, body ...byte) protocol.DecodedPart {
	return protocol.DecodedPart{Query: q, Status: status, Body: body}
}

func TestStep_PairsFragments(t *testing.T) {
	q := query(0x93, 0x0b, 0x03, 0x00, 0x1d)
	c := New()

	e := c.Step(part(q[:8], 0))
	if e.Kind != EntryFragment || e.Record != nil {
		t.Fatalf("first half: %+v", e)
	}
	if c.State() != AwaitingFragment {
		t.Fatalf("state=%s want awaiting-fragment", c.State())
	}

	e = c.Step(part(q[8:], 2, 0x00, 0x2a))
	if e.Kind != EntryCommand {
		t.Fatalf("kind=%s want command", e.Kind)
	}
	if e.Record.Kind != command.KindCount {
		t.Fatalf("record kind=%s want %s", e.Record.Kind, command.KindCount)
	}
	if f, _ := e.Record.Field("trackPointCount"); f.Value != 42 {
		t.Fatalf("count=%d want 42", f.Value)
	}
	if !bytes.Equal(e.Query, q) {
		t.Fatalf("query=% x want % x", e.Query, q)
	}
	if c.State() != Idle {
		t.Fatalf("state=%s want idle", c.State())
	}
}

func TestStep_SplitPointDoesNotChangeDecode(t *testing.T) {
	q := query(0x93, 0x06, 0x07, 0x00, 0x20, 0x04, 0x01, 0x03, 0x40, 0x00)
	body := []byte{0x01}
	want := command.Decode(q, body, 0)
	for k := 1; k < len(q); k++ {
		c := New()
		c.Step(part(q[:k], 0))
		e := c.Step(part(q[k:], 0, body...))
		if e.Kind != EntryCommand {
			t.Fatalf("k=%d kind=%s want command", k, e.Kind)
		}
		if !reflect.DeepEqual(*e.Record, want) {
			t.Fatalf("k=%d record=%+v want %+v", k, *e.Record, want)
		}
	}
}

func TestStep_BlockWriteConsumesRawPackets(t *testing.T) {
	// size 0x0f -> three packets of at most seven bytes.
	wq := query(0x93, 0x06, 0x07, 0x00, 0x0f, 0x04, 0x02, 0x00, 0x10, 0x00)
	c := New()
	c.Step(part(wq[:8], 0))
	e := c.Step(part(wq[8:], 0))
	if e.Record == nil || !e.Record.BlockWrite() {
		t.Fatalf("expected block-write, got %+v", e)
	}
	if c.State() != ConsumingRaw || c.RawRemaining() != 3 {
		t.Fatalf("state=%s remaining=%d", c.State(), c.RawRemaining())
	}

	for i := 0; i < 3; i++ {
		pkt := []byte{byte(i), 1, 2, 3, 4, 5, 6, 0xee}
		e := c.Step(part(pkt, 0))
		if e.Kind != EntryRaw {
			t.Fatalf("packet %d kind=%s want raw", i, e.Kind)
		}
		if !bytes.Equal(e.Packet, pkt[:7]) {
			t.Fatalf("packet %d = % x", i, e.Packet)
		}
		if e.Record != nil {
			t.Fatalf("raw packet reached the decoder")
		}
	}
	if c.State() != Idle || c.RawRemaining() != 0 {
		t.Fatalf("state=%s remaining=%d", c.State(), c.RawRemaining())
	}

	// Back to normal pairing.
	q := query(0x93, 0x0a)
	if e := c.Step(part(q[:8], 0)); e.Kind != EntryFragment {
		t.Fatalf("kind=%s want fragment", e.Kind)
	}
	if e := c.Step(part(q[8:], 0, 1, 0, 0, 0, 1, 2)); e.Kind != EntryCommand || e.Record.Kind != command.KindIdentification {
		t.Fatalf("got %+v", e)
	}
}

func TestStep_ErrorClearsPendingFragment(t *testing.T) {
	c := New()
	c.Step(part([]byte{0x93, 0x0a, 0x00}, 0))
	e := c.Step(part([]byte{0x00, 0x63}, -1))
	if e.Kind != EntryError {
		t.Fatalf("kind=%s want error", e.Kind)
	}
	if c.State() != Idle {
		t.Fatalf("state=%s want idle", c.State())
	}
	if e := c.Step(part([]byte{0x93, 0x0a}, 0)); e.Kind != EntryFragment {
		t.Fatalf("kind=%s want fragment after error", e.Kind)
	}
}

func TestStep_ErrorDoesNotCancelRawCountdown(t *testing.T) {
	wq := query(0x93, 0x06, 0x07, 0x00, 0x07, 0x04, 0x02, 0x00, 0x00, 0x00)
	c := New()
	c.Step(part(wq[:8], 0))
	c.Step(part(wq[8:], 0))
	if c.RawRemaining() != 1 {
		t.Fatalf("remaining=%d want 1", c.RawRemaining())
	}

	if e := c.Step(part([]byte{1, 2, 3}, -5)); e.Kind != EntryError {
		t.Fatalf("kind=%s want error", e.Kind)
	}
	if c.State() != ConsumingRaw || c.RawRemaining() != 1 {
		t.Fatalf("state=%s remaining=%d", c.State(), c.RawRemaining())
	}
	if e := c.Step(part([]byte{1, 2, 3}, 0)); e.Kind != EntryRaw {
		t.Fatalf("kind=%s want raw", e.Kind)
	}
}

func TestStep_ZeroSizeWriteExpectsNoPackets(t *testing.T) {
	wq := query(0x93, 0x06, 0x07, 0x00, 0x00, 0x04, 0x02, 0x00, 0x00, 0x00)
	c := New()
	c.Step(part(wq[:8], 0))
	c.Step(part(wq[8:], 0))
	if c.State() != Idle {
		t.Fatalf("state=%s want idle", c.State())
	}
}

func TestStep_BodyTravelsWithEveryEntry(t *testing.T) {
	c := New()
	e := c.Step(part([]byte{0x93}, 0, 0xaa))
	if !bytes.Equal(e.Body, []byte{0xaa}) {
		t.Fatalf("fragment body=% x", e.Body)
	}
	e = c.Step(part([]byte{0x7f}, -1, 0xbb))
	if !bytes.Equal(e.Body, []byte{0xbb}) {
		t.Fatalf("error body=% x", e.Body)
	}
}
