package command

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RawPacketSize is the payload carried by each packet following a
// block-write.
const RawPacketSize = 7

type signature struct {
	kind   Kind
	match  func(q []byte) bool
	decode func(q, body []byte) ([]Field, error)
}

// Order matters: first match wins.
var signatures = []signature{
	{kind: KindNmeaSwitch, match: prefix(0x93, 0x01, 0x01), decode: decodeNmeaSwitch},
	{kind: KindIdentification, match: prefix(0x93, 0x0a), decode: decodeIdentification},
	{kind: KindCount, match: all(prefix(0x93, 0x0b, 0x03), byteAt(4, 0x1d)), decode: decodeCount},
	{kind: KindModel, match: prefix(0x93, 0x05, 0x04, 0x00, 0x03, 0x01, 0x9f), decode: decodeModel},
	{kind: KindRead, match: all(prefix(0x93, 0x05, 0x07), byteAt(5, 0x04), byteAt(6, 0x03)), decode: decodeRead},
	{kind: KindWrite, match: all(prefix(0x93, 0x06, 0x07), byteAt(5, 0x04)), decode: decodeWrite},
	{kind: KindTime, match: prefix(0x93, 0x09, 0x03), decode: decodeTime},
	{kind: KindPurge1, match: prefix(0x93, 0x0c, 0x00), decode: decodeModeAt(3)},
	{kind: KindPurge2, match: prefix(0x93, 0x08, 0x02)},
	{kind: KindUnknownWrite1, match: all(prefix(0x93, 0x06, 0x04, 0x00), byteAt(5, 0x01), byteAt(6, 0x06)), decode: decodeModeAt(4)},
	{kind: KindUnknownWrite2, match: all(prefix(0x93, 0x05, 0x04), byteAt(5, 0x01), byteAt(6, 0x05)), decode: decodeSize},
	{kind: KindUnknownWrite3, match: prefix(0x93, 0x0d, 0x07)},
}

// Decode maps a complete query, and the body of the response that closed
// it, onto a Record. Queries no signature matches become KindUnknown.
func Decode(query, body []byte, status int16) Record {
	rec := Record{Kind: KindUnknown, Query: query, Status: status}
	for _, sig := range signatures {
		if !sig.match(query) {
			continue
		}
		rec.Kind = sig.kind
		if sig.decode != nil {
			fields, err := sig.decode(query, body)
			if err != nil {
				rec.Err = err.Error()
			}
			rec.Fields = fields
		}
		return rec
	}
	return rec
}

func prefix(p ...byte) func([]byte) bool {
	return func(q []byte) bool { return bytes.HasPrefix(q, p) }
}

func byteAt(i int, v byte) func([]byte) bool {
	return func(q []byte) bool { return len(q) > i && q[i] == v }
}

func all(preds ...func([]byte) bool) func([]byte) bool {
	return func(q []byte) bool {
		for _, p := range preds {
			if !p(q) {
				return false
			}
		}
		return true
	}
}

func need(kind string, b []byte, n int) error {
	if len(b) < n {
		return fmt.Errorf("%s too short: got %d bytes, need %d", kind, len(b), n)
	}
	return nil
}

func hexField(name string, v uint64, digits int) Field {
	return Field{Name: name, Value: v, Text: fmt.Sprintf("0x%0*x", digits, v)}
}

// pos24 reads the 24-bit big-endian address at q[7:10].
func pos24(q []byte) uint64 {
	return uint64(q[7])<<16 | uint64(binary.BigEndian.Uint16(q[8:10]))
}

func decodeNmeaSwitch(q, _ []byte) ([]Field, error) {
	if err := need("query", q, 4); err != nil {
		return nil, err
	}
	f := Field{Name: "enable", Text: "0"}
	if q[3] == 0x00 {
		f.Value, f.Text = 1, "1"
	}
	return []Field{f}, nil
}

func decodeIdentification(_, b []byte) ([]Field, error) {
	if err := need("response", b, 6); err != nil {
		return nil, err
	}
	serial := binary.LittleEndian.Uint32(b[0:4])
	major, minor := b[4], b[5]
	fields := []Field{
		{Name: "serialNumber", Value: uint64(serial), Text: fmt.Sprintf("%d", serial), Response: true},
		{Name: "firmwareVersion", Value: uint64(major)<<8 | uint64(minor), Text: fmt.Sprintf("%d.%02d", major, minor), Response: true},
	}
	if len(b) >= 10 {
		v := binary.BigEndian.Uint32(b[6:10])
		fields = append(fields, Field{Name: "unknown", Value: uint64(v), Text: fmt.Sprintf("%08x", v), Response: true})
	}
	return fields, nil
}

// decodeCount reads the big-endian count at b[1:3]. Devices that answer with
// only the two count bytes carry it at b[0:2].
func decodeCount(_, b []byte) ([]Field, error) {
	if err := need("response", b, 2); err != nil {
		return nil, err
	}
	off := 0
	if len(b) >= 3 {
		off = 1
	}
	n := binary.BigEndian.Uint16(b[off : off+2])
	return []Field{{Name: "trackPointCount", Value: uint64(n), Text: fmt.Sprintf("%d", n), Response: true}}, nil
}

func decodeModel(_, b []byte) ([]Field, error) {
	if err := need("response", b, 3); err != nil {
		return nil, err
	}
	id := uint64(b[0])<<16 | uint64(binary.BigEndian.Uint16(b[1:3]))
	f := hexField("modelName", id, 6)
	f.Response = true
	if name, ok := modelName(id); ok {
		f.Text += " (" + name + ")"
	}
	return []Field{f}, nil
}

func decodeRead(q, _ []byte) ([]Field, error) {
	if err := need("query", q, 10); err != nil {
		return nil, err
	}
	return []Field{
		hexField("pos", pos24(q), 6),
		hexField("size", uint64(binary.BigEndian.Uint16(q[3:5])), 4),
	}, nil
}

func decodeWrite(q, _ []byte) ([]Field, error) {
	if err := need("query", q, 10); err != nil {
		return nil, err
	}
	return []Field{
		hexField("mode", uint64(q[6]), 2),
		hexField("pos", pos24(q), 6),
		hexField("size", uint64(binary.BigEndian.Uint16(q[3:5])), 4),
	}, nil
}

func decodeTime(q, _ []byte) ([]Field, error) {
	if err := need("query", q, 6); err != nil {
		return nil, err
	}
	h, m, s := q[3], q[4], q[5]
	return []Field{{
		Name:  "time",
		Value: uint64(h)*3600 + uint64(m)*60 + uint64(s),
		Text:  fmt.Sprintf("%02d:%02d:%02d", h, m, s),
	}}, nil
}

func decodeModeAt(i int) func(q, _ []byte) ([]Field, error) {
	return func(q, _ []byte) ([]Field, error) {
		if err := need("query", q, i+1); err != nil {
			return nil, err
		}
		return []Field{hexField("mode", uint64(q[i]), 2)}, nil
	}
}

func decodeSize(q, _ []byte) ([]Field, error) {
	if err := need("query", q, 5); err != nil {
		return nil, err
	}
	return []Field{hexField("size", uint64(binary.BigEndian.Uint16(q[3:5])), 4)}, nil
}
