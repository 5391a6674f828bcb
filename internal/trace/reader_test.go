package trace

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecodePayload(t *testing.T) {
	got, err := DecodePayload("Length 4: 93 0A 00 63")
	if err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if !bytes.Equal(got, []byte{0x93, 0x0a, 0x00, 0x63}) {
		t.Fatalf("got %x", got)
	}

	got, err = DecodePayload("")
	if err != nil {
		t.Fatalf("DecodePayload(empty) error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no bytes, got %x", got)
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	for _, in := range []string{"Length 2: 93 0", "93 ZZ", "Length x: 93"} {
		_, err := DecodePayload(in)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("DecodePayload(%q) err=%v want *DecodeError", in, err)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		{0x93, 0x00, 0x09, 0xff, 0x20, 0x7e},
		bytes.Repeat([]byte{0xab, 0x01}, 300),
	}
	for _, in := range inputs {
		got, err := DecodePayload(EncodePayload(in))
		if err != nil {
			t.Fatalf("DecodePayload() error: %v", err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("round trip %x -> %x", in, got)
		}
	}
}

func TestReader_IrpDialect(t *testing.T) {
	in := strings.Join([]string{
		"1\t0.1\tapp\tIRP_MJ_CREATE\tSerial0\tSUCCESS\t",
		"2\t0.2\tapp\tIRP_MJ_WRITE\tSerial0\tSUCCESS\tLength 3: 93 0A 00",
		"short\tline",
		"3\t0.3\tapp\tIRP_MJ_READ\tSerial0\tSUCCESS\tLength 2: 93 00  ",
		"4\t0.4\tapp\tIOCTL_SERIAL_GET_STATUS\tSerial0\tSUCCESS\t",
	}, "\n")

	rr := NewReader(strings.NewReader(in), DialectAuto)
	evs, err := rr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if rr.Dialect() != DialectIrp {
		t.Fatalf("dialect=%s want irp", rr.Dialect())
	}
	want := []Event{
		{Dir: Write, Data: []byte{0x93, 0x0a, 0x00}, Line: 2},
		{Dir: Read, Data: []byte{0x93, 0x00}, Line: 4},
	}
	if !reflect.DeepEqual(evs, want) {
		t.Fatalf("events=%+v want %+v", evs, want)
	}
}

func TestReader_RemoteDialect(t *testing.T) {
	in := strings.Join([]string{
		"[remote debug log]",
		"0  00:00:01  app  IRP_MJ_WRITE  Serial0",
		"  x  y  93 0A 00",
		"1  00:00:02  app  IRP_MJ_READ  Serial0  93 00 00",
		"",
		"",
	}, "\n")

	rr := NewReader(strings.NewReader(in), DialectAuto)
	evs, err := rr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if rr.Dialect() != DialectRemote {
		t.Fatalf("dialect=%s want remote", rr.Dialect())
	}
	want := []Event{
		{Dir: Write, Data: []byte{0x93, 0x0a, 0x00}, Line: 3},
		{Dir: Read, Data: []byte{0x93, 0x00, 0x00}, Line: 5},
	}
	if !reflect.DeepEqual(evs, want) {
		t.Fatalf("events=%+v want %+v", evs, want)
	}
}

func TestReader_RemoteDialectSkipsShortLines(t *testing.T) {
	in := strings.Join([]string{
		"[remote debug log]",
		"-- capture started --",
		"0  00:00:01  app  IRP_MJ_WRITE  Serial0",
		"  x  y  93 0A 00",
		"1  00:00:02  app  IRP_MJ_READ  Serial0  93 00 00",
		"",
		"",
	}, "\n")

	evs, err := NewReader(strings.NewReader(in), DialectRemote).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	want := []Event{
		{Dir: Write, Data: []byte{0x93, 0x0a, 0x00}, Line: 4},
		{Dir: Read, Data: []byte{0x93, 0x00, 0x00}, Line: 6},
	}
	if !reflect.DeepEqual(evs, want) {
		t.Fatalf("events=%+v want %+v", evs, want)
	}
}

func TestReader_DecodeErrorCarriesLine(t *testing.T) {
	in := "1\t0\tapp\tIRP_MJ_WRITE\tSerial0\tSUCCESS\tLength 1: 9\n"
	_, err := NewReader(strings.NewReader(in), DialectIrp).Next()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err=%v want *DecodeError", err)
	}
	if de.Line != 1 {
		t.Fatalf("line=%d want 1", de.Line)
	}
}

func TestReader_EmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), DialectAuto).Next()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want io.EOF", err)
	}
}

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{"": DialectAuto, "auto": DialectAuto, "IRP": DialectIrp, "remote": DialectRemote}
	for in, want := range cases {
		got, err := ParseDialect(in)
		if err != nil {
			t.Fatalf("ParseDialect(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDialect(%q)=%s want %s", in, got, want)
		}
	}
	if _, err := ParseDialect("usbmon"); !errors.Is(err, ErrUnknownDialect) {
		t.Fatalf("err=%v want ErrUnknownDialect", err)
	}
}

func TestWriter_NormalizesRemoteTrace(t *testing.T) {
	in := strings.Join([]string{
		"[remote debug log]",
		"0  00:00:01  app  IRP_MJ_WRITE  Serial0",
		"  x  y  93 0A 00",
		"1  00:00:02  app  IRP_MJ_READ  Serial0  93 00 00",
		"",
		"",
	}, "\n")
	evs, err := NewReader(strings.NewReader(in), DialectAuto).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.log")
	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	for _, ev := range evs {
		if err := w.WriteEvent(ev); err != nil {
			t.Fatalf("WriteEvent() error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteEvent(evs[0]); err == nil {
		t.Fatalf("expected error writing to closed writer")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer f.Close()
	rr := NewReader(f, DialectAuto)
	got, err := rr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll(normalized) error: %v", err)
	}
	if rr.Dialect() != DialectIrp {
		t.Fatalf("dialect=%s want irp", rr.Dialect())
	}
	if len(got) != len(evs) {
		t.Fatalf("events=%d want %d", len(got), len(evs))
	}
	for i := range evs {
		if got[i].Dir != evs[i].Dir || !bytes.Equal(got[i].Data, evs[i].Data) {
			t.Fatalf("event[%d]=%+v want %+v", i, got[i], evs[i])
		}
	}
}
