package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Writer emits events in the tab-delimited (Irp) dialect, so that any trace
// can be normalized into the form the filter driver produces.
type Writer struct {
	c      io.Closer
	w      *bufio.Writer
	seq    int
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	ww := NewWriter(f)
	ww.c = f
	return ww, nil
}

func (ww *Writer) WriteEvent(ev Event) error {
	if ww.closed {
		return errors.New("trace writer is closed")
	}
	op := opRead
	if ev.Dir == Write {
		op = opWrite
	}
	ww.seq++
	_, err := fmt.Fprintf(ww.w, "%d\t%d\tigotu\t%s\tSerial0\tSUCCESS\t%s\n",
		ww.seq, ev.Line, op, EncodePayload(ev.Data))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		if ww.c != nil {
			_ = ww.c.Close()
		}
		return err
	}
	if ww.c != nil {
		return ww.c.Close()
	}
	return nil
}
