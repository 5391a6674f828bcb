package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Log dialects.
//
// Irp (tab-delimited, from the kernel filter driver): one line per IRP.
// Column 3 names the operation, column 6 carries the payload text:
//
//	12\t0.0012\tapp.exe\tIRP_MJ_WRITE\tSerial0\tSUCCESS\tLength 15: 93 0A 00 ...
//
// Remote (paired lines, from the remote debugging log): the first line of the
// file starts with '[' and is a header. Afterwards every record spans two
// lines separated into columns by double spaces. Column 3 of the first line
// names the operation. The payload is column 3 of the second line, or column 5
// of the first line when the second line has fewer than four columns.

type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

const (
	opRead  = "IRP_MJ_READ"
	opWrite = "IRP_MJ_WRITE"
)

// Event is one logged read or write.
type Event struct {
	Dir  Direction
	Data []byte
	// Line is the 1-based line number the payload was taken from.
	Line int
}

type Dialect int

const (
	DialectAuto Dialect = iota
	DialectIrp
	DialectRemote
)

func (d Dialect) String() string {
	switch d {
	case DialectAuto:
		return "auto"
	case DialectIrp:
		return "irp"
	case DialectRemote:
		return "remote"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

var ErrUnknownDialect = errors.New("trace: unknown dialect")

// ParseDialect maps a config/flag value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DialectAuto, nil
	case "irp", "tab":
		return DialectIrp, nil
	case "remote":
		return DialectRemote, nil
	default:
		return DialectAuto, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
}

// DetectDialect picks the dialect from the first line of a trace.
func DetectDialect(firstLine string) Dialect {
	if strings.HasPrefix(firstLine, "[") {
		return DialectRemote
	}
	return DialectIrp
}

// Reader streams Events out of a trace in file order.
type Reader struct {
	s       *bufio.Scanner
	dialect Dialect
	line    int
	started bool

	// Remote dialect: columns of the pending command line.
	cmdTokens []string
	cmdLine   int
}

// NewReader returns a Reader. With DialectAuto the dialect is decided by the
// first line.
func NewReader(r io.Reader, dialect Dialect) *Reader {
	s := bufio.NewScanner(r)
	// Allow reasonably large bulk reads.
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{s: s, dialect: dialect}
}

// Dialect returns the dialect in use. It is only final after the first call
// to Next when the Reader was created with DialectAuto.
func (rr *Reader) Dialect() Dialect {
	return rr.dialect
}

// Next returns the next read/write event, or io.EOF at the end of the trace.
// Lines for other operations and lines with too few columns are skipped.
func (rr *Reader) Next() (Event, error) {
	for rr.s.Scan() {
		rr.line++
		line := rr.s.Text()

		if !rr.started {
			rr.started = true
			if rr.dialect == DialectAuto {
				rr.dialect = DetectDialect(line)
			}
			if rr.dialect == DialectRemote && strings.HasPrefix(line, "[") {
				continue
			}
		}

		var (
			op   string
			text string
			ok   bool
		)
		if rr.dialect == DialectRemote {
			op, text, ok = rr.remoteLine(line)
		} else {
			op, text, ok = irpLine(line)
		}
		if !ok {
			continue
		}

		var dir Direction
		switch op {
		case opRead:
			dir = Read
		case opWrite:
			dir = Write
		default:
			continue
		}

		b, err := DecodePayload(text)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Line = rr.line
			}
			return Event{}, err
		}
		return Event{Dir: dir, Data: b, Line: rr.line}, nil
	}
	if err := rr.s.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// ReadAll drains the Reader.
func (rr *Reader) ReadAll() ([]Event, error) {
	evs := make([]Event, 0, 1024)
	for {
		ev, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return evs, nil
		}
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
}

func irpLine(line string) (op string, text string, ok bool) {
	tokens := strings.Split(line, "\t")
	if len(tokens) < 7 {
		return "", "", false
	}
	return tokens[3], strings.TrimRight(tokens[6], " \r\n"), true
}

// remoteLine consumes one line of the paired-line dialect. It reports ok only
// on the second line of a pair.
func (rr *Reader) remoteLine(line string) (op string, text string, ok bool) {
	tokens := strings.Split(strings.TrimRight(line, " \t\r\n"), "  ")
	if rr.cmdTokens == nil {
		if len(tokens) < 4 {
			return "", "", false
		}
		rr.cmdTokens = tokens
		rr.cmdLine = rr.line
		return "", "", false
	}

	cmd := rr.cmdTokens
	rr.cmdTokens = nil
	switch {
	case len(tokens) >= 4:
		text = tokens[3]
	case len(cmd) > 5:
		text = cmd[5]
	}
	return cmd[3], text, true
}
