package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/protocol"
	"igotu-tracedecode/internal/report"
	"igotu-tracedecode/internal/trace"
)

type Options struct {
	Dialect trace.Dialect
	// StrictUnmatched turns an unmatched response into a fatal error.
	StrictUnmatched bool
	// Verbose logs every reassembled part.
	Verbose bool
}

// run holds the per-trace state of one pass. Each stage owns its own state;
// run only moves values between them.
type run struct {
	opts    Options
	rep     report.Reporter
	summary *report.Summary
	co      *coalesce.Coalescer
	err     error
}

// Run decodes one trace in a single forward pass. It stops at the first
// fatal error (malformed payload text or a framing violation), after the
// reporter has seen every entry before it.
func Run(r io.Reader, opts Options, rep report.Reporter) (*report.Summary, error) {
	if rep == nil {
		return nil, errors.New("pipeline: reporter is nil")
	}
	st := &run{opts: opts, rep: rep, summary: report.NewSummary(), co: coalesce.New()}

	reader := trace.NewReader(r, opts.Dialect)
	ra := protocol.Reassembler{OnUnmatched: st.unmatched}

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st.summary, err
		}
		st.summary.Events++
		if p, ok := ra.Push(ev); ok {
			if err := st.part(p); err != nil {
				return st.summary, err
			}
		}
		if st.err != nil {
			return st.summary, st.err
		}
	}
	if p, ok := ra.Flush(); ok {
		if err := st.part(p); err != nil {
			return st.summary, err
		}
	}
	if st.err != nil {
		return st.summary, st.err
	}

	st.summary.Dialect = reader.Dialect().String()
	return st.summary, nil
}

// RunFile runs the pipeline over the trace at path, recording the path and
// its SHA-256 in the summary before handing it to the reporter's Finish.
func RunFile(path string, opts Options, rep report.Reporter) (*report.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	s, err := Run(io.TeeReader(f, h), opts, rep)
	if err != nil {
		return s, err
	}
	// Drain whatever the scanner left unread so the digest covers the file.
	if _, err := io.Copy(h, f); err != nil {
		return s, err
	}
	s.Path = path
	s.Digest = hex.EncodeToString(h.Sum(nil))
	if err := rep.Finish(s); err != nil {
		return s, fmt.Errorf("report: %w", err)
	}
	return s, nil
}

// Decode is Run followed by the reporter's Finish, for callers without a
// file path.
func Decode(r io.Reader, opts Options, rep report.Reporter) (*report.Summary, error) {
	s, err := Run(r, opts, rep)
	if err != nil {
		return s, err
	}
	if err := rep.Finish(s); err != nil {
		return s, fmt.Errorf("report: %w", err)
	}
	return s, nil
}

func (st *run) part(p protocol.Part) error {
	if st.opts.Verbose {
		log.Printf("part line=%d query=%x response=%x", p.Line, p.Query, p.Response)
	}
	dp, err := protocol.Validate(p)
	if err != nil {
		return err
	}
	e := st.co.Step(dp)
	st.summary.Add(e)
	return st.rep.Entry(e)
}

func (st *run) unmatched(u protocol.UnmatchedResponse) {
	log.Printf("warning: unmatched response line=%d bytes=%d", u.Line, len(u.Data))
	st.summary.AddUnmatched(u)
	if err := st.rep.Warning(u); err != nil && st.err == nil {
		st.err = err
	}
	if st.opts.StrictUnmatched && st.err == nil {
		st.err = u.Err()
	}
}
