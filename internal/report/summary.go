package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

// Summary accumulates run counters. It is best-effort bookkeeping; nothing
// in it gates the pipeline.
type Summary struct {
	Path    string
	Digest  string
	Dialect string

	Events         int
	Parts          int
	Fragments      int
	Commands       int
	Errors         int
	RawPackets     int
	Unknown        int
	ChecksumErrors int
	Unmatched      int
	ShortResponses int

	KindCounts map[command.Kind]int
}

func NewSummary() *Summary {
	return &Summary{KindCounts: map[command.Kind]int{}}
}

// Add counts one coalescer entry.
func (s *Summary) Add(e coalesce.Entry) {
	s.Parts++
	switch e.Kind {
	case coalesce.EntryFragment:
		s.Fragments++
	case coalesce.EntryError:
		s.Errors++
	case coalesce.EntryRaw:
		s.RawPackets++
		if checksumFailed(e.Query) {
			s.ChecksumErrors++
		}
	case coalesce.EntryCommand:
		s.Commands++
		if e.Record == nil {
			return
		}
		s.KindCounts[e.Record.Kind]++
		if e.Record.Kind == command.KindUnknown {
			s.Unknown++
		}
		if e.Record.Err != "" {
			s.ShortResponses++
		}
		if checksumFailed(e.Query) {
			s.ChecksumErrors++
		}
	}
}

func (s *Summary) AddUnmatched(protocol.UnmatchedResponse) {
	s.Unmatched++
}

func checksumFailed(q []byte) bool {
	_, err := protocol.FormatQuery(q, 0, true)
	var ce *protocol.ChecksumError
	return errors.As(err, &ce)
}

// SortedKinds returns the kinds seen, in table order with Unknown last.
func (s *Summary) SortedKinds() []command.Kind {
	kinds := make([]command.Kind, 0, len(s.KindCounts))
	for k := range s.KindCounts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		a, b := kinds[i], kinds[j]
		if a == command.KindUnknown || b == command.KindUnknown {
			return b == command.KindUnknown && a != command.KindUnknown
		}
		return a < b
	})
	return kinds
}

// WriteSummary prints the counters in key: value form.
func WriteSummary(w io.Writer, s *Summary) error {
	lines := []struct {
		key string
		val interface{}
	}{
		{"path", s.Path},
		{"sha256", s.Digest},
		{"dialect", s.Dialect},
		{"events", s.Events},
		{"parts", s.Parts},
		{"fragments", s.Fragments},
		{"commands", s.Commands},
		{"unknown_commands", s.Unknown},
		{"raw_packets", s.RawPackets},
		{"error_parts", s.Errors},
		{"checksum_errors", s.ChecksumErrors},
		{"short_responses", s.ShortResponses},
		{"unmatched_responses", s.Unmatched},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %v\n", l.key, l.val); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "command_counts:\n"); err != nil {
		return err
	}
	for _, k := range s.SortedKinds() {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", k, s.KindCounts[k]); err != nil {
			return err
		}
	}
	return nil
}

// Nop discards entries and warnings; the pipeline still fills the summary.
type Nop struct{}

func (Nop) Entry(coalesce.Entry) error { return nil }
func (Nop) Warning(protocol.UnmatchedResponse) error { return nil }
func (Nop) Finish(*Summary) error { return nil }
