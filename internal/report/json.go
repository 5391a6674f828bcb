package report

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

// JSON writes one object per line.
type JSON struct {
	enc *json.Encoder
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

type jsonEntry struct {
	Type       string          `json:"type"`
	Line       int             `json:"line,omitempty"`
	Name       string          `json:"name,omitempty"`
	Fields     []command.Field `json:"fields,omitempty"`
	Query      string          `json:"query,omitempty"`
	Packet     string          `json:"packet,omitempty"`
	Status     int16           `json:"status"`
	Body       string          `json:"body,omitempty"`
	ChecksumOK *bool           `json:"checksum_ok,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func (j *JSON) Entry(e coalesce.Entry) error {
	out := jsonEntry{
		Type:   e.Kind.String(),
		Line:   e.Line,
		Query:  hex.EncodeToString(e.Query),
		Status: e.Status,
		Body:   hex.EncodeToString(e.Body),
	}
	switch e.Kind {
	case coalesce.EntryRaw:
		out.Packet = hex.EncodeToString(e.Packet)
		ok := !checksumFailed(e.Query)
		out.ChecksumOK = &ok
	case coalesce.EntryCommand:
		ok := !checksumFailed(e.Query)
		out.ChecksumOK = &ok
		if e.Record != nil {
			out.Name = e.Record.Name()
			out.Fields = e.Record.Fields
			out.Error = e.Record.Err
		}
	}
	return j.enc.Encode(out)
}

func (j *JSON) Warning(u protocol.UnmatchedResponse) error {
	return j.enc.Encode(jsonEntry{
		Type:  "unmatched",
		Line:  u.Line,
		Body:  hex.EncodeToString(u.Data),
		Error: protocol.ErrUnmatchedResponse.Error(),
	})
}

type jsonSummary struct {
	Type          string         `json:"type"`
	Path          string         `json:"path,omitempty"`
	SHA256        string         `json:"sha256,omitempty"`
	Dialect       string         `json:"dialect,omitempty"`
	Events        int            `json:"events"`
	Parts         int            `json:"parts"`
	Commands      int            `json:"commands"`
	Unknown       int            `json:"unknown_commands"`
	RawPackets    int            `json:"raw_packets"`
	Errors        int            `json:"error_parts"`
	Checksum      int            `json:"checksum_errors"`
	Short         int            `json:"short_responses"`
	Unmatched     int            `json:"unmatched_responses"`
	CommandCounts map[string]int `json:"command_counts"`
}

func (j *JSON) Finish(s *Summary) error {
	if s == nil {
		return nil
	}
	counts := make(map[string]int, len(s.KindCounts))
	for k, n := range s.KindCounts {
		counts[k.String()] = n
	}
	return j.enc.Encode(jsonSummary{
		Type:          "summary",
		Path:          s.Path,
		SHA256:        s.Digest,
		Dialect:       s.Dialect,
		Events:        s.Events,
		Parts:         s.Parts,
		Commands:      s.Commands,
		Unknown:       s.Unknown,
		RawPackets:    s.RawPackets,
		Errors:        s.Errors,
		Checksum:      s.ChecksumErrors,
		Short:         s.ShortResponses,
		Unmatched:     s.Unmatched,
		CommandCounts: counts,
	})
}
