package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/protocol"
)

// Reporter receives pipeline output in trace order.
type Reporter interface {
	Entry(e coalesce.Entry) error
	Warning(u protocol.UnmatchedResponse) error
	// Finish is called once after the last entry of a successful run.
	Finish(s *Summary) error
}

type Options struct {
	QueryWidth int
	ErrorWidth int
	RawWidth   int
	HexDump    bool
	// Color is one of auto, always, never.
	Color string

	PDFTitle string
	PDFQR    bool
}

func DefaultOptions() Options {
	return Options{
		QueryWidth: 15,
		ErrorWidth: 8,
		RawWidth:   7,
		HexDump:    true,
		Color:      "auto",
		PDFTitle:   "Trace decode report",
		PDFQR:      true,
	}
}

var ErrUnknownFormat = errors.New("report: unknown format")

// New builds the reporter for format. Text and JSON write to w as entries
// arrive; PDF renders to path on Finish.
func New(format string, w io.Writer, path string, opts Options) (Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return NewText(w, opts), nil
	case "json", "ndjson":
		return NewJSON(w), nil
	case "pdf":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("report: pdf output needs a file path")
		}
		return NewPDF(path, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// formatChecked is FormatQuery with any checksum failure appended to the text.
func formatChecked(q []byte, width int, check bool) string {
	text, err := protocol.FormatQuery(q, width, check)
	if err != nil {
		return text + " [" + err.Error() + "]"
	}
	return text
}
