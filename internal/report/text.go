package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

// Text writes the line-oriented report.
type Text struct {
	w       *bufio.Writer
	opts    Options
	profile termenv.Profile
}

func NewText(w io.Writer, opts Options) *Text {
	return &Text{w: bufio.NewWriter(w), opts: opts, profile: colorProfile(w, opts.Color)}
}

func colorProfile(w io.Writer, mode string) termenv.Profile {
	switch strings.ToLower(mode) {
	case "always":
		if p := termenv.EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.ANSI
	case "never":
		return termenv.Ascii
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

func (t *Text) style(s, color string) string {
	return t.profile.String(s).Foreground(t.profile.Color(color)).String()
}

func (t *Text) Entry(e coalesce.Entry) error {
	switch e.Kind {
	case coalesce.EntryError:
		q, _ := protocol.FormatQuery(e.Query, t.opts.ErrorWidth, false)
		fmt.Fprintf(t.w, "%s %s\n", t.style("Query with error:", "1"), q)
	case coalesce.EntryRaw:
		fmt.Fprintf(t.w, "Data write: (%s, returned %d)\n", formatChecked(e.Query, t.opts.RawWidth, true), e.Status)
		t.w.WriteString(HexDump(e.Packet))
	case coalesce.EntryCommand:
		t.command(e)
	}
	if t.opts.HexDump && len(e.Body) > 0 {
		t.w.WriteString(HexDump(e.Body))
	}
	return t.w.Flush()
}

func (t *Text) command(e coalesce.Entry) {
	q := formatChecked(e.Query, t.opts.QueryWidth, true)
	rec := e.Record
	if rec == nil || rec.Kind == command.KindUnknown {
		fmt.Fprintf(t.w, "%s %s, returned %d\n", t.style("Unknown query:", "3"), q, e.Status)
	} else {
		fmt.Fprintln(t.w, t.style(rec.Call(), "2"))
		for _, r := range rec.Results() {
			fmt.Fprintf(t.w, "  %s\n", r)
		}
		if rec.Err != "" {
			fmt.Fprintf(t.w, "  %s\n", t.style("error: "+rec.Err, "1"))
		}
	}
	fmt.Fprintf(t.w, "  %s, returned %d\n", q, e.Status)
}

func (t *Text) Warning(u protocol.UnmatchedResponse) error {
	fmt.Fprintf(t.w, "%s line %d, %d bytes, ignoring\n", t.style("Unknown response:", "3"), u.Line, len(u.Data))
	return t.w.Flush()
}

func (t *Text) Finish(*Summary) error {
	return t.w.Flush()
}
