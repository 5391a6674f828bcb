package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"igotu-tracedecode/internal/coalesce"
	"igotu-tracedecode/internal/command"
	"igotu-tracedecode/internal/protocol"
)

// PDF collects entries and renders them into a document on Finish.
type PDF struct {
	path     string
	opts     Options
	rows     []pdfRow
	warnings []protocol.UnmatchedResponse
}

type pdfRow struct {
	line   int
	kind   string
	detail string
	status int16
	query  string
}

func NewPDF(path string, opts Options) *PDF {
	return &PDF{path: path, opts: opts}
}

func (p *PDF) Entry(e coalesce.Entry) error {
	row := pdfRow{line: e.Line, kind: e.Kind.String(), status: e.Status}
	switch e.Kind {
	case coalesce.EntryFragment:
		return nil
	case coalesce.EntryError:
		row.query, _ = protocol.FormatQuery(e.Query, p.opts.ErrorWidth, false)
		row.detail = "Query with error"
	case coalesce.EntryRaw:
		row.query = formatChecked(e.Query, p.opts.RawWidth, true)
		row.detail = "Data write " + strings.TrimSpace(HexDump(e.Packet))
	case coalesce.EntryCommand:
		row.query = formatChecked(e.Query, p.opts.QueryWidth, true)
		if e.Record == nil || e.Record.Kind == command.KindUnknown {
			row.detail = "Unknown query"
			break
		}
		parts := append([]string{e.Record.Call()}, e.Record.Results()...)
		if e.Record.Err != "" {
			parts = append(parts, "error: "+e.Record.Err)
		}
		row.detail = strings.Join(parts, "\n")
	}
	p.rows = append(p.rows, row)
	return nil
}

func (p *PDF) Warning(u protocol.UnmatchedResponse) error {
	p.warnings = append(p.warnings, u)
	return nil
}

func (p *PDF) Finish(s *Summary) error {
	if s == nil {
		s = NewSummary()
	}
	title := p.opts.PDFTitle
	if strings.TrimSpace(title) == "" {
		title = "Trace decode report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetCreator("igotu-tracedecode", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	if p.opts.PDFQR && s.Digest != "" {
		png, err := DigestToQR(s.Digest, 256)
		if err != nil {
			return fmt.Errorf("report: qr: %w", err)
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("digest", opt, bytes.NewReader(png))
		pdf.ImageOptions("digest", 165, 15, 30, 30, false, opt, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)

	addSummarySection(pdf, s)
	addKindSection(pdf, s)
	addEntrySection(pdf, p.rows)
	addWarningSection(pdf, p.warnings)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(p.path)
}

func addSummarySection(pdf *gofpdf.Fpdf, s *Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	items := []struct {
		label string
		value string
	}{
		{"Trace", emptyFallback(s.Path, "-")},
		{"SHA-256", emptyFallback(s.Digest, "-")},
		{"Dialect", emptyFallback(s.Dialect, "-")},
		{"Events", strconv.Itoa(s.Events)},
		{"Parts", strconv.Itoa(s.Parts)},
		{"Commands", strconv.Itoa(s.Commands)},
		{"Unknown commands", strconv.Itoa(s.Unknown)},
		{"Raw packets", strconv.Itoa(s.RawPackets)},
		{"Error parts", strconv.Itoa(s.Errors)},
		{"Checksum errors", strconv.Itoa(s.ChecksumErrors)},
		{"Unmatched responses", strconv.Itoa(s.Unmatched)},
	}
	for _, item := range items {
		pdf.CellFormat(45, 6, item.label, "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 6, item.value, "", "L", false)
	}
	pdf.Ln(4)
}

func addKindSection(pdf *gofpdf.Fpdf, s *Summary) {
	kinds := s.SortedKinds()
	if len(kinds) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Commands")
	pdf.Ln(9)

	widths := []float64{80, 25}
	renderHeader(pdf, widths, []string{"Command", "Count"})
	pdf.SetFont("Helvetica", "", 9)
	for _, k := range kinds {
		renderTableRow(pdf, widths, []string{k.String(), strconv.Itoa(s.KindCounts[k])}, 5)
	}
	pdf.Ln(4)
}

func addEntrySection(pdf *gofpdf.Fpdf, rows []pdfRow) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Decoded entries")
	pdf.Ln(9)

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, "No entries decoded.", "", "L", false)
		return
	}

	widths := []float64{14, 18, 76, 14, 58}
	renderHeader(pdf, widths, []string{"Line", "Type", "Detail", "Status", "Query"})
	pdf.SetFont("Courier", "", 7)
	for _, r := range rows {
		renderTableRow(pdf, widths, []string{
			strconv.Itoa(r.line),
			r.kind,
			r.detail,
			strconv.Itoa(int(r.status)),
			r.query,
		}, 3.5)
	}
	pdf.Ln(4)
}

func addWarningSection(pdf *gofpdf.Fpdf, warnings []protocol.UnmatchedResponse) {
	if len(warnings) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Warnings")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 9)
	for _, w := range warnings {
		pdf.MultiCell(0, 5, fmt.Sprintf("Line %d: unmatched response (%d bytes) ignored", w.Line, len(w.Data)), "", "L", false)
	}
}

func renderHeader(pdf *gofpdf.Fpdf, widths []float64, headers []string) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	splitCols := splitRow(pdf, widths, values)
	rowHeight := float64(len(splitCols[0])) * lineHeight
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if yStart+rowHeight > pageHeight-bottom {
		pdf.AddPage()
		xStart, yStart = pdf.GetX(), pdf.GetY()
	}
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

// splitRow wraps every cell to its column width and pads the shorter columns
// so all cells of the row share one height.
func splitRow(pdf *gofpdf.Fpdf, widths []float64, values []string) [][]string {
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		var lines []string
		for _, l := range strings.Split(text, "\n") {
			lines = append(lines, pdf.SplitText(l, widths[i]-2)...)
		}
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	for i, lines := range splitCols {
		// MultiCell drops one trailing newline, so pad with a blank.
		for len(lines) < maxLines {
			lines = append(lines, " ")
		}
		splitCols[i] = lines
	}
	return splitCols
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
