package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Trace.Dialect != "auto" || cfg.Report.Format != "text" || cfg.Report.Color != "auto" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Report.QueryWidth != 15 || cfg.Report.ErrorWidth != 8 || cfg.Report.RawWidth != 7 {
		t.Fatalf("widths=%d/%d/%d want 15/8/7", cfg.Report.QueryWidth, cfg.Report.ErrorWidth, cfg.Report.RawWidth)
	}
	if cfg.Report.HexDump == nil || !*cfg.Report.HexDump {
		t.Fatalf("expected hexdump enabled by default")
	}
	if cfg.Report.PDF.QR == nil || !*cfg.Report.PDF.QR {
		t.Fatalf("expected pdf qr enabled by default")
	}
	if cfg.Logs.MaxSizeMB != 25 || cfg.Logs.MaxAgeDays != 7 || cfg.Logs.MaxBackups != 5 {
		t.Fatalf("unexpected log defaults: %+v", cfg.Logs)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
trace:
  dialect: Remote
  strict_unmatched: true
report:
  format: json
  hexdump: false
  query_width: 20
logs:
  file: /tmp/decode.log
  verbose: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Trace.Dialect != "remote" || !cfg.Trace.StrictUnmatched {
		t.Fatalf("trace=%+v", cfg.Trace)
	}
	if cfg.Report.Format != "json" || cfg.Report.QueryWidth != 20 || *cfg.Report.HexDump {
		t.Fatalf("report=%+v", cfg.Report)
	}
	if cfg.Logs.File != "/tmp/decode.log" || !cfg.Logs.Verbose {
		t.Fatalf("logs=%+v", cfg.Logs)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"Dialect", "trace:\n  dialect: usbmon\n", "trace.dialect must be one of auto, irp, remote"},
		{"Format", "report:\n  format: xml\n", "report.format must be one of text, json, pdf"},
		{"PdfNeedsOutput", "report:\n  format: pdf\n", "report.output is required when report.format is 'pdf'"},
		{"Color", "report:\n  color: rainbow\n", "report.color must be one of auto, always, never"},
		{"Width", "report:\n  raw_width: -1\n", "report widths must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg := Default()
	cfg.Report.Format = "pdf"
	requireErrEq(t, cfg.Validate(), "report.output is required when report.format is 'pdf'")
	cfg.Report.Output = "out.pdf"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidate_TabDialectAlias(t *testing.T) {
	cfg := Default()
	cfg.Trace.Dialect = "TAB"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Trace.Dialect != "irp" {
		t.Fatalf("dialect=%q want irp", cfg.Trace.Dialect)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
