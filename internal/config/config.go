package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Trace  TraceConfig  `yaml:"trace"`
	Report ReportConfig `yaml:"report"`
	Logs   LogsConfig   `yaml:"logs"`
}

type TraceConfig struct {
	Dialect         string `yaml:"dialect"`
	StrictUnmatched bool   `yaml:"strict_unmatched"`
}

type ReportConfig struct {
	Format     string    `yaml:"format"`
	Output     string    `yaml:"output"`
	Color      string    `yaml:"color"`
	QueryWidth int       `yaml:"query_width"`
	ErrorWidth int       `yaml:"error_width"`
	RawWidth   int       `yaml:"raw_width"`
	HexDump    *bool     `yaml:"hexdump"`
	PDF        PDFConfig `yaml:"pdf"`
}

type PDFConfig struct {
	Title string `yaml:"title"`
	QR    *bool  `yaml:"qr"`
}

type LogsConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
	Verbose    bool   `yaml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	if err := applyDefaults(&cfg); err != nil {
		// Defaults are always valid.
		panic(err)
	}
	return cfg
}

func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate re-checks a config after command-line overrides.
func (c *Config) Validate() error {
	return applyDefaults(c)
}

func applyDefaults(cfg *Config) error {
	cfg.Trace.Dialect = strings.ToLower(strings.TrimSpace(cfg.Trace.Dialect))
	switch cfg.Trace.Dialect {
	case "":
		cfg.Trace.Dialect = "auto"
	case "tab":
		cfg.Trace.Dialect = "irp"
	case "auto", "irp", "remote":
	default:
		return fmt.Errorf("trace.dialect must be one of auto, irp, remote")
	}

	r := &cfg.Report
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	switch r.Format {
	case "":
		r.Format = "text"
	case "text", "json", "pdf":
	default:
		return fmt.Errorf("report.format must be one of text, json, pdf")
	}
	if r.Format == "pdf" && strings.TrimSpace(r.Output) == "" {
		return fmt.Errorf("report.output is required when report.format is 'pdf'")
	}

	r.Color = strings.ToLower(strings.TrimSpace(r.Color))
	switch r.Color {
	case "":
		r.Color = "auto"
	case "auto", "always", "never":
	default:
		return fmt.Errorf("report.color must be one of auto, always, never")
	}

	if r.QueryWidth < 0 || r.ErrorWidth < 0 || r.RawWidth < 0 {
		return fmt.Errorf("report widths must be >= 0")
	}
	if r.QueryWidth == 0 {
		r.QueryWidth = 15
	}
	if r.ErrorWidth == 0 {
		r.ErrorWidth = 8
	}
	if r.RawWidth == 0 {
		r.RawWidth = 7
	}
	if r.HexDump == nil {
		v := true
		r.HexDump = &v
	}
	if r.PDF.Title == "" {
		r.PDF.Title = "Trace decode report"
	}
	if r.PDF.QR == nil {
		v := true
		r.PDF.QR = &v
	}

	l := &cfg.Logs
	if l.MaxSizeMB <= 0 {
		l.MaxSizeMB = 25
	}
	if l.MaxAgeDays <= 0 {
		l.MaxAgeDays = 7
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = 5
	}
	return nil
}
