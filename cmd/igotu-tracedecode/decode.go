package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"igotu-tracedecode/internal/config"
	"igotu-tracedecode/internal/pipeline"
	"igotu-tracedecode/internal/report"
	"igotu-tracedecode/internal/trace"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode TRACE",
		Short: "Decode every command in a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyReportFlags(cmd, &cfg); err != nil {
				return err
			}
			closer, err := setupLogging(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			return runDecode(cfg, args[0], cmd.OutOrStdout())
		},
	}
	addTraceFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Report format: text, json or pdf")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("color", "auto", "Color text output: auto, always or never")
	cmd.Flags().Bool("no-hexdump", false, "Omit response hex dumps")
	return cmd
}

func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Report.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		cfg.Report.Output, _ = flags.GetString("output")
	}
	if flags.Changed("color") {
		cfg.Report.Color, _ = flags.GetString("color")
	}
	if flags.Changed("no-hexdump") {
		off, _ := flags.GetBool("no-hexdump")
		on := !off
		cfg.Report.HexDump = &on
	}
	return cfg.Validate()
}

func reportOptions(cfg config.Config) report.Options {
	opts := report.DefaultOptions()
	opts.QueryWidth = cfg.Report.QueryWidth
	opts.ErrorWidth = cfg.Report.ErrorWidth
	opts.RawWidth = cfg.Report.RawWidth
	opts.Color = cfg.Report.Color
	opts.PDFTitle = cfg.Report.PDF.Title
	if cfg.Report.HexDump != nil {
		opts.HexDump = *cfg.Report.HexDump
	}
	if cfg.Report.PDF.QR != nil {
		opts.PDFQR = *cfg.Report.PDF.QR
	}
	return opts
}

func pipelineOptions(cfg config.Config) (pipeline.Options, error) {
	dialect, err := trace.ParseDialect(cfg.Trace.Dialect)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Dialect:         dialect,
		StrictUnmatched: cfg.Trace.StrictUnmatched,
		Verbose:         cfg.Logs.Verbose,
	}, nil
}

func runDecode(cfg config.Config, path string, stdout io.Writer) error {
	popts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	out := stdout
	if cfg.Report.Output != "" && cfg.Report.Format != "pdf" {
		f, err := os.Create(cfg.Report.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	rep, err := report.New(cfg.Report.Format, out, cfg.Report.Output, reportOptions(cfg))
	if err != nil {
		return err
	}

	log.Printf("decoding path=%s dialect=%s format=%s", path, cfg.Trace.Dialect, cfg.Report.Format)
	s, err := pipeline.RunFile(path, popts, rep)
	if err != nil {
		return err
	}
	log.Printf("decoded parts=%d commands=%d unknown=%d raw=%d errors=%d unmatched=%d",
		s.Parts, s.Commands, s.Unknown, s.RawPackets, s.Errors, s.Unmatched)
	return nil
}
