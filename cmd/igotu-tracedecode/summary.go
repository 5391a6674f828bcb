package main

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"igotu-tracedecode/internal/config"
	"igotu-tracedecode/internal/pipeline"
	"igotu-tracedecode/internal/report"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary TRACE",
		Short: "Print counters for a trace without the per-command report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			closer, err := setupLogging(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			return printTraceSummary(cfg, args[0], cmd.OutOrStdout())
		},
	}
	addTraceFlags(cmd)
	return cmd
}

func printTraceSummary(cfg config.Config, path string, w io.Writer) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	popts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	s, err := pipeline.RunFile(path, popts, report.Nop{})
	if err != nil {
		return err
	}
	log.Printf("summarized path=%s dialect=%s parts=%d commands=%d", path, s.Dialect, s.Parts, s.Commands)
	return report.WriteSummary(w, s)
}
