package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"igotu-tracedecode/internal/trace"
)

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize TRACE",
		Short: "Rewrite a trace in the tab-delimited dialect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dialect, err := trace.ParseDialect(cfg.Trace.Dialect)
			if err != nil {
				return err
			}
			closer, err := setupLogging(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			out, _ := cmd.Flags().GetString("output")
			return normalizeTrace(args[0], dialect, out, cmd.OutOrStdout())
		},
	}
	addTraceFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func normalizeTrace(path string, dialect trace.Dialect, outPath string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w *trace.Writer
	if outPath != "" {
		w, err = trace.CreateWriter(outPath)
		if err != nil {
			return err
		}
	} else {
		w = trace.NewWriter(stdout)
	}

	// A failed run must not leave a truncated trace behind.
	fail := func(err error) error {
		_ = w.Close()
		if outPath != "" {
			_ = os.Remove(outPath)
		}
		return err
	}

	rr := trace.NewReader(f, dialect)
	n := 0
	for {
		ev, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}
		if err := w.WriteEvent(ev); err != nil {
			return fail(fmt.Errorf("write event: %w", err))
		}
		n++
	}
	if err := w.Close(); err != nil {
		return fail(err)
	}
	log.Printf("normalized path=%s dialect=%s events=%d", path, rr.Dialect(), n)
	return nil
}
