package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"igotu-tracedecode/internal/config"
	"igotu-tracedecode/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "igotu-tracedecode",
		Short: "Decode GPS logger USB serial traces",
		Long: `igotu-tracedecode reconstructs the command/response exchange with a GPS data
logger from a captured serial I/O trace and decodes every command it recognizes.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to YAML config")
	root.AddCommand(newDecodeCmd(), newSummaryCmd(), newNormalizeCmd())
	return root
}

// Execute runs the command tree and exits non-zero on the first error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config, applies the trace flags shared by all
// subcommands and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config load failed: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("dialect") {
		cfg.Trace.Dialect, _ = flags.GetString("dialect")
	}
	if flags.Changed("strict") {
		cfg.Trace.StrictUnmatched, _ = flags.GetBool("strict")
	}
	if flags.Changed("verbose") {
		cfg.Logs.Verbose, _ = flags.GetBool("verbose")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogging points the standard logger at the command's stderr and the
// configured log file. Callers close the returned closer when done.
func setupLogging(cmd *cobra.Command, cfg config.Config) (io.Closer, error) {
	closer, err := logging.Setup(cfg.Logs, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return closer, nil
}

func addTraceFlags(cmd *cobra.Command) {
	cmd.Flags().String("dialect", "auto", "Trace dialect: auto, irp or remote")
	cmd.Flags().Bool("strict", false, "Treat responses without a query as fatal")
	cmd.Flags().BoolP("verbose", "v", false, "Log every reassembled part")
}
