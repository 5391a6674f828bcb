package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"igotu-tracedecode/internal/config"
)

// Setup points the standard logger at stderr and, when a log file is
// configured, a size-rotated copy of it. The returned closer releases the
// log file.
func Setup(cfg config.LogsConfig, stderr io.Writer) (io.Closer, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[igotu-tracedecode] ")

	if cfg.File == "" {
		log.SetOutput(stderr)
		return nopCloser{}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(stderr, rotator))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
