// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tandemhq/tandem/internal/config"
)

// New builds a logger from cfg. Console output goes to stderr so command
// results on stdout stay clean; an optional rotated file receives the
// same events as JSON. The standard library logger is redirected into
// the returned logger.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	levelStr := strings.ToLower(cfg.Level)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	writers := []io.Writer{
		strategyForFormat(cfg.Format).CreateWriter(os.Stderr),
	}
	if cfg.File != "" {
		fileWriter, err := newFileWriter(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, fileWriter)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}
