package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterStrategy builds the final log writer for one output target.
type WriterStrategy interface {
	CreateWriter(out io.Writer) io.Writer
}

// ConsoleWriterStrategy renders human-readable log lines.
type ConsoleWriterStrategy struct {
	NoColor bool
}

// CreateWriter wraps out in a zerolog console writer.
func (s ConsoleWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    s.NoColor,
	}
}

// JSONWriterStrategy emits structured JSON, one event per line.
type JSONWriterStrategy struct{}

// CreateWriter returns out unchanged; zerolog events are already JSON.
func (s JSONWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return out
}

func strategyForFormat(format string) WriterStrategy {
	if strings.EqualFold(format, "json") {
		return JSONWriterStrategy{}
	}
	return ConsoleWriterStrategy{}
}

// newFileWriter opens a size-rotated log file, creating parent
// directories as needed.
func newFileWriter(path string, maxSizeMB, maxBackups int) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		LocalTime:  true,
	}, nil
}
