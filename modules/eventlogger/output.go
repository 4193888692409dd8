package eventlogger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GoCodeAlone/folio"
)

// LogEntry is one event as written by an OutputTarget.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	ID        string         `json:"id"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OutputTarget receives log entries.
type OutputTarget interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	WriteEvent(entry *LogEntry) error
}

func NewOutputTarget(cfg *Config, logger folio.Logger) (OutputTarget, error) {
	switch cfg.Output {
	case "logger":
		return &LoggerTarget{logger: logger}, nil
	case "console":
		return &WriterTarget{writer: os.Stdout, format: cfg.Format}, nil
	case "file":
		return &FileTarget{path: cfg.File, format: cfg.Format, logger: logger}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidOutputType, cfg.Output)
}

// LoggerTarget writes entries through the application logger at the
// entry's level.
type LoggerTarget struct {
	logger folio.Logger
}

func (l *LoggerTarget) Start(context.Context) error { return nil }
func (l *LoggerTarget) Stop(context.Context) error  { return nil }

func (l *LoggerTarget) WriteEvent(entry *LogEntry) error {
	args := []any{"type", entry.Type, "source", entry.Source, "id", entry.ID}
	if entry.Data != nil {
		args = append(args, "data", entry.Data)
	}
	switch entry.Level {
	case levelError:
		l.logger.Error("Event", args...)
	case levelWarn:
		l.logger.Warn("Event", args...)
	case levelInfo:
		l.logger.Info("Event", args...)
	default:
		l.logger.Debug("Event", args...)
	}
	return nil
}

// WriterTarget formats entries onto an io.Writer, one per line.
type WriterTarget struct {
	writer io.Writer
	format string
}

func (w *WriterTarget) Start(context.Context) error { return nil }
func (w *WriterTarget) Stop(context.Context) error  { return nil }

func (w *WriterTarget) WriteEvent(entry *LogEntry) error {
	line, err := formatEntry(entry, w.format)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.writer, line); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// FileTarget appends formatted entries to a file opened on Start.
type FileTarget struct {
	path   string
	format string
	logger folio.Logger
	file   *os.File
}

func (f *FileTarget) Start(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(f.path), err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", f.path, err)
	}
	f.file = file
	f.logger.Debug("Event log file opened", "path", f.path)
	return nil
}

func (f *FileTarget) Stop(context.Context) error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

func (f *FileTarget) WriteEvent(entry *LogEntry) error {
	if f.file == nil {
		return ErrFileNotOpen
	}
	line, err := formatEntry(entry, f.format)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f.file, line); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func formatEntry(entry *LogEntry, format string) (string, error) {
	if format == "json" {
		data, err := json.Marshal(entry)
		if err != nil {
			return "", fmt.Errorf("failed to marshal log entry: %w", err)
		}
		return string(data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s [%s] %s", entry.Timestamp.Format(time.RFC3339), strings.ToUpper(entry.Level), entry.Type, entry.Source)
	if fields, ok := entry.Data.(map[string]any); ok {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	} else if entry.Data != nil {
		fmt.Fprintf(&b, " %v", entry.Data)
	}
	return b.String(), nil
}
