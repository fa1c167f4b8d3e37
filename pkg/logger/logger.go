// Package logger configures the process-wide logrus instance used by every
// connector and exposes a small ports.Logger adapter scoped to a component.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how log lines are written.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // optional; console-only when empty
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var root = logrus.New()

// Init configures the package-level logrus instance. Safe to call once at
// process startup; subsequent calls replace the output target.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	root.SetLevel(level)
	root.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.OutputFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
	root.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Component returns a ports.Logger scoped to the given component name
// (e.g. "bybit.decoder", "http.pool"); every entry it emits carries a
// "component" field.
func Component(name string) *Entry {
	return &Entry{entry: root.WithField("component", name)}
}

// Entry adapts a *logrus.Entry to ports.Logger's (msg, kv...) signature.
type Entry struct {
	entry *logrus.Entry
}

func (e *Entry) with(kv []any) *logrus.Entry {
	if len(kv) == 0 {
		return e.entry
	}
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return e.entry.WithFields(fields)
}

func (e *Entry) Debug(msg string, kv ...any) { e.with(kv).Debug(msg) }
func (e *Entry) Info(msg string, kv ...any)  { e.with(kv).Info(msg) }
func (e *Entry) Warn(msg string, kv ...any)  { e.with(kv).Warn(msg) }
func (e *Entry) Error(msg string, kv ...any) { e.with(kv).Error(msg) }
