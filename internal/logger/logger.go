// Package logger provides the logrus-backed diagnostic logger shared by the
// index engine and the CLI. User-facing output goes through cmd's print
// helpers instead.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// G returns the logger bound to ctx.
	G = GetLogger
	// L is the process-wide fallback logger.
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// WithLogger binds entry to ctx.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// GetLogger returns the logger bound to ctx, or L.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return L
	}
	if e, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return e
	}
	return L.WithContext(ctx)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	setFormat(l, "text")
	return l
}

func setFormat(l *logrus.Logger, format string) {
	switch format {
	case "json":
		l.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		l.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// Configure applies a level ("debug", "info", ...) and a format ("text" or
// "json") to the global logger. An empty level keeps the current one.
func Configure(level, format string) error {
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		L.Logger.SetLevel(lvl)
	}
	if format != "" {
		setFormat(L.Logger, format)
	}
	return nil
}

// SetOutput redirects the global logger.
func SetOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}
