// Package logger provides context-aware structured logging on top of logrus.
// Library packages log at debug level through G(ctx); binaries configure the
// global logger from the skillet config.
package logger

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jingkaihe/skillet/pkg/config"
)

var (
	// G returns the logger carried by ctx, falling back to L
	G = GetLogger
	// L is the global logger entry
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// WithLogger returns a context carrying the given entry
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// GetLogger returns the entry stored by WithLogger, or L bound to ctx
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	setLoggerFormat(l, "text")
	return l
}

func setLoggerFormat(l *logrus.Logger, format string) {
	switch format {
	case "json":
		l.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
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

// SetLogLevel sets the level of the global logger
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	L.Logger.SetLevel(lvl)
	return nil
}

// SetLogFormat switches the global logger between text and json output
func SetLogFormat(format string) {
	setLoggerFormat(L.Logger, format)
}

// SetLogOutput sets where the global logger writes
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}

// Configure applies the log section of the skillet configuration
func Configure(cfg config.LogConfig) error {
	if cfg.Level != "" {
		if err := SetLogLevel(cfg.Level); err != nil {
			return errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
	}
	switch cfg.Format {
	case "", "text", "json":
		SetLogFormat(cfg.Format)
	default:
		return errors.Errorf("invalid log format %q, expected text or json", cfg.Format)
	}
	return nil
}
