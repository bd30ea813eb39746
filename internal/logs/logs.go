package logs

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/smithy-go/logging"
	"github.com/lmittmann/tint"
)

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.Kitchen,
	}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SDKLogger forwards AWS SDK client logging to logger.
func SDKLogger(logger *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		switch classification {
		case logging.Warn:
			logger.Warn(msg, "source", "aws-sdk")
		default:
			logger.Debug(msg, "source", "aws-sdk")
		}
	})
}

// Discard is a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
