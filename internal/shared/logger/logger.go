package logger

import (
	"io"
	"log/slog"
	"strings"

	charmLog "github.com/charmbracelet/log"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	slogmulti "github.com/samber/slog-multi"
)

// New builds the process logger: the configured format on out, plus a JSON
// copy of every error on errOut.
func New(cfg *config.Config, out, errOut io.Writer) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)

	format := cfg.LogFormat
	if format == config.LogFormatText && cfg.IsDevelopment() {
		format = config.LogFormatCharm
	}

	var primary slog.Handler
	switch format {
	case config.LogFormatJson:
		primary = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case config.LogFormatCharm:
		primary = charmLog.NewWithOptions(out, charmLog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			ReportCaller:    cfg.IsDevelopment(),
			Formatter:       charmLog.TextFormatter,
		})
	default:
		primary = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	errHandler := slog.NewJSONHandler(errOut, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(slogmulti.Fanout(primary, errHandler))
}

// ParseLevel maps a config level name to slog; unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}
