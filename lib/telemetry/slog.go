package telemetry

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog installs the default logger, debug enables debug level records
// and the http dumps that depend on them.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		AddSource:  debug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}
