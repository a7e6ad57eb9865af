package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is canceled on the first SIGINT or SIGTERM so in-flight
// requests can unwind, a second signal exits right away.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		slog.Warn("interrupted, canceling", "signal", sig.String())
		cancel()
		<-sigs
		os.Exit(130)
	}()

	return ctx
}

// Fatal logs message with err and any extra key/value attrs, then exits
// with status 1.
func Fatal(message string, err error, attrs ...any) {
	if err != nil {
		attrs = append([]any{"err", err.Error()}, attrs...)
	}
	slog.Error(message, attrs...)
	os.Exit(1)
}
