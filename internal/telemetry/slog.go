package telemetry

import (
	"log/slog"
	"strconv"
)

// SlogAPI implements API on the default slog logger.
type SlogAPI struct{}

func (SlogAPI) attrs(id string, params []any) []any {
	out := make([]any, 0, len(params)+1)
	if id != "" {
		out = append(out, slog.String("id", id))
	}
	for i, p := range params {
		key := "params." + strconv.Itoa(i)
		if err, ok := p.(error); ok {
			out = append(out, slog.String(key, err.Error()))
			continue
		}
		out = append(out, slog.Any(key, p))
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", s.attrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", s.attrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, s.attrs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Debug("count", "id", id, "n", count)
}
