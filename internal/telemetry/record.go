package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made against a RecordAPI.
type Report struct {
	Level  string
	Id     string
	Params []any
}

// RecordAPI is an implementation of API that keeps every report in memory,
// it is meant to be used in tests to assert that something was (or wasn't) reported.
type RecordAPI struct {
	lock    sync.Mutex
	reports []Report
}

func (r *RecordAPI) push(level, id string, params []any) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *RecordAPI) ReportBroken(id string, params ...any) {
	r.push("broken", id, params)
}

func (r *RecordAPI) ReportWarning(id string, params ...any) {
	r.push("warning", id, params)
}

func (r *RecordAPI) ReportDebug(msg string, params ...any) {
	r.push("debug", msg, params)
}

func (r *RecordAPI) ReportCount(id string, count int64) {
	r.push("count", id, []any{count})
}

// Reports returns a copy of all reports made so far.
func (r *RecordAPI) Reports() []Report {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Find returns the reports of the given level whose id ends with `suffix`.
func (r *RecordAPI) Find(level, suffix string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Level == level && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
