package telemetry

// API is how components report problems and counters. Tests swap in a
// RecordAPI to assert on what was reported.
type API interface {
	// ReportBroken reports a failure someone should look at.
	//
	// `id` names the reporting component as `<struct>.<method>` in lowercase
	// with dashes, e.g. `client.verify-document`. Details go in params.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that the workflow could
	// continue past (e.g. a fabricated member), same `id` rules.
	ReportWarning(id string, params ...any)

	// ReportDebug is dropped unless debug logging is on.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a point-in-time count, not a delta.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with `<namespace>:`.
type ScopedAPI struct {
	prefix string
	inner  API
}

// NewScopedAPI scopes inner under namespace. Scoping an already scoped API
// appends to its prefix instead of wrapping it again.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{prefix: scoped.prefix + namespace + ":", inner: scoped.inner}
	}
	return ScopedAPI{prefix: namespace + ":", inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.prefix+id, params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.prefix+id, params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.prefix+msg, params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.prefix+id, count)
}
