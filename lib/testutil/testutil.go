package testutil

import (
	"database/sql"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	_ "modernc.org/sqlite"
)

// OpenDB opens an in-memory sqlite database that is closed when the test
// ends. If schema is not empty it is applied first.
func OpenDB(t testing.TB, schema string) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a different database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	if schema == "" {
		return db
	}
	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatal(err)
	}
	return db
}

var (
	spanProviderOnce sync.Once
	spanProvider     *sdktrace.TracerProvider
)

// RecordSpans records every span ended while the test runs. The global
// tracer provider is only installed once since tracers obtained before
// it is set stay bound to the first provider.
func RecordSpans(t testing.TB) *tracetest.SpanRecorder {
	spanProviderOnce.Do(func() {
		spanProvider = sdktrace.NewTracerProvider()
		otel.SetTracerProvider(spanProvider)
	})

	recorder := tracetest.NewSpanRecorder()
	spanProvider.RegisterSpanProcessor(recorder)
	t.Cleanup(func() {
		spanProvider.UnregisterSpanProcessor(recorder)
	})
	return recorder
}
