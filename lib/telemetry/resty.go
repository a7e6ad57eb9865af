package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

var propagator = otel.GetTextMapPropagator()

// bodies past this size are cut off
const maxBodyAttribute = 4096

var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// InstrumentResty wraps every request made by the client in a client span
// carrying headers and (textual) bodies as attributes. Non-2xx responses
// mark the span as failed.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(
			req.Context(),
			spanName(req.Method),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func spanName(method string) string {
	return fmt.Sprintf("http %s", method)
}

func headerAttributes(out []attribute.KeyValue, prefix string, headers http.Header) []attribute.KeyValue {
	for name, values := range headers {
		if redactedHeaders[http.CanonicalHeaderKey(name)] {
			values = []string{"<redacted>"}
		}
		if len(values) == 1 {
			out = append(out, attribute.String(fmt.Sprintf("%s/header: %s", prefix, name), values[0]))
			continue
		}
		for i, v := range values {
			out = append(out, attribute.String(fmt.Sprintf("%s/header: %s (%d)", prefix, name, i), v))
		}
	}
	return out
}

func truncateBody(body string) string {
	if len(body) <= maxBodyAttribute {
		return body
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:maxBodyAttribute], len(body))
}

// isBinary reports whether a body of this content type should be summarized
// instead of recorded, uploads and rendered cards are.
func isBinary(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, prefix := range []string{"multipart/", "image/", "application/pdf", "application/octet-stream"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func requestBodyAttribute(req *http.Request) attribute.KeyValue {
	const key = "request/body"
	if isBinary(req.Header.Get("content-type")) {
		return attribute.String(key, fmt.Sprintf("<%s, %d bytes>", req.Header.Get("content-type"), req.ContentLength))
	}
	if req.GetBody == nil {
		return attribute.String(key, "")
	}
	reader, err := req.GetBody()
	if err != nil {
		return attribute.String(key, fmt.Sprintf("failed to get request body: %s", err.Error()))
	}
	if reader == nil {
		return attribute.String(key, "")
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return attribute.String(key, fmt.Sprintf("failed to read request body: %s", err.Error()))
	}
	return attribute.String(key, truncateBody(string(body)))
}

func responseBodyAttribute(res *resty.Response) attribute.KeyValue {
	const key = "response/body"
	contentType := res.Header().Get("content-type")
	if isBinary(contentType) {
		return attribute.String(key, fmt.Sprintf("<%s, %d bytes>", contentType, res.Size()))
	}
	return attribute.String(key, truncateBody(res.String()))
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	// RawRequest is only built after the before-request hooks ran
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	attrs := headerAttributes(nil, "request", res.Request.Header)
	attrs = headerAttributes(attrs, "response", res.Header())
	attrs = append(attrs, requestBodyAttribute(res.Request.RawRequest), responseBodyAttribute(res))
	span.SetAttributes(attrs...)

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(headerAttributes(nil, "request", req.Header)...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	span.SetAttributes(requestBodyAttribute(req.RawRequest))
}
