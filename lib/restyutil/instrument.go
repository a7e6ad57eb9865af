package restyutil

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives one rendered exchange per request, `id` counts
// up from 1 per client.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type dumpIdKey struct{}

type dumper struct {
	output InstrumentOutput
	next   atomic.Uint64
}

// InstrumentClient dumps every exchange made by `client` into `output` while
// the default logger has debug enabled. A nil output leaves the client as is.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}
	d := &dumper{output: output}
	client.OnBeforeRequest(d.onBeforeRequest)
	client.OnAfterResponse(d.onAfterResponse)
	client.OnError(d.onError)
}

func (d *dumper) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	id := strconv.FormatUint(d.next.Add(1), 10)
	slog.DebugContext(ctx, "http request", "dump", id, "method", req.Method, "url", req.URL)
	req.SetContext(context.WithValue(ctx, dumpIdKey{}, id))
	return nil
}

func (d *dumper) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	id, ok := ctx.Value(dumpIdKey{}).(string)
	if !ok {
		return nil
	}
	d.output.Write(id, formatHttpMessage(res))
	slog.DebugContext(ctx, "http response", "dump", id, "status", res.StatusCode(), "took", res.Time())
	return nil
}

func (d *dumper) onError(req *resty.Request, err error) {
	id, ok := req.Context().Value(dumpIdKey{}).(string)
	if !ok {
		return
	}
	d.output.Write(id, formatHttpRequest(req, err))
}
