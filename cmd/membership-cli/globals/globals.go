package globals

import (
	"context"
	"membership-workflow/cmd/membership-cli/config"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/telemetry"
)

type key struct{}

type Value struct {
	Config config.Config
	Client *membershipapi.Client
	Tel    telemetry.API
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
