package aisearch

import (
	"context"

	"github.com/kailas-cloud/evidex/internal/domain/assistant"
)

// Provider is a chat model that answers assistant requests in JSON.
type Provider interface {
	Provider() string
	Model() string
	Complete(ctx context.Context, req *assistant.Request) (assistant.Completion, error)
}

// Cache stores answers between identical requests.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Put(ctx context.Context, key string, v any)
}

// Budget gates provider calls on token usage.
type Budget interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
