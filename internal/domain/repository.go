package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves raw HTML for a product URL
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*Page, error)
}

// ChatOptions tunes a single completion request
type ChatOptions struct {
	JSONMode    bool
	MaxTokens   int
	Temperature float32
}

// ChatCompleter is the AI text-completion backend.
// A nil ChatCompleter means no backend is configured.
type ChatCompleter interface {
	ChatComplete(ctx context.Context, prompt string, opts ChatOptions) (string, error)
}
