package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/lookboard/backend/internal/domain"
)

// fakeFetcher serves canned pages keyed by URL
type fakeFetcher struct {
	pages map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (*domain.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: 500}
	}
	return &domain.Page{URL: url, StatusCode: 200, ContentType: "text/html", Body: []byte(body)}, nil
}

// fakeCompleter answers every prompt with the same response or error
type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) ChatComplete(ctx context.Context, prompt string, opts domain.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeCache is a map-backed CacheRepository that records writes
type fakeCache struct {
	mu     sync.Mutex
	data   map[string]interface{}
	sets   int
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]interface{}{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}
