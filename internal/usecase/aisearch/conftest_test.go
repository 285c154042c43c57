package aisearch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/evidex/internal/domain/assistant"
)

type fakeProvider struct {
	content string
	err     error
	calls   atomic.Int32
	gate    chan struct{}

	sawCanceled atomic.Bool
}

func (f *fakeProvider) Provider() string { return "fake" }
func (f *fakeProvider) Model() string    { return "fake-1" }

func (f *fakeProvider) Complete(ctx context.Context, _ *assistant.Request) (assistant.Completion, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if ctx.Err() != nil {
		f.sawCanceled.Store(true)
	}
	if f.err != nil {
		return assistant.Completion{}, f.err
	}
	return assistant.Completion{Content: f.content, PromptTokens: 70, CompletionTokens: 30}, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *memCache) Put(_ context.Context, key string, v any) {
	raw, _ := json.Marshal(v)
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
}

type fakeBudget struct {
	err      error
	recorded atomic.Int64
}

func (b *fakeBudget) Check(context.Context) error { return b.err }
func (b *fakeBudget) Record(tokens int64)          { b.recorded.Add(tokens) }

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func (m *mockBudgetStore) value(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}
