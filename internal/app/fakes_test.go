package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"realestate_proxy/internal/domain"
)

// ---- fakes ----

type fakeBackend struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls int
	last  domain.CrawlRequest
}

func (f *fakeBackend) Crawl(ctx context.Context, req domain.CrawlRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.body, f.err
}
func (f *fakeBackend) Complexes(ctx context.Context, req domain.CrawlRequest) ([]byte, error) {
	return f.Crawl(ctx, req)
}
func (f *fakeBackend) ComplexDetail(ctx context.Context, no string) ([]byte, error) {
	return f.body, f.err
}
func (f *fakeBackend) ComplexArticles(ctx context.Context, no, tradeType string) ([]byte, error) {
	return f.body, f.err
}

type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.store[key] = b
	return err
}
func (c *fakeCache) Del(ctx context.Context, key string) error { delete(c.store, key); return nil }

type fakeRepo struct {
	mu    sync.Mutex
	saved []domain.Snapshot
	err   error
	gets  int
}

func (r *fakeRepo) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, s)
	return nil
}
func (r *fakeRepo) GetSnapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	for _, s := range r.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Snapshot{}, domain.ErrNotFound
}
func (r *fakeRepo) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Snapshot, 0, len(r.saved))
	for i := len(r.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.saved[i])
	}
	return out, nil
}

var errRefused = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

func pfloat(f float64) *float64 { return &f }
