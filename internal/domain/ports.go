package domain

import "context"

// Backend is the external crawl service. Successful calls return the raw JSON body;
// failures are *BackendError.
type Backend interface {
	Crawl(ctx context.Context, req CrawlRequest) ([]byte, error)
	Complexes(ctx context.Context, req CrawlRequest) ([]byte, error)
	ComplexDetail(ctx context.Context, complexNo string) ([]byte, error)
	ComplexArticles(ctx context.Context, complexNo, tradeType string) ([]byte, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}
