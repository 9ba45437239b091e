package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"realestate_proxy/internal/adapters/observability"
	"realestate_proxy/internal/domain"
)

// SweepService crawls areas in bulk and archives every result. It never serves mock data.
type SweepService struct {
	backend domain.Backend
	repo    domain.SnapshotRepository
}

func NewSweepService(b domain.Backend, r domain.SnapshotRepository) *SweepService {
	return &SweepService{backend: b, repo: r}
}

// SweepArea crawls one center and archives the body. Backend failures and archive
// failures are both returned.
func (s *SweepService) SweepArea(ctx context.Context, req domain.CrawlRequest) (domain.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	body, err := s.backend.Crawl(ctx, req)
	if err != nil {
		observability.ObserveBackendError("/api/crawl", domain.KindOf(err).String())
		return domain.Snapshot{}, err
	}
	snap, err := archive(ctx, s.repo, req, body, domain.SourceSweeper)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("archive %.7f,%.7f: %w", req.CenterLat, req.CenterLon, err)
	}
	return snap, nil
}

func archive(ctx context.Context, repo domain.SnapshotRepository, req domain.CrawlRequest, body []byte, source string) (domain.Snapshot, error) {
	snap := newSnapshot(req, body, source)
	err := repo.SaveSnapshot(ctx, snap)
	observability.ObserveSnapshot(source, err)
	return snap, err
}

func newSnapshot(req domain.CrawlRequest, body []byte, source string) domain.Snapshot {
	return domain.Snapshot{
		ID:             uuid.NewString(),
		CenterLat:      req.CenterLat,
		CenterLon:      req.CenterLon,
		Radius:         req.EffectiveRadius(),
		RealEstateType: req.RealEstateType,
		PriceType:      req.PriceType,
		Source:         source,
		Summary:        domain.Summarize(body),
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
}
