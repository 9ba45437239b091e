package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"realestate_proxy/internal/domain"
)

// QueryService reads archived snapshots. Snapshot bodies are immutable, so lookups by
// id are cached for the configured TTL.
type QueryService struct {
	repo     domain.SnapshotRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.SnapshotRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

type cachedSnapshot struct {
	View domain.SnapshotView `json:"view"`
	Body []byte              `json:"body"`
}

func (s *QueryService) GetSnapshot(ctx context.Context, id string) (domain.SnapshotView, []byte, error) {
	key := fmt.Sprintf("snapshot:%s", id)
	var cs cachedSnapshot
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &cs)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
		} else if ok {
			return cs.View, cs.Body, nil
		}
	}
	snap, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return domain.SnapshotView{}, nil, err
	}
	view := toView(snap)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, cachedSnapshot{View: view, Body: snap.Body}, int(s.cacheTTL.Seconds()))
	}
	return view, snap.Body, nil
}

// ListSnapshots returns the newest snapshots first. Lists change on every archive and
// are not cached.
func (s *QueryService) ListSnapshots(ctx context.Context, limit int) (domain.SnapshotsPage, error) {
	snaps, err := s.repo.ListSnapshots(ctx, limit)
	if err != nil {
		return domain.SnapshotsPage{}, err
	}
	out := domain.SnapshotsPage{Items: make([]domain.SnapshotView, 0, len(snaps))}
	for _, sn := range snaps {
		out.Items = append(out.Items, toView(sn))
	}
	return out, nil
}

func toView(s domain.Snapshot) domain.SnapshotView {
	return domain.SnapshotView{
		ID:             s.ID,
		CenterLat:      s.CenterLat,
		CenterLon:      s.CenterLon,
		Radius:         s.Radius,
		RealEstateType: s.RealEstateType,
		PriceType:      s.PriceType,
		Source:         s.Source,
		Summary:        s.Summary,
		CreatedAt:      s.CreatedAt,
	}
}
