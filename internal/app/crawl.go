package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"realestate_proxy/internal/adapters/observability"
	"realestate_proxy/internal/domain"
)

// Origin tells where a crawl body came from.
type Origin string

const (
	OriginBackend Origin = "backend"
	OriginCache   Origin = "cache"
	OriginMock    Origin = "mock"
)

// Result is a CrawlResponse body ready to be written as-is.
type Result struct {
	Body   []byte
	Origin Origin
}

type CrawlOptions struct {
	Cache    domain.Cache              // nil disables caching
	Archive  domain.SnapshotRepository // nil disables archiving
	CacheTTL time.Duration
	// Fallback serves mock data when the backend is unreachable.
	Fallback bool
}

type CrawlService struct {
	backend  domain.Backend
	cache    domain.Cache
	archive  domain.SnapshotRepository
	cacheTTL time.Duration
	fallback bool
}

func NewCrawlService(b domain.Backend, opts CrawlOptions) *CrawlService {
	return &CrawlService{
		backend:  b,
		cache:    opts.Cache,
		archive:  opts.Archive,
		cacheTTL: opts.CacheTTL,
		fallback: opts.Fallback,
	}
}

func (s *CrawlService) FallbackEnabled() bool { return s.fallback }

// Crawl relays req to the backend. Transport failures become a mock payload when
// fallback is enabled; every other failure is returned to the caller.
func (s *CrawlService) Crawl(ctx context.Context, req domain.CrawlRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	key := crawlKey(req)
	if s.cache != nil && s.cacheTTL > 0 {
		// stored as []byte so cache hits stay byte-identical to the backend body
		var raw []byte
		ok, err := s.cache.Get(ctx, key, &raw)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("crawl cache read failed")
		} else if ok {
			return Result{Body: raw, Origin: OriginCache}, nil
		}
	}

	body, err := s.backend.Crawl(ctx, req)
	if err != nil {
		kind := domain.KindOf(err)
		observability.ObserveBackendError("/api/crawl", kind.String())
		if kind == domain.KindTransport && s.fallback {
			observability.ObserveFallback()
			log.Warn().Err(err).
				Float64("lat", req.CenterLat).
				Float64("lon", req.CenterLon).
				Msg("backend unreachable, serving mock data")
			return mockResult(req)
		}
		log.Error().Err(err).Str("kind", kind.String()).Msg("crawl failed")
		return Result{}, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, body, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("crawl cache write failed")
		}
	}
	if s.archive != nil {
		// detached: a client disconnect must not drop the snapshot
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if _, err := archive(actx, s.archive, req, body, domain.SourceAPI); err != nil {
			log.Warn().Err(err).Msg("snapshot archive failed")
		}
		cancel()
	}
	return Result{Body: body, Origin: OriginBackend}, nil
}

// Complexes lists complex markers only; no fallback.
func (s *CrawlService) Complexes(ctx context.Context, req domain.CrawlRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.relay("/api/complexes", func() ([]byte, error) { return s.backend.Complexes(ctx, req) })
}

func (s *CrawlService) ComplexDetail(ctx context.Context, complexNo string) ([]byte, error) {
	return s.relay("/api/complex/{no}", func() ([]byte, error) { return s.backend.ComplexDetail(ctx, complexNo) })
}

func (s *CrawlService) ComplexArticles(ctx context.Context, complexNo, tradeType string) ([]byte, error) {
	return s.relay("/api/complex/{no}/articles", func() ([]byte, error) {
		return s.backend.ComplexArticles(ctx, complexNo, tradeType)
	})
}

func (s *CrawlService) relay(op string, call func() ([]byte, error)) ([]byte, error) {
	body, err := call()
	if err != nil {
		kind := domain.KindOf(err)
		observability.ObserveBackendError(op, kind.String())
		log.Error().Err(err).Str("op", op).Str("kind", kind.String()).Msg("backend relay failed")
		return nil, err
	}
	return body, nil
}

func mockResult(req domain.CrawlRequest) (Result, error) {
	data := domain.MockRealEstateData(req)
	b, err := json.Marshal(domain.CrawlResponse{Success: true, Data: &data})
	if err != nil {
		return Result{}, fmt.Errorf("encode mock: %w", err)
	}
	return Result{Body: b, Origin: OriginMock}, nil
}

// crawlKey identifies requests the backend treats identically.
func crawlKey(req domain.CrawlRequest) string {
	return fmt.Sprintf("crawl:%.7f:%.7f:%.7f:%s:%s",
		req.CenterLat, req.CenterLon, req.EffectiveRadius(), req.RealEstateType, req.PriceType)
}
