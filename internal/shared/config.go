package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"realestate_proxy/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	BackendBase    string
	BackendTimeout time.Duration
	BackendRPS     int
	// MockFallback serves mock data when the backend is unreachable.
	MockFallback bool

	CORSOrigins []string

	CacheBackend string // none|memory|redis
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int
	RedisPass    string

	MySQLDSN     string // empty disables the snapshot archive
	OTLPEndpoint string // empty disables tracing

	SweepCenters []domain.CrawlRequest
	SweepRadius  float64
	Workers      int
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env present but unreadable")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for missing or malformed values.
func FromEnv(getenv func(string) string) Config {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}
	atoi := func(k string, def int) int {
		if v := getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	// positive rejects zero and negative values, which would disable a timeout or limit.
	positive := func(k string, def int) int {
		n := atoi(k, def)
		if n <= 0 {
			log.Warn().Str("key", k).Int("value", n).Msg("must be positive, using default")
			return def
		}
		return n
	}
	atof := func(k string, def float64) float64 {
		if v := getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}

	appEnv := env("APP_ENV", "prod")
	dev := appEnv == "dev" || appEnv == "development"
	fallback := dev
	if v := getenv("MOCK_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			fallback = b
		} else {
			log.Warn().Str("key", "MOCK_FALLBACK").Str("value", v).Msg("not a boolean, using default")
		}
	}

	c := Config{
		AppEnv:         appEnv,
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		BackendBase:    env("BACKEND_BASE_URL", "http://localhost:8000"),
		BackendTimeout: time.Duration(positive("BACKEND_TIMEOUT_SECONDS", 60)) * time.Second,
		BackendRPS:     positive("BACKEND_RPS", 5),
		MockFallback:   fallback,
		CORSOrigins:    splitList(env("CORS_ORIGINS", "*")),
		CacheBackend:   strings.ToLower(env("CACHE_BACKEND", "none")),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 0)) * time.Second,
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		MySQLDSN:       env("MYSQL_DSN", ""),
		OTLPEndpoint:   env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SweepRadius:    atof("SWEEP_RADIUS", 0.01),
		Workers:        positive("SWEEP_WORKERS", 4),
	}

	centers, err := ParseCenters(env("SWEEP_CENTERS", "37.3642443,127.1084674"), c.SweepRadius)
	if err != nil {
		log.Warn().Err(err).Msg("SWEEP_CENTERS invalid, sweeper has nothing to do")
	}
	c.SweepCenters = centers

	if c.MockFallback && !dev {
		log.Warn().Msg("MOCK_FALLBACK enabled outside dev: backend outages will be masked")
	}
	return c
}

// ParseCenters parses "lat,lon;lat,lon" into crawl requests with the given radius.
func ParseCenters(s string, radius float64) ([]domain.CrawlRequest, error) {
	var out []domain.CrawlRequest
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("center %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("center %q: lat: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("center %q: lon: %w", pair, err)
		}
		r := radius
		req := domain.CrawlRequest{CenterLat: lat, CenterLon: lon, Radius: &r}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("center %q: %w", pair, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
