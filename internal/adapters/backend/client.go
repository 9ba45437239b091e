// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"realestate_proxy/internal/adapters/observability"
	"realestate_proxy/internal/domain"
)

const (
	opCrawl     = "/api/crawl"
	opComplexes = "/api/complexes"
	opDetail    = "/api/complex/{no}"
	opArticles  = "/api/complex/{no}/articles"

	// maxBody bounds how much of a backend response is buffered.
	maxBody = 32 << 20
)

type Client struct {
	base *url.URL
	hc   *http.Client
	rl   *rate.Limiter
}

var _ domain.Backend = (*Client)(nil)

func New(base string, timeout time.Duration, rps int) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend url must be absolute http(s), got %q", base)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: u,
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

// Timeout is the effective per-call deadline after defaults are applied.
func (c *Client) Timeout() time.Duration { return c.hc.Timeout }

func (c *Client) Crawl(ctx context.Context, req domain.CrawlRequest) ([]byte, error) {
	return c.postJSON(ctx, opCrawl, opCrawl, req)
}

func (c *Client) Complexes(ctx context.Context, req domain.CrawlRequest) ([]byte, error) {
	return c.postJSON(ctx, opComplexes, opComplexes, req)
}

func (c *Client) ComplexDetail(ctx context.Context, complexNo string) ([]byte, error) {
	return c.do(ctx, opDetail, http.MethodGet, "/api/complex/"+url.PathEscape(complexNo), nil, nil)
}

func (c *Client) ComplexArticles(ctx context.Context, complexNo, tradeType string) ([]byte, error) {
	if tradeType == "" {
		tradeType = "A1"
	}
	q := url.Values{"trade_type": {tradeType}}
	return c.do(ctx, opArticles, http.MethodGet, "/api/complex/"+url.PathEscape(complexNo)+"/articles", q, nil)
}

// ---- Internals ----

func (c *Client) postJSON(ctx context.Context, op, path string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		// not a backend failure; the request itself is unusable
		return nil, &domain.ValidationError{Reason: err.Error()}
	}
	return c.do(ctx, op, http.MethodPost, path, nil, b)
}

// do performs one call with client-side rate limiting and no retries. Failures to
// complete the exchange are transport errors; completed exchanges without a usable
// JSON success body are application errors.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body []byte) ([]byte, error) {
	ctx, span := observability.Tracer().Start(ctx, "backend "+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("backend.op", op),
	)

	start := time.Now()
	out, status, err := c.exchange(ctx, op, method, path, q, body)
	observability.ObserveExternal("backend", op, status, time.Since(start))

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err).String())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (c *Client) exchange(ctx context.Context, op, method, path string, q url.Values, body []byte) ([]byte, int, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, 0, domain.TransportErr(op, err)
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, 0, domain.TransportErr(op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "realestate-proxy/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		// refused, DNS, client timeout or ctx deadline/cancel
		return nil, 0, domain.TransportErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		return nil, resp.StatusCode, domain.ApplicationErr(op, resp.StatusCode, msg)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		// connection dropped mid-body
		return nil, resp.StatusCode, domain.TransportErr(op, fmt.Errorf("read body: %w", err))
	}
	if !json.Valid(out) {
		return nil, resp.StatusCode, domain.ApplicationErr(op, resp.StatusCode, fmt.Errorf("backend returned invalid JSON"))
	}
	return out, resp.StatusCode, nil
}
