package httpserver_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realestate_proxy/internal/adapters/backend"
	httpserver "realestate_proxy/internal/adapters/http_server"
	"realestate_proxy/internal/app"
	"realestate_proxy/internal/domain"
)

type memRepo struct{ snaps []domain.Snapshot }

func (m *memRepo) SaveSnapshot(_ context.Context, s domain.Snapshot) error {
	m.snaps = append(m.snaps, s)
	return nil
}

func (m *memRepo) GetSnapshot(_ context.Context, id string) (domain.Snapshot, error) {
	for _, s := range m.snaps {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Snapshot{}, domain.ErrNotFound
}

func (m *memRepo) ListSnapshots(_ context.Context, limit int) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for i := len(m.snaps) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.snaps[i])
	}
	return out, nil
}

type stack struct {
	api  *httptest.Server
	repo *memRepo
}

// newStack wires the real server to a backend at base. A nil repo disables snapshots.
func newStack(t *testing.T, base string, fallback bool, repo *memRepo) *stack {
	t.Helper()
	client, err := backend.New(base, 2*time.Second, 100)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	opts := app.CrawlOptions{Fallback: fallback}
	h := &httpserver.Handlers{}
	if repo != nil {
		opts.Archive = repo
		h.Q = app.NewQueryService(repo, nil, 0)
	}
	h.Crawl = app.NewCrawlService(client, opts)

	srv := httpserver.New(httpserver.Options{Timeout: 5 * time.Second})
	srv.MountHandlers(h)
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)
	return &stack{api: api, repo: repo}
}

func deadBackendURL() string {
	s := httptest.NewServer(http.NotFoundHandler())
	u := s.URL
	s.Close()
	return u
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func get(t *testing.T, url string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func decodeCrawl(t *testing.T, b []byte) domain.CrawlResponse {
	t.Helper()
	var out domain.CrawlResponse
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return out
}

func TestRealEstate_MalformedJSONIs400(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, nil)
	resp, b := post(t, s.api.URL+"/api/real-estate", `{"center_lat":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", resp.StatusCode)
	}
	out := decodeCrawl(t, b)
	if out.Success || out.Error == "" {
		t.Fatalf("want failure with message, got %s", b)
	}
}

func TestRealEstate_TrailingDataIs400(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, nil)
	for _, body := range []string{
		`{"center_lat":37.5,"center_lon":127.0} this is not json`,
		`{"center_lat":37.5,"center_lon":127.0}{"center_lat":1,"center_lon":1}`,
	} {
		resp, b := post(t, s.api.URL+"/api/real-estate", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d; want 400", body, resp.StatusCode)
		}
		if out := decodeCrawl(t, b); out.Success || out.Data != nil {
			t.Fatalf("body %q: want failure without data, got %s", body, b)
		}
	}

	// trailing whitespace is still a single value
	resp, _ := post(t, s.api.URL+"/api/real-estate", "{\"center_lat\":37.5,\"center_lon\":127.0}\n  ")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trailing whitespace: status = %d; want 200", resp.StatusCode)
	}
}

func TestRealEstate_ServerTimeoutIsJSON(t *testing.T) {
	release := make(chan struct{})
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer be.Close()
	defer close(release)

	client, err := backend.New(be.URL, 10*time.Second, 100)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	srv := httpserver.New(httpserver.Options{Timeout: 200 * time.Millisecond})
	srv.MountHandlers(&httpserver.Handlers{Crawl: app.NewCrawlService(client, app.CrawlOptions{Fallback: true})})
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	resp, b := post(t, api.URL+"/api/real-estate", `{"center_lat":37.5,"center_lon":127.0}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d; want 503", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q; want application/json", ct)
	}
	if out := decodeCrawl(t, b); out.Success || out.Error == "" {
		t.Fatalf("want JSON failure, got %s", b)
	}
}

func TestRealEstate_MissingLatIs400(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, nil)
	resp, b := post(t, s.api.URL+"/api/real-estate", `{"center_lon":127.1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", resp.StatusCode)
	}
	if out := decodeCrawl(t, b); !strings.Contains(out.Error, "center_lat") {
		t.Fatalf("error %q should name center_lat", out.Error)
	}
}

func TestRealEstate_UnreachableBackendServesMock(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, nil)
	resp, b := post(t, s.api.URL+"/api/real-estate", `{"center_lat":37.5,"center_lon":127.0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Data-Origin"); got != "mock" {
		t.Fatalf("X-Data-Origin = %q; want mock", got)
	}
	out := decodeCrawl(t, b)
	if !out.Success || out.Data == nil {
		t.Fatalf("want mock success, got %s", b)
	}
	bb := out.Data.AreaInfo.Bounds
	if !near(bb.BottomLat, 37.497) || !near(bb.TopLat, 37.503) || !near(bb.LeftLon, 126.997) || !near(bb.RightLon, 127.003) {
		t.Fatalf("unexpected bounds %+v", bb)
	}
	if len(out.Data.Complexes) != 2 {
		t.Fatalf("want 2 mock complexes, got %d", len(out.Data.Complexes))
	}
}

func TestRealEstate_UnreachableBackendWithoutFallback(t *testing.T) {
	s := newStack(t, deadBackendURL(), false, nil)
	resp, b := post(t, s.api.URL+"/api/real-estate", `{"center_lat":37.5,"center_lon":127.0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	if out := decodeCrawl(t, b); out.Success || out.Data != nil || out.Error == "" {
		t.Fatalf("want transport failure, got %s", b)
	}
}

func TestRealEstate_BackendErrorStatusIsReported(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer be.Close()

	s := newStack(t, be.URL, true, nil)
	_, b := post(t, s.api.URL+"/api/real-estate", `{"center_lat":37.5,"center_lon":127.0}`)
	out := decodeCrawl(t, b)
	if out.Success || out.Data != nil {
		t.Fatalf("application error must not be mocked: %s", b)
	}
	if !strings.Contains(out.Error, "500") {
		t.Fatalf("error %q should carry the backend status", out.Error)
	}
}

func TestRealEstate_SuccessIsPassedThroughAndArchived(t *testing.T) {
	const body = `{"success":true,"data":{"area_info":{"center_lat":37.5,"center_lon":127,"bounds":{"left_lon":126.99,"right_lon":127.01,"top_lat":37.51,"bottom_lat":37.49}},"complexes":[{"complexNo":"1"}],"complex_details":{},"articles":{},"development_plans":{"road":[],"rail":[],"jigu":[]}},"extra":"kept"}`
	var forwarded map[string]any
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/crawl" || r.Method != http.MethodPost {
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&forwarded)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	defer be.Close()

	repo := &memRepo{}
	s := newStack(t, be.URL, true, repo)
	resp, b := post(t, s.api.URL+"/api/real-estate", `{"center_lat":37.5,"center_lon":127.0,"radius":0.01,"price_type":"sale"}`)
	if resp.StatusCode != http.StatusOK || string(b) != body {
		t.Fatalf("got %d %s; want byte-identical passthrough", resp.StatusCode, b)
	}
	if got := resp.Header.Get("X-Data-Origin"); got != "backend" {
		t.Fatalf("X-Data-Origin = %q; want backend", got)
	}
	if forwarded["radius"] != 0.01 || forwarded["price_type"] != "sale" {
		t.Fatalf("forwarded body %v", forwarded)
	}
	if _, ok := forwarded["real_estate_type"]; ok {
		t.Fatalf("absent real_estate_type must not be forwarded: %v", forwarded)
	}
	if len(repo.snaps) != 1 {
		t.Fatalf("want 1 archived snapshot, got %d", len(repo.snaps))
	}

	// archived snapshot is served verbatim with an ETag
	url := s.api.URL + "/api/real-estate/snapshots/" + repo.snaps[0].ID
	resp, got := get(t, url, nil)
	if resp.StatusCode != http.StatusOK || string(got) != body {
		t.Fatalf("snapshot got %d %s", resp.StatusCode, got)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	resp, _ = get(t, url, map[string]string{"If-None-Match": etag})
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("revalidation status = %d; want 304", resp.StatusCode)
	}

	resp, list := get(t, s.api.URL+"/api/real-estate/snapshots?limit=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var page domain.SnapshotsPage
	if err := json.Unmarshal(list, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Summary.Complexes != 1 || page.Items[0].Source != domain.SourceAPI {
		t.Fatalf("unexpected page %s", list)
	}
}

func TestSnapshots_Errors(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, &memRepo{})
	if resp, _ := get(t, s.api.URL+"/api/real-estate/snapshots/nope", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing snapshot status = %d; want 404", resp.StatusCode)
	}
	if resp, _ := get(t, s.api.URL+"/api/real-estate/snapshots?limit=0", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d; want 400", resp.StatusCode)
	}

	noArchive := newStack(t, deadBackendURL(), true, nil)
	if resp, _ := get(t, noArchive.api.URL+"/api/real-estate/snapshots", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("archive disabled status = %d; want 503", resp.StatusCode)
	}
}

func TestComplexRoutes(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/complex/123":
			_, _ = io.WriteString(w, `{"complexNo":"123"}`)
		case "/api/complex/123/articles":
			_, _ = io.WriteString(w, `{"trade_type":"`+r.URL.Query().Get("trade_type")+`"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer be.Close()
	s := newStack(t, be.URL, true, nil)

	if resp, b := get(t, s.api.URL+"/api/real-estate/complexes/123", nil); resp.StatusCode != 200 || string(b) != `{"complexNo":"123"}` {
		t.Fatalf("detail got %d %s", resp.StatusCode, b)
	}
	if _, b := get(t, s.api.URL+"/api/real-estate/complexes/123/articles?trade_type=B1", nil); string(b) != `{"trade_type":"B1"}` {
		t.Fatalf("articles got %s", b)
	}
	if resp, _ := get(t, s.api.URL+"/api/real-estate/complexes/abc", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-numeric complexNo status = %d; want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	s := newStack(t, deadBackendURL(), true, nil)
	resp, b := get(t, s.api.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Fatalf("healthz got %d %q", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("healthz content-type = %q", ct)
	}
}
