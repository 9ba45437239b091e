// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"realestate_proxy/internal/app"
	"realestate_proxy/internal/domain"
)

const (
	originHeader = "X-Data-Origin"
	maxBodyBytes = 1 << 20
)

// Handlers serves the crawl API. Q may be nil when no archive is configured.
type Handlers struct {
	Crawl *app.CrawlService
	Q     *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Route("/api/real-estate", func(r chi.Router) {
		r.Post("/", h.crawl)
		r.Post("/complexes", h.complexes)
		r.Get("/complexes/{complexNo}", h.complexDetail)
		r.Get("/complexes/{complexNo}/articles", h.complexArticles)
		r.Get("/snapshots", h.listSnapshots)
		r.Get("/snapshots/{id}", h.getSnapshot)
	})
}

// crawlBody mirrors domain.CrawlRequest with pointers so missing coordinates are detectable.
type crawlBody struct {
	CenterLat      *float64 `json:"center_lat"`
	CenterLon      *float64 `json:"center_lon"`
	Radius         *float64 `json:"radius"`
	RealEstateType string   `json:"real_estate_type"`
	PriceType      string   `json:"price_type"`
}

func decodeCrawlRequest(w http.ResponseWriter, r *http.Request) (domain.CrawlRequest, error) {
	var b crawlBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&b); err != nil {
		return domain.CrawlRequest{}, &domain.ValidationError{Reason: fmt.Sprintf("malformed JSON body: %v", err)}
	}
	// the body must hold exactly one JSON value
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.CrawlRequest{}, &domain.ValidationError{Reason: "malformed JSON body: unexpected data after the request object"}
	}
	if b.CenterLat == nil {
		return domain.CrawlRequest{}, &domain.ValidationError{Field: "center_lat", Reason: "is required"}
	}
	if b.CenterLon == nil {
		return domain.CrawlRequest{}, &domain.ValidationError{Field: "center_lon", Reason: "is required"}
	}
	req := domain.CrawlRequest{
		CenterLat:      *b.CenterLat,
		CenterLon:      *b.CenterLon,
		Radius:         b.Radius,
		RealEstateType: b.RealEstateType,
		PriceType:      b.PriceType,
	}
	return req, req.Validate()
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeFailure renders err as {success:false}. Bad input is a 400; backend failures
// keep a 200 so clients branch on the success flag alone.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusOK
	if domain.KindOf(err) == domain.KindParse {
		status = http.StatusBadRequest
	}
	b, mErr := json.Marshal(domain.Failure(err.Error()))
	if mErr != nil {
		log.Error().Err(mErr).Msg("marshal failure response")
		b = []byte(`{"success":false,"error":"internal error"}`)
	}
	writeJSON(w, status, b)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// etagOf hashes a body that is already serialized.
func etagOf(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

func (h *Handlers) crawl(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCrawlRequest(w, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	res, err := h.Crawl.Crawl(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set(originHeader, string(res.Origin))
	writeJSON(w, http.StatusOK, res.Body)
}

func (h *Handlers) complexes(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCrawlRequest(w, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	body, err := h.Crawl.Complexes(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set(originHeader, string(app.OriginBackend))
	writeJSON(w, http.StatusOK, body)
}

func complexNo(r *http.Request) (string, error) {
	no := chi.URLParam(r, "complexNo")
	if _, err := strconv.ParseUint(no, 10, 64); err != nil {
		return "", &domain.ValidationError{Field: "complexNo", Reason: "must be numeric"}
	}
	return no, nil
}

func (h *Handlers) complexDetail(w http.ResponseWriter, r *http.Request) {
	no, err := complexNo(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	body, err := h.Crawl.ComplexDetail(r.Context(), no)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set(originHeader, string(app.OriginBackend))
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) complexArticles(w http.ResponseWriter, r *http.Request) {
	no, err := complexNo(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	body, err := h.Crawl.ComplexArticles(r.Context(), no, r.URL.Query().Get("trade_type"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set(originHeader, string(app.OriginBackend))
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Archive Disabled", "no snapshot archive is configured")
		return
	}
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	page, err := h.Q.ListSnapshots(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list snapshots failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing snapshots failed")
		return
	}
	body, err := json.Marshal(page)
	if err != nil {
		log.Error().Err(err).Msg("marshal snapshots page failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "encoding snapshots failed")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Archive Disabled", "no snapshot archive is configured")
		return
	}
	_, body, err := h.Q.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "snapshot not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get snapshot failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "loading snapshot failed")
		return
	}

	// Snapshots never change; let clients revalidate cheaply.
	etag := etagOf(body)
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
