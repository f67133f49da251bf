package catalogtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climogram-etl/internal/domain"
)

// Handler serves the fixture over the catalog's /v1/observations endpoint.
type Handler struct {
	fixture  *Fixture
	token    string
	requests atomic.Int64
}

// NewHandler creates a handler. A non-empty token is required as a bearer
// token on every request.
func NewHandler(f *Fixture, token string) *Handler {
	return &Handler{fixture: f, token: token}
}

// Requests returns the number of observation requests served.
func (h *Handler) Requests() int64 {
	return h.requests.Load()
}

// NewServer starts an httptest server backed by f.
func NewServer(f *Fixture, token string) (*httptest.Server, *Handler) {
	h := NewHandler(f, token)
	return httptest.NewServer(h), h
}

type observationsResponse struct {
	Dataset      string        `json:"dataset"`
	Band         string        `json:"band"`
	Observations []observation `json:"observations"`
}

type observation struct {
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Value float64   `json:"value"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/v1/observations" {
		http.NotFound(w, r)
		return
	}
	if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.requests.Add(1)

	q := r.URL.Query()
	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	box, err := parseBBox(q.Get("bbox"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.fixture.Generate(q.Get("dataset"), box, domain.YearBucket(start.Year()))
	switch {
	case errors.Is(err, domain.ErrYearUnavailable):
		http.Error(w, "year not available", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := observationsResponse{
		Dataset:      q.Get("dataset"),
		Band:         q.Get("band"),
		Observations: make([]observation, 0, len(obs)),
	}
	for _, o := range obs {
		resp.Observations = append(resp.Observations, observation{Time: o.Time, Lat: o.Geo.Lat, Lon: o.Geo.Lon, Value: o.Value})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func parseBBox(s string) (domain.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BBox{}, errors.New("bbox needs minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BBox{}, errors.New("invalid bbox coordinate")
		}
		v[i] = f
	}
	return domain.BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}
