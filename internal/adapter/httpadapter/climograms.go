package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/render"
)

const maxRequestBody = 1 << 20

// DocumentBuilder builds the rendered climogram for a validated request.
type DocumentBuilder interface {
	BuildDocument(ctx context.Context, req domain.ClimogramRequest) (render.Document, error)
}

type climogramHandler struct {
	builder DocumentBuilder
	results *cache.Cache // nil when caching is disabled
	logger  *slog.Logger
}

func newClimogramHandler(builder DocumentBuilder, ttl time.Duration, logger *slog.Logger) *climogramHandler {
	h := &climogramHandler{builder: builder, logger: logger}
	if ttl > 0 {
		h.results = cache.New(ttl, 2*ttl)
	}
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *climogramHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ClimogramRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	key := req.Key()
	if doc, ok := h.cached(key); ok {
		doc.Climogram.RequestID = req.ID
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, doc)
		return
	}

	doc, err := h.builder.BuildDocument(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("climogram request failed", "request_id", req.ID, "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	if h.results != nil {
		h.results.Set(key, doc, cache.DefaultExpiration)
	}
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, doc)
}

func (h *climogramHandler) cached(key string) (render.Document, bool) {
	if h.results == nil {
		return render.Document{}, false
	}
	v, ok := h.results.Get(key)
	if !ok {
		return render.Document{}, false
	}
	doc, ok := v.(render.Document)
	return doc, ok
}

// statusFor maps build errors to HTTP statuses. Anything that is not a request
// problem is treated as an upstream catalog failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvertedRange),
		errors.Is(err, domain.ErrInvalidRegion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnmatchedYear):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
