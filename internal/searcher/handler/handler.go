// Package handler exposes the query engine over HTTP for the search
// service, with optional result caching and analytics event collection.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Sisa1265/VINF/internal/analytics"
	"github.com/Sisa1265/VINF/internal/searcher"
	"github.com/Sisa1265/VINF/internal/searcher/cache"
	"github.com/Sisa1265/VINF/pkg/config"
	apperrors "github.com/Sisa1265/VINF/pkg/errors"
	"github.com/Sisa1265/VINF/pkg/logger"
	"github.com/Sisa1265/VINF/pkg/metrics"
	"github.com/Sisa1265/VINF/pkg/middleware"
)

// Handler serves the search API. Cache, collector, and metrics are all
// optional; a nil value disables the corresponding concern.
type Handler struct {
	loader    *searcher.Loader
	cache     *cache.QueryCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	search    config.SearchConfig
	logger    *slog.Logger
}

// New creates a Handler around the index loader.
func New(loader *searcher.Loader, queryCache *cache.QueryCache, collector *analytics.Collector, m *metrics.Metrics, search config.SearchConfig) *Handler {
	return &Handler{
		loader:    loader,
		cache:     queryCache,
		collector: collector,
		metrics:   m,
		search:    search,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&method=&limit=. An empty or
// unknown-term query is a normal zero-result response, not an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")

	method := searcher.Method(h.search.DefaultMethod)
	if m := r.URL.Query().Get("method"); m != "" {
		parsed, err := searcher.ParseMethod(m)
		if err != nil {
			h.writeError(w, err)
			return
		}
		method = parsed
	}

	limit := h.search.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		if parsed > h.search.MaxResults {
			parsed = h.search.MaxResults
		}
		limit = parsed
	}

	engine, err := h.loader.Engine()
	if err != nil {
		h.writeError(w, err)
		return
	}

	var result *searcher.Result
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, method, limit, func() (*searcher.Result, error) {
			return engine.Search(query, method, limit)
		})
	} else {
		result, err = engine.Search(query, method, limit)
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.observeQuery(method, "error", cacheHit, time.Since(start), 0)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	resultType := "hit"
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	h.observeQuery(method, resultType, cacheHit, latency, len(result.Results))

	log.Info("search completed",
		"query", query,
		"method", method,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)

	if h.collector != nil {
		eventType := analytics.EventSearch
		if len(result.Results) == 0 {
			eventType = analytics.EventZeroResult
		}
		h.collector.Track(query, analytics.SearchEvent{
			Type:      eventType,
			Query:     query,
			Method:    string(method),
			Terms:     result.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Reload handles POST /api/v1/index/reload: it swaps in the currently
// published artifact set and invalidates the query cache.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	engine, err := h.loader.Load()
	if err != nil {
		if h.metrics != nil {
			h.metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		}
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.IndexReloadsTotal.WithLabelValues("ok").Inc()
		h.metrics.IndexedDocuments.Set(float64(engine.DocCount()))
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Error("cache invalidation after reload failed", "error", err)
		}
	}
	if h.collector != nil {
		h.collector.Track("reload", analytics.ReloadEvent{
			Type:      analytics.EventReload,
			Docs:      engine.DocCount(),
			Timestamp: time.Now().UTC(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"docs":   engine.DocCount(),
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observeQuery(method searcher.Method, resultType string, cacheHit bool, latency time.Duration, returned int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(string(method), resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
