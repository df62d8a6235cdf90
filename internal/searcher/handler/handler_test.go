package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Sisa1265/VINF/internal/indexer/artifact"
	"github.com/Sisa1265/VINF/internal/searcher"
	"github.com/Sisa1265/VINF/pkg/config"
)

func publishFixture(t *testing.T) string {
	t.Helper()
	n := 2
	postings := map[string]map[string]int{
		"aspirin": {"docA": 2, "docB": 1},
		"pain":    {"docA": 1},
	}
	terms := make(map[string]artifact.TermStats, len(postings))
	for term, byDoc := range postings {
		df := len(byDoc)
		terms[term] = artifact.TermStats{
			Term:       term,
			DF:         df,
			IDFClassic: artifact.Round8(artifact.IDFClassic(df, n)),
			IDFBM25:    artifact.Round8(artifact.IDFBM25(df, n)),
		}
	}
	idx := &artifact.Index{
		Postings: postings,
		Terms:    terms,
		Meta: artifact.Meta{
			N:          n,
			AvgDocLen:  3,
			DocLengths: map[string]int{"docA": 4, "docB": 2},
			Docs: map[string]artifact.DocMeta{
				"docA": {URL: "https://www.drugs.com/aspirin.html", DrugName: "Aspirin"},
				"docB": {URL: "https://www.drugs.com/aspirin-low.html", DrugName: "Aspirin Low Dose"},
			},
			IndexedFields: []string{"drug_name", "indications"},
			Build:         artifact.BuildConfig{MinDocTokens: 1, MinTokenLen: 2},
		},
	}
	dir := filepath.Join(t.TempDir(), "index")
	if err := artifact.Publish(dir, idx); err != nil {
		t.Fatal(err)
	}
	return dir
}

func searchConfig() config.SearchConfig {
	return config.SearchConfig{DefaultLimit: 5, MaxResults: 100, DefaultMethod: "bm25"}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	loader := searcher.NewLoader(publishFixture(t))
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	return New(loader, nil, nil, nil, searchConfig())
}

func doSearch(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doSearch(t, h, "/api/v1/search?q=aspirin")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result searcher.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalHits != 2 || len(result.Results) != 2 {
		t.Errorf("hits = %d, results = %d, want 2 each", result.TotalHits, len(result.Results))
	}
	if result.Results[0].DrugName == "" || result.Results[0].URL == "" {
		t.Errorf("missing display metadata: %+v", result.Results[0])
	}
	if result.Method != searcher.MethodBM25 {
		t.Errorf("method = %s, want configured default bm25", result.Method)
	}
}

func TestSearchEmptyQueryIsSuccess(t *testing.T) {
	h := newTestHandler(t)
	rec := doSearch(t, h, "/api/v1/search?q=")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for an empty query", rec.Code)
	}
	var result searcher.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalHits != 0 || len(result.Results) != 0 {
		t.Errorf("empty query returned hits: %+v", result)
	}
}

func TestSearchMethodParam(t *testing.T) {
	h := newTestHandler(t)

	rec := doSearch(t, h, "/api/v1/search?q=aspirin&method=tfidf")
	if rec.Code != http.StatusOK {
		t.Errorf("tfidf status = %d", rec.Code)
	}

	rec = doSearch(t, h, "/api/v1/search?q=aspirin&method=pagerank")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown method status = %d, want 400", rec.Code)
	}
}

func TestSearchLimitParam(t *testing.T) {
	h := newTestHandler(t)

	rec := doSearch(t, h, "/api/v1/search?q=aspirin&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result searcher.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Results) != 1 || result.TotalHits != 2 {
		t.Errorf("limit=1 gave %d results, %d hits", len(result.Results), result.TotalHits)
	}

	for _, bad := range []string{"0", "-3", "abc"} {
		rec := doSearch(t, h, "/api/v1/search?q=aspirin&limit="+bad)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, rec.Code)
		}
	}

	// A limit above the configured maximum is capped, not rejected.
	rec = doSearch(t, h, "/api/v1/search?q=aspirin&limit=100000")
	if rec.Code != http.StatusOK {
		t.Errorf("oversized limit status = %d, want 200", rec.Code)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	loader := searcher.NewLoader(filepath.Join(t.TempDir(), "missing"))
	h := New(loader, nil, nil, nil, searchConfig())

	rec := doSearch(t, h, "/api/v1/search?q=aspirin")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before any index is loaded", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/index/reload", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status string `json:"status"`
		Docs   int    `json:"docs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "reloaded" || body.Docs != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestReloadMissingIndex(t *testing.T) {
	loader := searcher.NewLoader(filepath.Join(t.TempDir(), "missing"))
	h := New(loader, nil, nil, nil, searchConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/index/reload", nil)
	rec := httptest.NewRecorder()
	h.Reload(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no artifacts are published", rec.Code)
	}
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}
	var stats map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["status"] != "disabled" {
		t.Errorf("stats = %v, want disabled marker", stats)
	}

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("invalidate status = %d", rec.Code)
	}
}
