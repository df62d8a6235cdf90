// Package searcher implements the query side: soft-boolean candidate
// selection over a loaded index and ranking under TF-IDF or BM25.
package searcher

import (
	"log/slog"
	"math"
	"sort"

	"github.com/Sisa1265/VINF/internal/indexer/artifact"
	"github.com/Sisa1265/VINF/internal/indexer/tokenizer"
	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// BM25 constants.
const (
	k1 = 1.2
	b  = 0.75
)

// Method selects the ranking formula.
type Method string

const (
	MethodBM25  Method = "bm25"
	MethodTFIDF Method = "tfidf"
)

// ParseMethod validates a user-supplied ranking method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodBM25:
		return MethodBM25, nil
	case MethodTFIDF:
		return MethodTFIDF, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidInput, "unknown ranking method %q (want bm25 or tfidf)", s)
	}
}

// ScoredDoc is one ranked result with its display metadata.
type ScoredDoc struct {
	DocID    string  `json:"doc_id"`
	Score    float64 `json:"score"`
	URL      string  `json:"url"`
	DrugName string  `json:"drug_name"`
}

// Result is the outcome of one query. TotalHits counts every candidate with
// a positive score, before truncation to the requested limit.
type Result struct {
	Query     string      `json:"query"`
	Method    Method      `json:"method"`
	Terms     []string    `json:"terms"`
	TotalHits int         `json:"total_hits"`
	Results   []ScoredDoc `json:"results"`
}

// Engine answers queries against one immutable loaded index. It holds no
// mutable state, so a single Engine is safe for any number of concurrent
// Search calls.
type Engine struct {
	idx    *artifact.Index
	logger *slog.Logger
}

// Open loads and validates the index artifacts at dir.
func Open(dir string) (*Engine, error) {
	idx, err := artifact.Load(dir)
	if err != nil {
		return nil, err
	}
	return NewEngine(idx), nil
}

// NewEngine wraps an already loaded index.
func NewEngine(idx *artifact.Index) *Engine {
	return &Engine{
		idx:    idx,
		logger: slog.Default().With("component", "search-engine"),
	}
}

// DocCount returns the number of indexed documents.
func (e *Engine) DocCount() int {
	return e.idx.Meta.N
}

// Search tokenizes the query with the configuration the index was built
// with, selects candidates as the union of the posting sets of every known
// query term, scores them under the chosen method, and returns at most limit
// results ordered by descending score. Exact score ties are broken by
// ascending doc_id so results are reproducible. A query with no known terms
// returns an empty result, not an error.
func (e *Engine) Search(query string, method Method, limit int) (*Result, error) {
	if e == nil || e.idx == nil {
		return nil, apperrors.New(apperrors.ErrIndexUnavailable, "no index loaded")
	}
	if limit < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "result limit must be >= 1, got %d", limit)
	}

	terms := dedupe(tokenizer.Tokenize(query, e.idx.Meta.Build.MinTokenLen))
	result := &Result{
		Query:   query,
		Method:  method,
		Terms:   terms,
		Results: []ScoredDoc{},
	}

	candidates := e.candidates(terms)
	if len(candidates) == 0 {
		return result, nil
	}

	scored := make([]ScoredDoc, 0, len(candidates))
	for docID := range candidates {
		var score float64
		switch method {
		case MethodTFIDF:
			score = e.tfidfScore(terms, docID)
		case MethodBM25:
			score = e.bm25Score(terms, docID)
		default:
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown ranking method %q", method)
		}
		if score <= 0 {
			continue
		}
		dm := e.idx.Meta.Docs[docID]
		scored = append(scored, ScoredDoc{
			DocID:    docID,
			Score:    score,
			URL:      dm.URL,
			DrugName: dm.DrugName,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].DocID < scored[j].DocID
	})

	result.TotalHits = len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	result.Results = scored
	return result, nil
}

// candidates returns the union of the posting sets of every query term
// present in the index. Unknown terms contribute nothing.
func (e *Engine) candidates(terms []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range terms {
		for docID := range e.idx.Postings[t] {
			set[docID] = struct{}{}
		}
	}
	return set
}

// tfidfScore sums (1 + ln tf) * idf_classic over the query terms present in
// the document.
func (e *Engine) tfidfScore(terms []string, docID string) float64 {
	score := 0.0
	for _, t := range terms {
		tf := e.idx.Postings[t][docID]
		if tf <= 0 {
			continue
		}
		idf := e.idx.Terms[t].IDFClassic
		score += (1.0 + math.Log(float64(tf))) * idf
	}
	return score
}

// bm25Score sums idf_bm25 * tf*(k1+1) / (tf + k1*(1-b+b*dl/avgdl)) over the
// query terms present in the document. An avgdl of zero is guarded by
// treating the length ratio as dl/1.
func (e *Engine) bm25Score(terms []string, docID string) float64 {
	dl := e.idx.Meta.DocLengths[docID]
	if dl <= 0 {
		return 0
	}
	avgdl := e.idx.Meta.AvgDocLen
	if avgdl <= 0 {
		avgdl = 1.0
	}

	score := 0.0
	for _, t := range terms {
		tf := e.idx.Postings[t][docID]
		if tf <= 0 {
			continue
		}
		idf := e.idx.Terms[t].IDFBM25
		ftf := float64(tf)
		denom := ftf + k1*(1.0-b+b*(float64(dl)/avgdl))
		score += idf * (ftf * (k1 + 1.0)) / denom
	}
	return score
}

// dedupe drops repeated query tokens, keeping first occurrence order. Each
// distinct query term contributes to a document's score at most once; the
// query-side repetition count is not a weight.
func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
