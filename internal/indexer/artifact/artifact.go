// Package artifact defines the persisted index representation: three
// files produced together by one build pass and immutable afterwards.
//
//	inverted_index.jsonl  one line per term: {"term", "postings": {doc_id: tf}}
//	term_stats.jsonl      one line per term: {"term", "df", "idf_classic", "idf_bm25"}
//	meta.json             corpus statistics and per-document display metadata
//
// A rebuild publishes a complete new artifact set atomically; there is no
// partial or merge update.
package artifact

import "math"

const (
	PostingsFile  = "inverted_index.jsonl"
	TermStatsFile = "term_stats.jsonl"
	MetaFile      = "meta.json"
)

// PostingsEntry is one line of the postings store.
type PostingsEntry struct {
	Term     string         `json:"term"`
	Postings map[string]int `json:"postings"`
}

// TermStats is one line of the term statistics store. Both idf values are
// persisted rounded to 8 fractional digits for reproducibility.
type TermStats struct {
	Term       string  `json:"term"`
	DF         int     `json:"df"`
	IDFClassic float64 `json:"idf_classic"`
	IDFBM25    float64 `json:"idf_bm25"`
}

// DocMeta is the display metadata kept per document for presenting results.
type DocMeta struct {
	URL      string `json:"url"`
	DrugName string `json:"drug_name"`
}

// BuildConfig records the builder settings the index was produced with. The
// query path reuses MinTokenLen so both sides tokenize identically.
type BuildConfig struct {
	MinDocTokens int `json:"min_doc_tokens"`
	MinTokenLen  int `json:"min_token_len"`
}

// Meta is the corpus metadata artifact.
type Meta struct {
	N             int                `json:"n"`
	AvgDocLen     float64            `json:"avgdl"`
	DocLengths    map[string]int     `json:"doclen"`
	Docs          map[string]DocMeta `json:"docs"`
	IndexedFields []string           `json:"indexed_fields"`
	Build         BuildConfig        `json:"build_config"`
}

// Index is the in-memory form of the three artifacts. Once loaded (or built)
// it is never mutated and is safe to share across concurrent queries.
type Index struct {
	Postings map[string]map[string]int
	Terms    map[string]TermStats
	Meta     Meta
}

// IDFClassic computes ln(N / max(1, df)).
func IDFClassic(df, n int) float64 {
	if df < 1 {
		df = 1
	}
	return math.Log(float64(n) / float64(df))
}

// IDFBM25 computes ln((N - df + 0.5) / (df + 0.5) + 1). Given the build
// invariant df <= N the result is never negative.
func IDFBM25(df, n int) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
}

// Round8 rounds v to 8 fractional digits, the precision at which idf values
// are persisted.
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
