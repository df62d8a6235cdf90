package indexer

import (
	"context"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/Sisa1265/VINF/internal/corpus"
	"github.com/Sisa1265/VINF/internal/indexer/artifact"
)

type sliceSource struct {
	recs []*corpus.Record
	pos  int
}

func (s *sliceSource) Next() (*corpus.Record, error) {
	if s.pos >= len(s.recs) {
		return nil, io.EOF
	}
	rec := s.recs[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceSource) Close() error { return nil }

func rec(url, text string) *corpus.Record {
	return &corpus.Record{
		URL:    url,
		Fields: map[string]string{"indications": text},
	}
}

func build(t *testing.T, opts BuildOptions, recs ...*corpus.Record) (*artifact.Index, *BuildStats) {
	t.Helper()
	b, err := NewBuilder(opts)
	if err != nil {
		t.Fatal(err)
	}
	idx, stats, err := b.Build(context.Background(), &sliceSource{recs: recs})
	if err != nil {
		t.Fatal(err)
	}
	return idx, stats
}

func defaultOpts() BuildOptions {
	return BuildOptions{MinDocTokens: 1, MinTokenLen: 2, Shards: 1}
}

func TestBuildTermFrequencies(t *testing.T) {
	idx, _ := build(t, defaultOpts(),
		rec("https://www.drugs.com/aspirin.html", "Aspirin is a pain reliever. Aspirin treats pain."),
	)

	docID := DocID("https://www.drugs.com/aspirin.html")
	if got := idx.Postings["aspirin"][docID]; got != 2 {
		t.Errorf("tf(aspirin) = %d, want 2", got)
	}
	if got := idx.Postings["treats"][docID]; got != 1 {
		t.Errorf("tf(treats) = %d, want 1", got)
	}
	if idx.Meta.N != 1 {
		t.Errorf("N = %d, want 1", idx.Meta.N)
	}
}

func TestBuildStatistics(t *testing.T) {
	idx, stats := build(t, defaultOpts(),
		rec("https://a", "aspirin pain relief"),
		rec("https://b", "aspirin tablet"),
		rec("https://c", "ibuprofen tablet fever pain"),
	)

	if idx.Meta.N != 3 {
		t.Fatalf("N = %d, want 3", idx.Meta.N)
	}
	wantAvg := float64(3+2+4) / 3.0
	if math.Abs(idx.Meta.AvgDocLen-wantAvg) > 1e-12 {
		t.Errorf("avgdl = %v, want %v", idx.Meta.AvgDocLen, wantAvg)
	}
	if stats.Docs != 3 || stats.Terms != len(idx.Postings) {
		t.Errorf("stats = %+v", stats)
	}

	for term, byDoc := range idx.Postings {
		ts := idx.Terms[term]
		if ts.DF != len(byDoc) {
			t.Errorf("term %q: df=%d, postings=%d", term, ts.DF, len(byDoc))
		}
		if ts.DF > idx.Meta.N {
			t.Errorf("term %q: df=%d exceeds N=%d", term, ts.DF, idx.Meta.N)
		}
		wantClassic := artifact.Round8(math.Log(float64(idx.Meta.N) / float64(ts.DF)))
		if ts.IDFClassic != wantClassic {
			t.Errorf("term %q: idf_classic=%v, want %v", term, ts.IDFClassic, wantClassic)
		}
		df := float64(ts.DF)
		wantBM25 := artifact.Round8(math.Log((float64(idx.Meta.N)-df+0.5)/(df+0.5) + 1.0))
		if ts.IDFBM25 != wantBM25 {
			t.Errorf("term %q: idf_bm25=%v, want %v", term, ts.IDFBM25, wantBM25)
		}
		if ts.IDFBM25 < 0 {
			t.Errorf("term %q: negative bm25 idf %v", term, ts.IDFBM25)
		}
	}

	// df(aspirin) = 2, df(tablet) = 2, df(ibuprofen) = 1.
	if idx.Terms["aspirin"].DF != 2 {
		t.Errorf("df(aspirin) = %d, want 2", idx.Terms["aspirin"].DF)
	}
	if idx.Terms["ibuprofen"].DF != 1 {
		t.Errorf("df(ibuprofen) = %d, want 1", idx.Terms["ibuprofen"].DF)
	}
}

func TestBuildDeduplicatesExactPages(t *testing.T) {
	idx, stats := build(t, defaultOpts(),
		rec("https://a", "aspirin pain"),
		rec("https://a", "aspirin pain"),
		rec("https://b", "ibuprofen"),
	)

	if idx.Meta.N != 2 {
		t.Errorf("N = %d, want 2 after dedup", idx.Meta.N)
	}
	if stats.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", stats.Duplicates)
	}
	docID := DocID("https://a")
	if got := idx.Postings["aspirin"][docID]; got != 1 {
		t.Errorf("tf(aspirin) = %d, duplicate must not double-count", got)
	}
}

func TestBuildDropsShortDocuments(t *testing.T) {
	opts := defaultOpts()
	opts.MinDocTokens = 3
	idx, stats := build(t, opts,
		rec("https://short", "aspirin tablet"),
		rec("https://long", "ibuprofen treats fever and pain"),
	)

	if idx.Meta.N != 1 {
		t.Errorf("N = %d, want 1", idx.Meta.N)
	}
	if stats.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", stats.Dropped)
	}
	// The dropped document contributes nothing at all.
	if _, ok := idx.Postings["aspirin"]; ok {
		t.Error("dropped document left postings behind")
	}
	if _, ok := idx.Meta.DocLengths[DocID("https://short")]; ok {
		t.Error("dropped document left a length record behind")
	}
	wantAvg := float64(len([]string{"ibuprofen", "treats", "fever", "and", "pain"}))
	if idx.Meta.AvgDocLen != wantAvg {
		t.Errorf("avgdl = %v, want %v", idx.Meta.AvgDocLen, wantAvg)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	idx, stats := build(t, defaultOpts())

	if idx.Meta.N != 0 {
		t.Errorf("N = %d, want 0", idx.Meta.N)
	}
	if idx.Meta.AvgDocLen != 0 {
		t.Errorf("avgdl = %v, want 0", idx.Meta.AvgDocLen)
	}
	if len(idx.Postings) != 0 || len(idx.Terms) != 0 {
		t.Errorf("empty corpus produced postings: %d terms", len(idx.Postings))
	}
	if stats.Docs != 0 {
		t.Errorf("stats.Docs = %d", stats.Docs)
	}
}

func TestBuildShardCountInvariant(t *testing.T) {
	recs := []*corpus.Record{
		rec("https://a", "aspirin pain relief 325 mg"),
		rec("https://b", "ibuprofen 200 mg fever pain"),
		rec("https://c", "methotrexate 2.5 mg once weekly"),
		rec("https://d", "tofacitinib boxed warning infections"),
		rec("https://a", "aspirin pain relief 325 mg"), // duplicate
	}

	single, _ := build(t, BuildOptions{MinDocTokens: 1, MinTokenLen: 2, Shards: 1}, recs...)
	sharded, _ := build(t, BuildOptions{MinDocTokens: 1, MinTokenLen: 2, Shards: 4}, recs...)

	if !reflect.DeepEqual(single.Postings, sharded.Postings) {
		t.Error("postings differ between 1-shard and 4-shard builds")
	}
	if !reflect.DeepEqual(single.Terms, sharded.Terms) {
		t.Error("term statistics differ between 1-shard and 4-shard builds")
	}
	if !reflect.DeepEqual(single.Meta, sharded.Meta) {
		t.Error("corpus metadata differs between 1-shard and 4-shard builds")
	}
}

func TestDocIDStable(t *testing.T) {
	a := DocID("https://www.drugs.com/aspirin.html")
	b := DocID("https://www.drugs.com/aspirin.html")
	if a != b {
		t.Errorf("DocID not stable: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("DocID length = %d, want 32 hex chars", len(a))
	}
	if a == DocID("https://www.drugs.com/ibuprofen.html") {
		t.Error("distinct URLs produced identical ids")
	}
}

func TestNewBuilderRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts BuildOptions
	}{
		{"negative min doc tokens", BuildOptions{MinDocTokens: -1, MinTokenLen: 2, Shards: 1}},
		{"zero min token len", BuildOptions{MinDocTokens: 1, MinTokenLen: 0, Shards: 1}},
		{"zero shards", BuildOptions{MinDocTokens: 1, MinTokenLen: 2, Shards: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBuilder(tt.opts); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}
