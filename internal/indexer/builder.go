// Package indexer builds the inverted index. The build is a single batch
// pass over a corpus snapshot: records are deduplicated, tokenized, and
// accumulated into postings, then term and corpus statistics are computed
// and the whole artifact set is published atomically. A build never mutates
// a previously published index.
package indexer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Sisa1265/VINF/internal/corpus"
	"github.com/Sisa1265/VINF/internal/indexer/artifact"
	"github.com/Sisa1265/VINF/internal/indexer/tokenizer"
	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// BuildOptions configures one build pass.
type BuildOptions struct {
	// MinDocTokens drops documents that tokenize to fewer tokens. A dropped
	// document contributes nothing: no postings, no length, not counted in N.
	MinDocTokens int
	// MinTokenLen is the tokenizer cutoff, recorded in the index so the
	// query path tokenizes identically.
	MinTokenLen int
	// Shards is the number of accumulator workers. Documents are routed by
	// doc_id hash, so each document is owned by exactly one shard and
	// duplicates of one URL always land on the same shard.
	Shards int
}

// BuildStats summarises one build pass.
type BuildStats struct {
	Docs       int
	Terms      int
	AvgDocLen  float64
	Duplicates int
	Dropped    int
}

// Builder runs build passes with fixed options.
type Builder struct {
	opts   BuildOptions
	logger *slog.Logger
}

// NewBuilder validates the options and returns a Builder.
func NewBuilder(opts BuildOptions) (*Builder, error) {
	if opts.MinDocTokens < 0 {
		return nil, apperrors.Newf(apperrors.ErrConfig, "min doc tokens must be >= 0, got %d", opts.MinDocTokens)
	}
	if opts.MinTokenLen < 1 {
		return nil, apperrors.Newf(apperrors.ErrConfig, "min token length must be >= 1, got %d", opts.MinTokenLen)
	}
	if opts.Shards < 1 {
		return nil, apperrors.Newf(apperrors.ErrConfig, "shards must be >= 1, got %d", opts.Shards)
	}
	return &Builder{
		opts:   opts,
		logger: slog.Default().With("component", "index-builder"),
	}, nil
}

// DocID derives the stable document id from its source URL. Identical URLs
// yield identical ids across rebuilds.
func DocID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Build consumes the corpus stream and returns the complete in-memory index.
// The source is read from a single goroutine; accumulation is fanned out
// across shard workers and merged afterwards.
func (b *Builder) Build(ctx context.Context, src corpus.Source) (*artifact.Index, *BuildStats, error) {
	shards := make([]*accumulator, b.opts.Shards)
	feeds := make([]chan ownedRecord, b.opts.Shards)
	for i := range shards {
		shards[i] = newAccumulator(b.opts)
		feeds[i] = make(chan ownedRecord, 64)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range shards {
		acc := shards[i]
		feed := feeds[i]
		g.Go(func() error {
			for rec := range feed {
				acc.add(rec)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer func() {
			for _, feed := range feeds {
				close(feed)
			}
		}()
		for {
			rec, err := src.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading corpus: %w", err)
			}
			owned := ownedRecord{rec: rec, docID: DocID(rec.URL)}
			feed := feeds[shardFor(owned.docID, b.opts.Shards)]
			select {
			case feed <- owned:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	idx, stats := merge(shards, b.opts)
	b.logger.Info("build pass complete",
		"docs", stats.Docs,
		"terms", stats.Terms,
		"avgdl", stats.AvgDocLen,
		"duplicates_skipped", stats.Duplicates,
		"short_docs_dropped", stats.Dropped,
	)
	return idx, stats, nil
}

type ownedRecord struct {
	rec   *corpus.Record
	docID string
}

// accumulator is the shard-local mutable build state. No shard ever observes
// another shard's partial state; the merge step is the only synchronisation
// point.
type accumulator struct {
	opts       BuildOptions
	postings   map[string]map[string]int
	docLengths map[string]int
	docs       map[string]artifact.DocMeta
	seen       map[string]struct{}
	duplicates int
	dropped    int
}

func newAccumulator(opts BuildOptions) *accumulator {
	return &accumulator{
		opts:       opts,
		postings:   make(map[string]map[string]int),
		docLengths: make(map[string]int),
		docs:       make(map[string]artifact.DocMeta),
		seen:       make(map[string]struct{}),
	}
}

func (a *accumulator) add(owned ownedRecord) {
	text := owned.rec.Text()
	fingerprint := md5.Sum([]byte(text))
	dedupKey := owned.rec.URL + "\x00" + hex.EncodeToString(fingerprint[:])
	if _, dup := a.seen[dedupKey]; dup {
		a.duplicates++
		return
	}
	a.seen[dedupKey] = struct{}{}

	tokens := tokenizer.Tokenize(text, a.opts.MinTokenLen)
	if len(tokens) < a.opts.MinDocTokens {
		a.dropped++
		return
	}

	docID := owned.docID
	a.docLengths[docID] = len(tokens)
	a.docs[docID] = artifact.DocMeta{
		URL:      owned.rec.URL,
		DrugName: owned.rec.DrugName,
	}
	for _, t := range tokens {
		byDoc, ok := a.postings[t]
		if !ok {
			byDoc = make(map[string]int)
			a.postings[t] = byDoc
		}
		byDoc[docID]++
	}
}

// merge combines shard accumulators into the final index: term frequencies
// are summed per (term, doc_id) and document lengths are disjoint by
// construction, then df and both idf variants are computed per term.
func merge(shards []*accumulator, opts BuildOptions) (*artifact.Index, *BuildStats) {
	idx := &artifact.Index{
		Postings: make(map[string]map[string]int),
		Terms:    make(map[string]artifact.TermStats),
	}
	meta := artifact.Meta{
		DocLengths:    make(map[string]int),
		Docs:          make(map[string]artifact.DocMeta),
		IndexedFields: corpus.IndexedFields,
		Build: artifact.BuildConfig{
			MinDocTokens: opts.MinDocTokens,
			MinTokenLen:  opts.MinTokenLen,
		},
	}
	stats := &BuildStats{}

	totalTokens := 0
	for _, acc := range shards {
		stats.Duplicates += acc.duplicates
		stats.Dropped += acc.dropped
		for docID, length := range acc.docLengths {
			meta.DocLengths[docID] = length
			totalTokens += length
		}
		for docID, dm := range acc.docs {
			meta.Docs[docID] = dm
		}
		for term, byDoc := range acc.postings {
			merged, ok := idx.Postings[term]
			if !ok {
				merged = make(map[string]int, len(byDoc))
				idx.Postings[term] = merged
			}
			for docID, tf := range byDoc {
				merged[docID] += tf
			}
		}
	}

	meta.N = len(meta.DocLengths)
	if meta.N > 0 {
		meta.AvgDocLen = float64(totalTokens) / float64(meta.N)
	}
	idx.Meta = meta

	for term, byDoc := range idx.Postings {
		df := len(byDoc)
		idx.Terms[term] = artifact.TermStats{
			Term:       term,
			DF:         df,
			IDFClassic: artifact.Round8(artifact.IDFClassic(df, meta.N)),
			IDFBM25:    artifact.Round8(artifact.IDFBM25(df, meta.N)),
		}
	}

	stats.Docs = meta.N
	stats.Terms = len(idx.Postings)
	stats.AvgDocLen = meta.AvgDocLen
	return idx, stats
}

func shardFor(docID string, shards int) int {
	h := fnv.New32a()
	h.Write([]byte(docID))
	return int(h.Sum32() % uint32(shards))
}
