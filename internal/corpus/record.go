// Package corpus defines the record stream the index builder consumes: one
// record per catalogued drug page, keyed by its source URL, with a fixed set
// of named free-text fields produced by the upstream extraction pipeline.
package corpus

import "strings"

// IndexedFields is the fixed order in which field text is concatenated into
// a document. The order is part of the index contract: changing it changes
// document fingerprints and therefore deduplication.
var IndexedFields = []string{
	"drug_name",
	"generic_name",
	"brand_names",
	"dosage_forms",
	"drug_class",
	"availability",
	"indications",
	"dosage",
	"side_effects",
	"warnings",
}

// Record is one extracted drug page.
type Record struct {
	URL      string
	DrugName string
	Fields   map[string]string
}

// Text returns the newline-joined concatenation of the non-empty indexed
// field values, in IndexedFields order. An empty result means the record has
// nothing to index.
func (r *Record) Text() string {
	parts := make([]string, 0, len(IndexedFields))
	for _, f := range IndexedFields {
		val := strings.TrimSpace(r.Fields[f])
		if val != "" {
			parts = append(parts, val)
		}
	}
	return strings.Join(parts, "\n")
}

// Source yields corpus records one at a time. Next returns io.EOF after the
// last record. Implementations are not safe for concurrent use; the builder
// reads from a single goroutine.
type Source interface {
	Next() (*Record, error)
	Close() error
}
