package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// Load reads and validates all three artifacts from dir. Any missing,
// malformed, or mutually inconsistent artifact fails the whole load with
// ErrIndexCorrupt; there is no partial load.
func Load(dir string) (*Index, error) {
	idx := &Index{
		Postings: make(map[string]map[string]int),
		Terms:    make(map[string]TermStats),
	}

	if err := readJSONLines(filepath.Join(dir, PostingsFile), func(data []byte) error {
		var entry PostingsEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("parsing postings entry: %w", err)
		}
		if entry.Term == "" {
			return fmt.Errorf("postings entry with empty term")
		}
		idx.Postings[entry.Term] = entry.Postings
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readJSONLines(filepath.Join(dir, TermStatsFile), func(data []byte) error {
		var stats TermStats
		if err := json.Unmarshal(data, &stats); err != nil {
			return fmt.Errorf("parsing term stats entry: %w", err)
		}
		if stats.Term == "" {
			return fmt.Errorf("term stats entry with empty term")
		}
		idx.Terms[stats.Term] = stats
		return nil
	}); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(dir, MetaFile)
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrIndexCorrupt, "reading %s: %v", MetaFile, err)
	}
	if err := json.Unmarshal(metaData, &idx.Meta); err != nil {
		return nil, apperrors.Newf(apperrors.ErrIndexCorrupt, "parsing %s: %v", MetaFile, err)
	}

	if err := idx.validate(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrIndexCorrupt, "index at %s: %v", dir, err)
	}
	return idx, nil
}

// validate enforces the cross-artifact invariants the query engine relies on.
func (idx *Index) validate() error {
	if idx.Meta.N < 0 {
		return fmt.Errorf("negative document count %d", idx.Meta.N)
	}
	if idx.Meta.N == 0 && idx.Meta.AvgDocLen != 0 {
		return fmt.Errorf("avgdl %v with zero documents", idx.Meta.AvgDocLen)
	}
	if got, want := len(idx.Meta.DocLengths), idx.Meta.N; got != want {
		return fmt.Errorf("doclen has %d entries, meta says N=%d", got, want)
	}
	if idx.Meta.Build.MinTokenLen < 1 {
		return fmt.Errorf("build_config min_token_len %d", idx.Meta.Build.MinTokenLen)
	}
	for term, postings := range idx.Postings {
		stats, ok := idx.Terms[term]
		if !ok {
			return fmt.Errorf("term %q has postings but no statistics", term)
		}
		if stats.DF != len(postings) {
			return fmt.Errorf("term %q: df=%d but %d postings", term, stats.DF, len(postings))
		}
		if stats.DF > idx.Meta.N {
			return fmt.Errorf("term %q: df=%d exceeds N=%d", term, stats.DF, idx.Meta.N)
		}
		for docID, tf := range postings {
			if tf < 1 {
				return fmt.Errorf("term %q: tf=%d for document %s", term, tf, docID)
			}
			if _, ok := idx.Meta.DocLengths[docID]; !ok {
				return fmt.Errorf("term %q posted in unknown document %s", term, docID)
			}
		}
	}
	for term := range idx.Terms {
		if _, ok := idx.Postings[term]; !ok {
			return fmt.Errorf("term %q has statistics but no postings", term)
		}
	}
	return nil
}

func readJSONLines(path string, parse func(data []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Newf(apperrors.ErrIndexCorrupt, "reading %s: %v", filepath.Base(path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := parse(line); err != nil {
			return apperrors.Newf(apperrors.ErrIndexCorrupt, "%s line %d: %v", filepath.Base(path), lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return apperrors.Newf(apperrors.ErrIndexCorrupt, "scanning %s: %v", filepath.Base(path), err)
	}
	return nil
}
