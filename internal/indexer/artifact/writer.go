package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Publish writes the three artifacts into a staging directory next to dir
// and atomically swaps it into place. A previously published index at dir is
// replaced only after the new set is completely written and synced; on any
// error the previous index is left untouched.
//
// Terms are written in sorted order and no timestamps are stored, so
// rebuilding from an unchanged corpus yields byte-identical artifacts.
func Publish(dir string, idx *Index) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating index parent directory: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".index-staging-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writePostings(filepath.Join(staging, PostingsFile), idx); err != nil {
		return err
	}
	if err := writeTermStats(filepath.Join(staging, TermStatsFile), idx); err != nil {
		return err
	}
	if err := writeMeta(filepath.Join(staging, MetaFile), idx); err != nil {
		return err
	}

	return swap(staging, dir)
}

func writePostings(path string, idx *Index) error {
	return writeJSONLines(path, sortedTerms(idx.Postings), func(term string) (any, error) {
		return PostingsEntry{Term: term, Postings: idx.Postings[term]}, nil
	})
}

func writeTermStats(path string, idx *Index) error {
	return writeJSONLines(path, sortedTerms(idx.Postings), func(term string) (any, error) {
		stats, ok := idx.Terms[term]
		if !ok {
			return nil, fmt.Errorf("term %q has postings but no statistics", term)
		}
		return stats, nil
	})
}

func writeMeta(path string, idx *Index) error {
	data, err := json.Marshal(idx.Meta)
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeJSONLines(path string, terms []string, line func(term string) (any, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, term := range terms {
		obj, err := line(term)
		if err != nil {
			return err
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("marshaling entry for term %q: %w", term, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// swap renames staging over dir. An existing index is moved aside first so a
// crash mid-swap leaves either the old or the new complete set, never a mix.
func swap(staging, dir string) error {
	old := dir + ".old"
	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("clearing previous backup: %w", err)
		}
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("moving previous index aside: %w", err)
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		// Restore the previous index rather than leaving nothing published.
		if _, statErr := os.Stat(old); statErr == nil {
			_ = os.Rename(old, dir)
		}
		return fmt.Errorf("publishing index: %w", err)
	}
	_ = os.RemoveAll(old)
	return nil
}

func sortedTerms(postings map[string]map[string]int) []string {
	terms := make([]string, 0, len(postings))
	for t := range postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
