package corpus

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// CSVSource reads extractor output: a semicolon-delimited CSV with a header
// row, optionally starting with a UTF-8 BOM (the extractor writes one for
// spreadsheet compatibility). Rows with no non-empty indexed field are
// skipped here, upstream of the builder.
type CSVSource struct {
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
}

// OpenCSV opens the corpus CSV and parses its header.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCorpusRead, "opening corpus CSV %s: %v", path, err)
	}

	br := bufio.NewReader(f)
	if err := skipBOM(br); err != nil {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrCorpusRead, "reading corpus CSV %s: %v", path, err)
	}

	r := csv.NewReader(br)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrCorpusRead, "reading CSV header from %s: %v", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns["url"]; !ok {
		f.Close()
		return nil, apperrors.Newf(apperrors.ErrCorpusRead, "corpus CSV %s has no url column", path)
	}

	return &CSVSource{
		file:    f,
		reader:  r,
		columns: columns,
	}, nil
}

// Next returns the next record with at least one non-empty indexed field, or
// io.EOF when the file is exhausted.
func (s *CSVSource) Next() (*Record, error) {
	for {
		row, err := s.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrCorpusRead, "reading CSV row: %v", err)
		}

		rec := &Record{
			URL:      strings.TrimSpace(s.cell(row, "url")),
			DrugName: strings.TrimSpace(s.cell(row, "drug_name")),
			Fields:   make(map[string]string, len(IndexedFields)),
		}
		for _, f := range IndexedFields {
			rec.Fields[f] = s.cell(row, f)
		}
		if rec.Text() == "" {
			continue
		}
		return rec, nil
	}
}

// Close closes the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}

func (s *CSVSource) cell(row []string, column string) string {
	i, ok := s.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func skipBOM(br *bufio.Reader) error {
	bom, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return fmt.Errorf("peeking for BOM: %w", err)
	}
	if len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		if _, err := br.Discard(3); err != nil {
			return fmt.Errorf("discarding BOM: %w", err)
		}
	}
	return nil
}
