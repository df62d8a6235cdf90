package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/Sisa1265/VINF/pkg/errors"
)

// PostgresSource streams corpus records out of a PostgreSQL table loaded by
// the extraction pipeline. The table carries one row per page with a url
// column plus one text column per indexed field.
type PostgresSource struct {
	rows *sql.Rows
}

// OpenPostgres runs a single streaming SELECT over the corpus table. The
// column order mirrors IndexedFields so the scan targets line up.
func OpenPostgres(ctx context.Context, db *sql.DB, table string) (*PostgresSource, error) {
	cols := append([]string{"url"}, IndexedFields...)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY url", strings.Join(cols, ", "), table) //nolint:gosec // table name comes from config, not user input
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrCorpusRead, "querying corpus table %s: %v", table, err)
	}
	return &PostgresSource{rows: rows}, nil
}

// Next scans the next row, skipping rows with no non-empty indexed field,
// and returns io.EOF when the result set is exhausted.
func (s *PostgresSource) Next() (*Record, error) {
	for {
		if !s.rows.Next() {
			if err := s.rows.Err(); err != nil {
				return nil, apperrors.Newf(apperrors.ErrCorpusRead, "reading corpus row: %v", err)
			}
			return nil, io.EOF
		}

		var url sql.NullString
		fields := make([]sql.NullString, len(IndexedFields))
		targets := make([]any, 0, len(IndexedFields)+1)
		targets = append(targets, &url)
		for i := range fields {
			targets = append(targets, &fields[i])
		}
		if err := s.rows.Scan(targets...); err != nil {
			return nil, apperrors.Newf(apperrors.ErrCorpusRead, "scanning corpus row: %v", err)
		}

		rec := &Record{
			URL:    strings.TrimSpace(url.String),
			Fields: make(map[string]string, len(IndexedFields)),
		}
		for i, f := range IndexedFields {
			rec.Fields[f] = fields[i].String
		}
		rec.DrugName = strings.TrimSpace(rec.Fields["drug_name"])
		if rec.Text() == "" {
			continue
		}
		return rec, nil
	}
}

// Close releases the underlying result set.
func (s *PostgresSource) Close() error {
	return s.rows.Close()
}
