// Package server is the reference backend for the admin table contract:
// a chi router over a sqlite-backed resource store, honoring the same list,
// mutation, and analysis endpoints the client package speaks.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/table"
)

// RecordStore persists rows of every resource in a single records table.
// The document itself is stored as JSON; filtering and sorting are applied
// over the decoded documents so dotted-path fields behave exactly like the
// client-side resolvers expect.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore wraps an open database handle.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Migrate creates the records table. Run once at startup.
func (s *RecordStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			resource   TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP,
			PRIMARY KEY (resource, id)
		);

		CREATE INDEX IF NOT EXISTS idx_records_resource_created
			ON records (resource, created_at);
	`)
	return err
}

// ListQuery is one decoded list request.
type ListQuery struct {
	Page        int
	PerPage     int
	SortFields  []string
	SortDesc    []bool
	Filters     map[string]table.FilterValue
	ShowDeleted bool
}

// Insert stores a new row for a resource. The row must carry an "id".
func (s *RecordStore) Insert(ctx context.Context, resource string, row schema.Row) error {
	doc, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (resource, id, doc, created_at) VALUES (?, ?, ?, ?)`,
		resource, row.ID(), string(doc), time.Now().UTC(),
	)
	return err
}

// Get returns one row, including soft-deleted ones.
func (s *RecordStore) Get(ctx context.Context, resource, id string) (schema.Row, error) {
	var doc string
	var deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, deleted_at FROM records WHERE resource = ? AND id = ?`,
		resource, id,
	).Scan(&doc, &deletedAt)
	if err != nil {
		return nil, err
	}
	return decodeRecord(doc, deletedAt)
}

// Update merges the given values over the stored document.
func (s *RecordStore) Update(ctx context.Context, resource, id string, values map[string]any) (schema.Row, error) {
	row, err := s.Get(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		row[k] = v
	}
	delete(row, "deletedAt")
	doc, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE records SET doc = ? WHERE resource = ? AND id = ?`,
		string(doc), resource, id,
	)
	return row, err
}

// SoftDelete marks a row deleted without removing it.
func (s *RecordStore) SoftDelete(ctx context.Context, resource, id string) error {
	return s.exec(ctx,
		`UPDATE records SET deleted_at = ? WHERE resource = ? AND id = ?`,
		time.Now().UTC(), resource, id,
	)
}

// Restore clears the deletion mark.
func (s *RecordStore) Restore(ctx context.Context, resource, id string) error {
	return s.exec(ctx,
		`UPDATE records SET deleted_at = NULL WHERE resource = ? AND id = ?`,
		resource, id,
	)
}

// ForceDelete removes the row permanently.
func (s *RecordStore) ForceDelete(ctx context.Context, resource, id string) error {
	return s.exec(ctx,
		`DELETE FROM records WHERE resource = ? AND id = ?`,
		resource, id,
	)
}

func (s *RecordStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns one page of a resource plus the unpaginated match count.
// Deleted rows are excluded unless ShowDeleted is set; filters and sorting
// run over the decoded documents.
func (s *RecordStore) List(ctx context.Context, resource string, q ListQuery) ([]schema.Row, int, error) {
	var b strings.Builder
	b.WriteString(`SELECT doc, deleted_at FROM records WHERE resource = ?`)
	if !q.ShowDeleted {
		b.WriteString(` AND deleted_at IS NULL`)
	}
	b.WriteString(` ORDER BY created_at`)

	rows, err := s.db.QueryContext(ctx, b.String(), resource)
	if err != nil {
		return nil, 0, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var matched []schema.Row
	for rows.Next() {
		var doc string
		var deletedAt sql.NullTime
		if err := rows.Scan(&doc, &deletedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning record: %w", err)
		}
		row, err := decodeRecord(doc, deletedAt)
		if err != nil {
			return nil, 0, err
		}
		if matchFilters(row, q.Filters) {
			matched = append(matched, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	sortRows(matched, q.SortFields, q.SortDesc)

	total := len(matched)
	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	start := (page - 1) * perPage
	if start >= total {
		return []schema.Row{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func decodeRecord(doc string, deletedAt sql.NullTime) (schema.Row, error) {
	var row schema.Row
	if err := json.Unmarshal([]byte(doc), &row); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if deletedAt.Valid {
		row["deletedAt"] = deletedAt.Time.Format(time.RFC3339)
	}
	return row, nil
}

// sortRows orders rows by the dotted-path sort fields, pairwise with the
// desc flags. Numeric values compare numerically, everything else by string.
func sortRows(rows []schema.Row, fields []string, desc []bool) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for n, field := range fields {
			va, _ := rows[i].Path(field)
			vb, _ := rows[j].Path(field)
			cmp := compareValues(va, vb)
			if cmp == 0 {
				continue
			}
			if n < len(desc) && desc[n] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(
		strings.ToLower(schema.Stringify(a)),
		strings.ToLower(schema.Stringify(b)),
	)
}
