package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/history"
)

var _ history.Store = (*Store)(nil)

const historyColumns = "id, operation_type, description, details, files_affected, is_undone, created_at"

// InsertHistory implements history.Store.
func (s *Store) InsertHistory(ctx context.Context, e *history.Entry) (int64, error) {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO history (operation_type, description, details, files_affected, is_undone, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(e.Operation), e.Description, string(e.Details), e.FilesAffected, boolInt(e.Undone), created.UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting history: %w", err)
	}
	return res.LastInsertId()
}

// GetHistory implements history.Store.
func (s *Store) GetHistory(ctx context.Context, id int64) (*history.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+historyColumns+" FROM history WHERE id = ?", id)
	e, err := scanHistory(row)
	if isNoRows(err) {
		return nil, notFound("history entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading history entry %d: %w", id, err)
	}
	return e, nil
}

// ListHistory implements history.Store. Entries are newest first; a
// non-positive limit lists everything.
func (s *Store) ListHistory(ctx context.Context, limit, offset int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM history ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("listing history: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// MarkHistoryUndone implements history.Store.
func (s *Store) MarkHistoryUndone(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE history SET is_undone = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking history entry %d undone: %w", id, err)
	}
	return checkAffected(res, "history entry", id)
}

// ClearHistory implements history.Store.
func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(sc scanner) (*history.Entry, error) {
	var (
		e       history.Entry
		op      string
		details sql.NullString
		undone  int
	)
	if err := sc.Scan(&e.ID, &op, &e.Description, &details, &e.FilesAffected, &undone, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Operation = history.Operation(op)
	e.Undone = undone != 0
	if details.Valid && details.String != "" {
		e.Details = []byte(details.String)
	}
	return &e, nil
}
