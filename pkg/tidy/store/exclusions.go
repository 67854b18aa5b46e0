package store

import (
	"context"
	"fmt"

	"github.com/jamesainslie/tidy/pkg/tidy/exclude"
)

// ListExclusions returns the stored exclusion rules in creation order.
func (s *Store) ListExclusions(ctx context.Context) ([]exclude.Rule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, pattern, pattern_type FROM exclusions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing exclusions: %w", err)
	}
	defer rows.Close()

	var out []exclude.Rule
	for rows.Next() {
		var r exclude.Rule
		var typ string
		if err := rows.Scan(&r.ID, &r.Pattern, &typ); err != nil {
			return nil, fmt.Errorf("listing exclusions: %w", err)
		}
		r.Type = exclude.PatternType(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddExclusion validates and stores an exclusion rule.
func (s *Store) AddExclusion(ctx context.Context, r exclude.Rule) (int64, error) {
	if err := exclude.Validate(r); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO exclusions (pattern, pattern_type) VALUES (?, ?)",
		r.Pattern, string(r.Type))
	if err != nil {
		return 0, fmt.Errorf("adding exclusion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	logger.Info("added exclusion", "id", id, "pattern", r.Pattern, "type", r.Type)
	return id, nil
}

// DeleteExclusion removes an exclusion rule.
func (s *Store) DeleteExclusion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM exclusions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting exclusion %d: %w", id, err)
	}
	return checkAffected(res, "exclusion", id)
}

// Matcher compiles the stored exclusions.
func (s *Store) Matcher(ctx context.Context) (*exclude.Matcher, error) {
	list, err := s.ListExclusions(ctx)
	if err != nil {
		return nil, err
	}
	return exclude.FromRules(list)
}
