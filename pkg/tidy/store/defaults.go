package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

// ListDefaultRules returns the per-category default rules, highest
// priority first.
func (s *Store) ListDefaultRules(ctx context.Context) ([]rules.DefaultRule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category, enabled, destination, create_date_subfolder, priority FROM default_rules ORDER BY priority DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing default rules: %w", err)
	}
	defer rows.Close()

	var out []rules.DefaultRule
	for rows.Next() {
		var (
			d             rules.DefaultRule
			cat           string
			enabled, date int
		)
		if err := rows.Scan(&cat, &enabled, &d.Destination, &date, &d.Priority); err != nil {
			return nil, fmt.Errorf("listing default rules: %w", err)
		}
		d.Category = classify.Parse(cat)
		d.Enabled = enabled != 0
		d.DateSubfolder = date != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetDefaultRule inserts or replaces the default rule for d.Category. An
// empty destination defaults to the category folder.
func (s *Store) SetDefaultRule(ctx context.Context, d rules.DefaultRule) error {
	if d.Destination == "" {
		d.Destination = d.Category.Folder()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO default_rules (category, enabled, destination, create_date_subfolder, priority, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET enabled = excluded.enabled, destination = excluded.destination,
			create_date_subfolder = excluded.create_date_subfolder, priority = excluded.priority,
			updated_at = excluded.updated_at`,
		d.Category.String(), boolInt(d.Enabled), d.Destination, boolInt(d.DateSubfolder), d.Priority, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving default rule %s: %w", d.Category, err)
	}
	logger.Debug("saved default rule", "category", d.Category, "enabled", d.Enabled, "destination", d.Destination)
	return nil
}
