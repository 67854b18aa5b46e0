package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

const ruleColumns = `id, name, priority, enabled, conditions, condition_logic, action_type,
	action_destination, action_rename_pattern, create_date_subfolder, created_at, updated_at`

// ListRules returns every custom rule, highest priority first. Rules with
// equal priority are in creation order.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+ruleColumns+" FROM rules ORDER BY priority DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("listing rules: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRule returns one rule.
func (s *Store) GetRule(ctx context.Context, id int64) (*rules.Rule, error) {
	r, err := scanRule(s.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM rules WHERE id = ?", id))
	if isNoRows(err) {
		return nil, notFound("rule", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading rule %d: %w", id, err)
	}
	return r, nil
}

// SaveRule validates r and inserts it when its ID is zero, otherwise
// updates the stored rule. It returns the rule's id.
func (s *Store) SaveRule(ctx context.Context, r rules.Rule) (int64, error) {
	if r.Logic == "" {
		r.Logic = rules.And
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	conds, err := json.Marshal(r.Conditions)
	if err != nil {
		return 0, fmt.Errorf("encoding conditions: %w", err)
	}
	now := time.Now().UTC()

	if r.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO rules (name, priority, enabled, conditions, condition_logic,
			action_type, action_destination, action_rename_pattern, create_date_subfolder, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.Priority, boolInt(r.Enabled), string(conds), string(r.Logic),
			string(r.Action.Type), r.Action.Destination, r.Action.RenamePattern, boolInt(r.Action.DateSubfolder), now, now)
		if err != nil {
			return 0, fmt.Errorf("inserting rule: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		logger.Info("created rule", "id", id, "name", r.Name)
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, `UPDATE rules SET name = ?, priority = ?, enabled = ?, conditions = ?,
		condition_logic = ?, action_type = ?, action_destination = ?, action_rename_pattern = ?,
		create_date_subfolder = ?, updated_at = ? WHERE id = ?`,
		r.Name, r.Priority, boolInt(r.Enabled), string(conds), string(r.Logic),
		string(r.Action.Type), r.Action.Destination, r.Action.RenamePattern, boolInt(r.Action.DateSubfolder), now, r.ID)
	if err != nil {
		return 0, fmt.Errorf("updating rule %d: %w", r.ID, err)
	}
	if err := checkAffected(res, "rule", r.ID); err != nil {
		return 0, err
	}
	logger.Info("updated rule", "id", r.ID, "name", r.Name)
	return r.ID, nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rule %d: %w", id, err)
	}
	if err := checkAffected(res, "rule", id); err != nil {
		return err
	}
	logger.Info("deleted rule", "id", id)
	return nil
}

// SetRuleEnabled toggles a rule.
func (s *Store) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE rules SET enabled = ?, updated_at = ? WHERE id = ?",
		boolInt(enabled), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating rule %d: %w", id, err)
	}
	return checkAffected(res, "rule", id)
}

func scanRule(sc scanner) (*rules.Rule, error) {
	var (
		r             rules.Rule
		enabled, date int
		conds, logic  string
		action        string
		dest, pattern sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Name, &r.Priority, &enabled, &conds, &logic, &action,
		&dest, &pattern, &date, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(conds), &r.Conditions); err != nil {
		return nil, fmt.Errorf("rule %d conditions: %w", r.ID, err)
	}
	r.Enabled = enabled != 0
	r.Logic = rules.Logic(logic)
	r.Action = rules.Action{
		Type:          rules.ActionType(action),
		Destination:   dest.String,
		RenamePattern: pattern.String,
		DateSubfolder: date != 0,
	}
	return &r, nil
}
