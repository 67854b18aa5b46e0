package store

import (
	"context"
	"fmt"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
)

// ListMappings returns the extension mappings ordered by extension.
func (s *Store) ListMappings(ctx context.Context) ([]classify.Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT extension, category, target_folder FROM extension_mappings ORDER BY extension")
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var out []classify.Mapping
	for rows.Next() {
		var m classify.Mapping
		var cat string
		if err := rows.Scan(&m.Extension, &cat, &m.Folder); err != nil {
			return nil, fmt.Errorf("listing mappings: %w", err)
		}
		m.Category = classify.Parse(cat)
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetMapping inserts or replaces the mapping for an extension. An empty
// folder defaults to the category's folder.
func (s *Store) SetMapping(ctx context.Context, m classify.Mapping) error {
	ext := classify.Normalize(m.Extension)
	if ext == "" {
		return fmt.Errorf("mapping needs an extension")
	}
	if m.Folder == "" {
		m.Folder = m.Category.Folder()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO extension_mappings (extension, category, target_folder)
		VALUES (?, ?, ?)
		ON CONFLICT(extension) DO UPDATE SET category = excluded.category, target_folder = excluded.target_folder`,
		ext, m.Category.String(), m.Folder)
	if err != nil {
		return fmt.Errorf("saving mapping %s: %w", ext, err)
	}
	logger.Info("saved extension mapping", "extension", ext, "category", m.Category, "folder", m.Folder)
	return nil
}

// DeleteMapping removes the mapping for an extension.
func (s *Store) DeleteMapping(ctx context.Context, ext string) error {
	ext = classify.Normalize(ext)
	res, err := s.db.ExecContext(ctx, "DELETE FROM extension_mappings WHERE extension = ?", ext)
	if err != nil {
		return fmt.Errorf("deleting mapping %s: %w", ext, err)
	}
	if err := checkAffected(res, "mapping", ext); err != nil {
		return err
	}
	logger.Info("deleted extension mapping", "extension", ext)
	return nil
}

// Overrides loads the stored mappings as a classifier.
func (s *Store) Overrides(ctx context.Context) (*classify.Overrides, error) {
	mappings, err := s.ListMappings(ctx)
	if err != nil {
		return nil, err
	}
	return classify.NewOverrides(mappings), nil
}
