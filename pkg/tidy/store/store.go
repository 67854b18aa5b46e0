// Package store persists tidy's state in SQLite: the history ledger, custom
// and default rules, extension mappings, exclusions and settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
	"github.com/jamesainslie/tidy/pkg/tidy/store/migrations"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("store")

// Store is the SQLite-backed state store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, applies pending migrations
// and seeds the extension mappings and default rules when their tables
// are empty.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seed(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("opened database", "path", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the applied migration version and whether the
// last migration left the schema dirty.
func (s *Store) SchemaVersion() (uint, bool, error) {
	return migrations.Version(s.db)
}

func (s *Store) seed(ctx context.Context) error {
	n, err := s.count(ctx, "extension_mappings")
	if err != nil {
		return err
	}
	if n == 0 {
		if err := s.insertMappings(ctx, SeedMappings()); err != nil {
			return err
		}
		logger.Info("seeded extension mappings", "count", len(SeedMappings()))
	}

	n, err = s.count(ctx, "default_rules")
	if err != nil {
		return err
	}
	if n == 0 {
		for _, d := range rules.DefaultRules() {
			if err := s.SetDefaultRule(ctx, d); err != nil {
				return err
			}
		}
		logger.Info("seeded default rules")
	}
	return nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) insertMappings(ctx context.Context, mappings []classify.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range mappings {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO extension_mappings (extension, category, target_folder) VALUES (?, ?, ?)",
			m.Extension, m.Category.String(), m.Folder); err != nil {
			return fmt.Errorf("seeding mapping %s: %w", m.Extension, err)
		}
	}
	return tx.Commit()
}

// SeedMappings returns the extension mappings a new database starts with.
// Every entry agrees with the built-in classification.
func SeedMappings() []classify.Mapping {
	groups := []struct {
		cat  classify.Category
		exts []string
	}{
		{classify.Images, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico", ".psd", ".ai"}},
		{classify.Documents, []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".hwp", ".hwpx", ".txt", ".rtf", ".odt"}},
		{classify.Videos, []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}},
		{classify.Music, []string{".mp3", ".wav", ".flac", ".aac", ".m4a", ".wma", ".ogg"}},
		{classify.Archives, []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"}},
		{classify.Installers, []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm"}},
		{classify.Code, []string{
			".py", ".js", ".ts", ".tsx", ".jsx", ".html", ".css", ".java", ".cpp",
			".c", ".h", ".rs", ".go", ".json", ".xml", ".yaml", ".yml", ".md",
		}},
	}

	var out []classify.Mapping
	for _, g := range groups {
		for _, ext := range g.exts {
			out = append(out, classify.Mapping{Extension: ext, Category: g.cat, Folder: g.cat.Folder()})
		}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, types.ErrNotFound)
}

func checkAffected(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
