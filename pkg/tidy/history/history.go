// Package history keeps the ledger of file-system mutations and reverses
// them on request.
//
// Every recorded entry carries a typed replay payload. Undo dispatches on
// the payload type, and an entry can be undone at most once. Entries are
// never deleted individually; Clear removes them all.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/trash"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("history")

// Operation is the kind of user-visible operation an entry describes.
type Operation string

// Recorded operations.
const (
	OpMove     Operation = "move"
	OpCopy     Operation = "copy"
	OpRename   Operation = "rename"
	OpDelete   Operation = "delete"
	OpOrganize Operation = "organize"
)

// Entry is one ledger row.
type Entry struct {
	ID            int64           `json:"id" yaml:"id"`
	Operation     Operation       `json:"operation_type" yaml:"operation_type"`
	Description   string          `json:"description" yaml:"description"`
	Details       json.RawMessage `json:"details,omitempty" yaml:"-"`
	Payload       Payload         `json:"-" yaml:"payload,omitempty"`
	FilesAffected int             `json:"files_affected" yaml:"files_affected"`
	Undone        bool            `json:"is_undone" yaml:"is_undone"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
}

// Store persists ledger entries. Implementations return an error wrapping
// types.ErrNotFound from GetHistory and MarkHistoryUndone when the id is
// unknown.
type Store interface {
	InsertHistory(ctx context.Context, e *Entry) (int64, error)
	GetHistory(ctx context.Context, id int64) (*Entry, error)
	ListHistory(ctx context.Context, limit, offset int) ([]Entry, error)
	MarkHistoryUndone(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) error
}

// Recorder appends entries to a ledger. Mutating components accept a
// Recorder so that a nil value disables recording.
type Recorder interface {
	Record(ctx context.Context, op Operation, description string, p Payload, filesAffected int) (int64, error)
}

// Restorer brings a trashed item back to its original path.
type Restorer func(originalPath string) error

// Ledger records and reverses mutations.
type Ledger struct {
	store   Store
	restore Restorer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRestorer overrides how trashed deletes are restored.
func WithRestorer(r Restorer) Option {
	return func(l *Ledger) { l.restore = r }
}

// New creates a ledger over store. Trashed deletes are restored with
// trash.Restore unless WithRestorer is given.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, restore: trash.Restore}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an entry and returns its id.
func (l *Ledger) Record(ctx context.Context, op Operation, description string, p Payload, filesAffected int) (int64, error) {
	details, err := Encode(p)
	if err != nil {
		return 0, err
	}
	id, err := l.store.InsertHistory(ctx, &Entry{
		Operation:     op,
		Description:   description,
		Details:       details,
		Payload:       p,
		FilesAffected: filesAffected,
	})
	if err != nil {
		return 0, fmt.Errorf("record %s: %w", op, err)
	}
	logger.Debug("recorded history entry", "id", id, "operation", op, "files", filesAffected)
	return id, nil
}

// Get returns the entry with its payload decoded.
func (l *Ledger) Get(ctx context.Context, id int64) (*Entry, error) {
	e, err := l.store.GetHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Payload, err = Decode(e.Details); err != nil {
		return nil, fmt.Errorf("history entry %d: %w", id, err)
	}
	return e, nil
}

// List returns entries newest first. Entries whose payload cannot be
// decoded are returned without one.
func (l *Ledger) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	entries, err := l.store.ListHistory(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		p, err := Decode(entries[i].Details)
		if err != nil {
			logger.Debug("undecodable history payload", "id", entries[i].ID, "error", err)
			continue
		}
		entries[i].Payload = p
	}
	return entries, nil
}

// Clear removes every entry.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.store.ClearHistory(ctx); err != nil {
		return err
	}
	logger.Info("history cleared")
	return nil
}

// Undo reverses entry id. An entry that is already undone returns
// types.ErrAlreadyUndone without touching the file system.
//
// Single-file entries are marked undone only when the reversal succeeds.
// Batch entries are always marked undone after the attempt; pairs that
// could not be moved back are reported as a *types.PartialFailure.
func (l *Ledger) Undo(ctx context.Context, id int64) error {
	e, err := l.store.GetHistory(ctx, id)
	if err != nil {
		return err
	}
	if e.Undone {
		return fmt.Errorf("history entry %d: %w", id, types.ErrAlreadyUndone)
	}

	p, err := Decode(e.Details)
	if err != nil {
		return fmt.Errorf("history entry %d: %w: %v", id, types.ErrCannotUndo, err)
	}

	var undoErr error
	switch p := p.(type) {
	case Move:
		undoErr = undoMove(p.From, p.To)
	case Copy:
		undoErr = undoCopy(p.To)
	case Rename:
		undoErr = undoRename(p.From, p.To)
	case Delete:
		undoErr = l.undoDelete(p)
	case Batch:
		undoErr = undoBatch(p)
	}

	var partial *types.PartialFailure
	if undoErr != nil && !errors.As(undoErr, &partial) {
		return undoErr
	}

	if err := l.store.MarkHistoryUndone(ctx, id); err != nil {
		return err
	}
	logger.Info("undid history entry", "id", id, "operation", e.Operation, "errors", undoErr != nil)
	return undoErr
}

func undoMove(from, to string) error {
	if !fsutil.Exists(to) {
		logger.Debug("moved item no longer present", "path", to)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(from), 0o755); err != nil {
		return types.IOError("undo move", from, err)
	}
	if err := fsutil.MoveFile(to, from); err != nil {
		return types.IOError("undo move", to, err)
	}
	return nil
}

func undoCopy(to string) error {
	if !fsutil.Exists(to) {
		return nil
	}
	if err := os.RemoveAll(to); err != nil {
		return types.IOError("undo copy", to, err)
	}
	return nil
}

func undoRename(from, to string) error {
	if !fsutil.Exists(to) {
		return nil
	}
	if fsutil.Exists(from) {
		return types.NewPathError("undo rename", from, types.ErrAlreadyExists, nil)
	}
	if err := os.Rename(to, from); err != nil {
		return types.IOError("undo rename", to, err)
	}
	return nil
}

func (l *Ledger) undoDelete(d Delete) error {
	if !d.ToTrash {
		return types.NewPathError("undo delete", d.Path, types.ErrCannotUndo, errors.New("permanently deleted"))
	}
	if l.restore == nil {
		return types.NewPathError("undo delete", d.Path, types.ErrCannotUndo, nil)
	}
	if err := l.restore(d.Path); err != nil {
		return types.NewPathError("undo delete", d.Path, types.ErrCannotUndo, err)
	}
	return nil
}

// undoBatch moves pairs back in reverse order, then removes destination
// folders (and their parents) that the batch left empty.
func undoBatch(b Batch) error {
	var errs []string
	restored := 0
	for i := len(b.Pairs) - 1; i >= 0; i-- {
		p := b.Pairs[i]
		if !fsutil.Exists(p.To) {
			continue
		}
		if fsutil.Exists(p.From) {
			errs = append(errs, types.ItemError(p.To, fmt.Errorf("%s: %w", p.From, types.ErrAlreadyExists)))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p.From), 0o755); err != nil {
			errs = append(errs, types.ItemError(p.To, err))
			continue
		}
		if err := fsutil.MoveFile(p.To, p.From); err != nil {
			errs = append(errs, types.ItemError(p.To, err))
			continue
		}
		restored++
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, p := range b.Pairs {
		dir := filepath.Dir(p.To)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		// Non-empty folders are left in place.
		_ = os.Remove(dir)
		_ = os.Remove(filepath.Dir(dir))
	}

	if len(errs) > 0 {
		return &types.PartialFailure{Succeeded: restored, Errors: errs}
	}
	return nil
}
