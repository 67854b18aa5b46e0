package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/trash"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// moveToTrash is replaced in tests.
var moveToTrash = trash.MoveToTrash

// Outcome describes what ExecuteAction did.
type Outcome struct {
	Action ActionType `json:"action" yaml:"action"`
	From   string     `json:"from" yaml:"from"`
	To     string     `json:"to,omitempty" yaml:"to,omitempty"`

	// Skipped is set when the file already sits at its destination.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Reversible reports whether the outcome can be undone by moving To back
// to From.
func (o Outcome) Reversible() bool {
	return !o.Skipped && (o.Action == ActionMove || o.Action == ActionRename)
}

// DestinationDir returns the folder a move or copy would place rec in:
// the action's destination resolved against base, plus a YYYY-MM folder
// from the modification time when DateSubfolder is set.
func DestinationDir(a Action, base string, rec types.FileRecord) string {
	dir := a.Destination
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	if a.DateSubfolder {
		dir = filepath.Join(dir, rec.Modified.Local().Format("2006-01"))
	}
	return filepath.Clean(dir)
}

// ExecuteAction applies a to the file described by rec. base is the
// directory relative destinations are resolved against. An existing file
// at the destination is never overwritten; the new file gets a "_N"
// suffix instead.
func ExecuteAction(rec types.FileRecord, a Action, base string) (Outcome, error) {
	out := Outcome{Action: a.Type, From: rec.Path}

	switch a.Type {
	case ActionMove, ActionCopy:
		if a.Destination == "" {
			return out, types.NewPathError(string(a.Type), rec.Path, types.ErrNotFound, fmt.Errorf("no destination"))
		}
		dir := DestinationDir(a, base, rec)
		if a.Type == ActionMove && filepath.Dir(rec.Path) == dir {
			out.To, out.Skipped = rec.Path, true
			return out, nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return out, types.IOError(string(a.Type), dir, err)
		}
		out.To = fsutil.UniquePath(filepath.Join(dir, rec.Name))

		if a.Type == ActionMove {
			if err := fsutil.MoveFile(rec.Path, out.To); err != nil {
				return out, types.IOError("move", rec.Path, err)
			}
		} else if _, err := fsutil.Copy(rec.Path, out.To); err != nil {
			return out, types.IOError("copy", rec.Path, err)
		}

	case ActionRename:
		name, err := ExpandPattern(a.RenamePattern, rec)
		if err != nil {
			return out, err
		}
		if name == rec.Name {
			out.To, out.Skipped = rec.Path, true
			return out, nil
		}
		out.To = fsutil.UniquePath(filepath.Join(filepath.Dir(rec.Path), name))
		if err := os.Rename(rec.Path, out.To); err != nil {
			return out, types.IOError("rename", rec.Path, err)
		}

	case ActionDelete:
		if err := moveToTrash(rec.Path); err != nil {
			return out, types.IOError("delete", rec.Path, err)
		}

	default:
		return out, types.NewPathError(string(a.Type), rec.Path, types.ErrUnsupportedAction, nil)
	}

	logger.Info("rule action applied", "action", a.Type, "from", out.From, "to", out.To)
	return out, nil
}

// ExpandPattern builds a new file name from a rename pattern. Supported
// tokens:
//
//	{name}      file name without extension
//	{ext}       extension without the dot
//	{date}      modification date, 2006-01-02
//	{created}   creation date, 2006-01-02
//	{year}      modification year
//	{month}     modification month, two digits
//	{category}  category folder name
//
// When the pattern does not use {ext}, the original extension is appended.
// Patterns that expand to an empty name or contain a path separator return
// types.ErrInvalidPattern.
func ExpandPattern(pattern string, rec types.FileRecord) (string, error) {
	ext := filepath.Ext(rec.Name)
	if ext == rec.Name {
		ext = ""
	}
	mod := rec.Modified.Local()

	r := strings.NewReplacer(
		"{name}", types.Stem(rec.Name),
		"{ext}", strings.TrimPrefix(ext, "."),
		"{date}", mod.Format("2006-01-02"),
		"{created}", rec.Created.Local().Format("2006-01-02"),
		"{year}", mod.Format("2006"),
		"{month}", mod.Format("01"),
		"{category}", rec.Category.Folder(),
	)
	name := r.Replace(pattern)
	if !strings.Contains(pattern, "{ext}") {
		name += ext
	}

	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: rename pattern %q gives %q", types.ErrInvalidPattern, pattern, name)
	}
	return name, nil
}

// PreviewAction renders a short description such as "move: a.jpg → Images".
func PreviewAction(a Action, name string) string {
	switch a.Type {
	case ActionMove, ActionCopy:
		if a.Destination != "" {
			return fmt.Sprintf("%s: %s → %s", a.Type, name, a.Destination)
		}
		return fmt.Sprintf("%s: %s", a.Type, name)
	case ActionRename:
		if a.RenamePattern != "" {
			return fmt.Sprintf("rename: %s → %s", name, a.RenamePattern)
		}
		return fmt.Sprintf("rename: %s", name)
	case ActionDelete:
		return fmt.Sprintf("delete: %s", name)
	}
	return fmt.Sprintf("unknown action: %s", name)
}
