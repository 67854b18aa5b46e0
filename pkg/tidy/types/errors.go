package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every component. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotADirectory     = errors.New("not a directory")
	ErrNotAFile          = errors.New("not a file")
	ErrIO                = errors.New("i/o error")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrAlreadyUndone     = errors.New("already undone")
	ErrCannotUndo        = errors.New("cannot undo")
	ErrBuildFailed       = errors.New("build failed")
)

// PathError records an error together with the operation and path that
// caused it.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

// Error implements error.
func (e *PathError) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewPathError builds a PathError of the given kind.
func NewPathError(op, path string, kind, cause error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Err: cause}
}

// IOError wraps an I/O failure on path.
func IOError(op, path string, cause error) *PathError {
	return &PathError{Op: op, Path: path, Kind: ErrIO, Err: cause}
}

// NotFound reports a missing path.
func NotFound(op, path string) *PathError {
	return &PathError{Op: op, Path: path, Kind: ErrNotFound}
}

// PartialFailure is returned by batch operations that completed some items
// and failed others.
type PartialFailure struct {
	Succeeded int
	Errors    []string
}

// Error implements error.
func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%d succeeded, %d failed: %s", e.Succeeded, len(e.Errors), strings.Join(e.Errors, "; "))
}

// ItemError formats a per-item batch error as "item: err".
func ItemError(item string, err error) string {
	return fmt.Sprintf("%s: %v", item, err)
}
