//go:build !windows

package inventory

import (
	"path/filepath"
	"strings"
)

// IsHidden reports whether the entry at path is hidden: its name starts
// with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
