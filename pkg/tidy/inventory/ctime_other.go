//go:build !darwin && !linux

package inventory

import (
	"io/fs"
	"time"
)

// CreatedTime falls back to the modification time.
func CreatedTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
