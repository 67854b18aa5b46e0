//go:build darwin

package inventory

import (
	"io/fs"
	"syscall"
	"time"
)

// CreatedTime returns the birth time from the stat structure.
func CreatedTime(_ string, info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
