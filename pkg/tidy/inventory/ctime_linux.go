//go:build linux

package inventory

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// CreatedTime returns the birth time reported by statx, or the modification
// time when the filesystem does not record one.
func CreatedTime(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
