//go:build windows

package inventory

import (
	"golang.org/x/sys/windows"
)

// IsHidden reports whether the entry at path carries the hidden attribute.
func IsHidden(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
