// Package trash moves files to the system trash and, where the platform
// uses the freedesktop.org layout, restores them again.
//
// Unlike a plain delete, MoveToTrash never falls back to permanent
// removal: if no trash is reachable it returns an error so the caller can
// decide whether to delete permanently.
package trash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("trash")

// commandTimeout is the maximum time to wait for trash commands.
const commandTimeout = 30 * time.Second

// ErrUnavailable is returned when no trash mechanism could take the file.
var ErrUnavailable = errors.New("trash unavailable")

// runCommand runs an external trash helper. Tests replace it.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return err
	}
	return exec.CommandContext(ctx, path, args...).Run()
}

// MoveToTrash moves a file or directory to the system trash.
// On macOS it asks Finder; on Linux it tries gio, then trash-put, then
// writes to the XDG trash directly.
func MoveToTrash(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		err = moveToTrashMacOS(absPath)
	case "windows":
		err = fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)
	default:
		err = moveToTrashFreedesktop(absPath)
	}
	if err != nil {
		return err
	}

	logger.Info("moved to trash", "path", absPath)
	return nil
}

func moveToTrashMacOS(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	if err := runCommand(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("%w: finder: %v", ErrUnavailable, err)
	}
	return nil
}

func moveToTrashFreedesktop(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := runCommand(ctx, "gio", "trash", path); err == nil {
		return nil
	}
	if err := runCommand(ctx, "trash-put", path); err == nil {
		return nil
	}

	if err := writeToHomeTrash(path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
