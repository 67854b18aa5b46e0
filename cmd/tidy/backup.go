package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/fileops"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create and restore folder snapshots",
	Long: `Snapshots are full copies of a folder stored under the backup root
(backup.root in the config). Each carries a .tidy-backup.json manifest.`,
	RunE: runBackupList,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Snapshot a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot> [dest]",
	Short: "Copy a snapshot back",
	Long: `Copy a snapshot back into dest, or into the folder it was taken from.
The snapshot may be given by id, folder name or path. Items already in dest
are renamed to name.pre-restore.ext first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBackupRestore,
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <snapshot>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupDelete,
}

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}

func backupRoot() string {
	return current.config().Backup.Root
}

// findSnapshot resolves an id, an id prefix, a folder name or a path.
func findSnapshot(ref string) (*fileops.Snapshot, error) {
	if snap, err := fileops.ReadManifest(ref); err == nil {
		return snap, nil
	}
	snaps, err := fileops.ListBackups(backupRoot())
	if err != nil {
		return nil, err
	}
	var found []fileops.Snapshot
	for _, s := range snaps {
		if s.ID == ref || filepath.Base(s.Path) == ref {
			return &s, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(s.ID, ref) {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return nil, types.NotFound("backup", ref)
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("backup %q is ambiguous (%d matches)", ref, len(found))
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	snap, err := fileops.Backup(args[0], backupRoot())
	if err != nil {
		return err
	}
	r := &output.Report{Title: "Backup created", Data: snap}
	r.AddSummary("ID", snap.ID)
	r.AddSummary("Path", snap.Path)
	r.AddSummary("Files", strconv.Itoa(snap.Files))
	r.AddSummary("Size", types.FormatSize(snap.Bytes))
	return render(cmd, r)
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	snaps, err := fileops.ListBackups(backupRoot())
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns: []string{"ID", "Created", "Files", "Size", "Source"},
		Empty:   "No backups in " + backupRoot(),
		Data:    snaps,
	}
	for _, s := range snaps {
		r.AddRow(s.ID[:min(8, len(s.ID))], types.FormatTime(s.CreatedAt), strconv.Itoa(s.Files),
			types.FormatSize(s.Bytes), s.Source)
	}
	return render(cmd, r)
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	snap, err := findSnapshot(args[0])
	if err != nil {
		return err
	}
	dest := snap.Source
	if len(args) == 2 {
		dest = args[1]
	}
	printVerbose("restoring %s into %s", snap.Path, dest)

	res, err := fileops.Restore(snap.Path, dest)
	if err != nil {
		return err
	}
	r := &output.Report{
		Columns:  []string{"Moved aside"},
		Warnings: res.Errors,
		Data:     res,
	}
	for _, p := range res.MovedOut {
		r.AddRow(p)
	}
	r.AddSummary("Restored", strconv.Itoa(res.Restored))
	r.AddSummary("Destination", dest)
	return render(cmd, r)
}

func runBackupDelete(cmd *cobra.Command, args []string) error {
	snap, err := findSnapshot(args[0])
	if err != nil {
		return err
	}
	if err := fileops.DeleteBackup(snap.Path, backupRoot()); err != nil {
		return err
	}
	printInfo(cmd, "Deleted backup %s", filepath.Base(snap.Path))
	return nil
}
