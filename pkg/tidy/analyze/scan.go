package analyze

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// FindEmptyFolders returns every directory under root, root included, whose
// listing yields no entries. Results are sorted by path.
func FindEmptyFolders(root string) ([]string, error) {
	if err := inventory.CheckDir("empty", root); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, types.IOError("empty", root, err)
	}

	var empty []string
	if isEmptyDir(abs) {
		empty = append(empty, abs)
	}
	err = inventory.Walk(abs, func(path string, d fs.DirEntry) error {
		if d.IsDir() && isEmptyDir(path) {
			empty = append(empty, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(empty)
	return empty, nil
}

func isEmptyDir(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	return len(names) == 0 && err != nil
}

// FindLargeFiles returns files of at least thresholdMB mebibytes, largest
// first.
func FindLargeFiles(root string, thresholdMB int64) ([]types.FileRecord, error) {
	files, err := inventory.Files(root, inventory.Options{IncludeHidden: true})
	if err != nil {
		return nil, err
	}

	threshold := thresholdMB * types.MiB
	var large []types.FileRecord
	for _, f := range files {
		if f.Size >= threshold {
			large = append(large, f)
		}
	}

	sort.SliceStable(large, func(i, j int) bool {
		return large[i].Size > large[j].Size
	})
	return large, nil
}

// CategoryStats aggregates the files of one category.
type CategoryStats struct {
	Category  classify.Category `json:"category" yaml:"category"`
	Count     int               `json:"count" yaml:"count"`
	TotalSize int64             `json:"total_size" yaml:"total_size"`
}

// FolderStats summarizes a directory tree.
type FolderStats struct {
	Path        string            `json:"path" yaml:"path"`
	TotalSize   int64             `json:"total_size" yaml:"total_size"`
	FileCount   int               `json:"file_count" yaml:"file_count"`
	FolderCount int               `json:"folder_count" yaml:"folder_count"`
	LargestFile *types.FileRecord `json:"largest_file,omitempty" yaml:"largest_file,omitempty"`
	Categories  []CategoryStats   `json:"categories" yaml:"categories"`
}

// Stats walks root recursively, hidden entries included, and aggregates
// sizes per category. Categories are sorted by total size, largest first.
func Stats(root string, c types.Classifier) (*FolderStats, error) {
	records, err := inventory.List(root, inventory.Options{
		Recursive:     true,
		IncludeHidden: true,
		Classifier:    c,
	})
	if err != nil {
		return nil, err
	}
	abs, _ := filepath.Abs(root)

	stats := &FolderStats{Path: abs}
	byCategory := make(map[classify.Category]*CategoryStats)
	for i := range records {
		r := records[i]
		if r.IsDirectory {
			stats.FolderCount++
			continue
		}
		stats.FileCount++
		stats.TotalSize += r.Size
		if stats.LargestFile == nil || r.Size > stats.LargestFile.Size {
			stats.LargestFile = &records[i]
		}

		cs, ok := byCategory[r.Category]
		if !ok {
			cs = &CategoryStats{Category: r.Category}
			byCategory[r.Category] = cs
		}
		cs.Count++
		cs.TotalSize += r.Size
	}

	for _, cat := range classify.All() {
		if cs, ok := byCategory[cat]; ok {
			stats.Categories = append(stats.Categories, *cs)
		}
	}
	sort.SliceStable(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].TotalSize > stats.Categories[j].TotalSize
	})
	return stats, nil
}
