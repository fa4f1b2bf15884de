// Package paths plans local destination paths for downloaded files.
package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rescale/pdrive/internal/models"
)

// DownloadTarget is one file to download and where it goes on disk.
type DownloadTarget struct {
	FileID    int64
	Name      string // name as stored on the server
	LocalPath string
	Size      int64
}

// PlanDownloads maps files to paths under outputDir. Server names are reduced to
// their final path element so a name can never escape outputDir, then
// ResolveCollisions makes the paths unique.
func PlanDownloads(files []models.File, outputDir string) ([]DownloadTarget, int) {
	targets := make([]DownloadTarget, 0, len(files))
	for _, f := range files {
		targets = append(targets, DownloadTarget{
			FileID:    f.ID,
			Name:      f.Name,
			LocalPath: filepath.Join(outputDir, SafeName(f.Name, f.ID)),
			Size:      f.Size,
		})
	}
	return ResolveCollisions(targets)
}

// SafeName returns a file name usable as the last element of a local path.
func SafeName(name string, id int64) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == "/" || base == "" {
		return fmt.Sprintf("file_%d", id)
	}
	return base
}

// ResolveCollisions takes a list of targets and ensures all LocalPaths are unique.
// When multiple targets share a LocalPath, each gets its FileID appended
// before the extension.
//
// Example: two files named "output.zip" with ids 7 and 9 become:
//   - output_7.zip
//   - output_9.zip
//
// Returns the modified list (same slice, modified in place) and the number of
// targets that were involved in collisions.
func ResolveCollisions(targets []DownloadTarget) ([]DownloadTarget, int) {
	if len(targets) == 0 {
		return targets, 0
	}

	// Group targets by their LocalPath
	pathToIndices := make(map[string][]int)
	for i, t := range targets {
		pathToIndices[t.LocalPath] = append(pathToIndices[t.LocalPath], i)
	}

	collisionCount := 0
	for path, indices := range pathToIndices {
		if len(indices) <= 1 {
			continue
		}

		collisionCount += len(indices)
		for _, idx := range indices {
			t := &targets[idx]
			ext := filepath.Ext(path)
			base := path[:len(path)-len(ext)]
			t.LocalPath = fmt.Sprintf("%s_%d%s", base, t.FileID, ext)
		}
	}

	return targets, collisionCount
}
