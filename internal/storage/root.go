package storage

import (
	"os"
	"path/filepath"
)

// rootMarkers are checked in priority order: a higher-priority marker at
// any ancestor wins over a lower-priority marker closer to the start dir.
var rootMarkers = []string{".claude", ".git", "CLAUDE.md"}

// FindProjectRoot walks up from startDir looking for project root markers
// and returns the first directory containing one. Falls back to startDir.
func FindProjectRoot(startDir string) string {
	for _, marker := range rootMarkers {
		dir, err := filepath.Abs(startDir)
		if err != nil {
			dir = startDir
		}
		for {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return startDir
}
