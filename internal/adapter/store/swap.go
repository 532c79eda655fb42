package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	buildSuffix = ".building-"
	oldSuffix   = ".old-"
)

// BuildDir returns a sibling of dir for an in-progress build.
func BuildDir(dir, buildID string) string {
	return dir + buildSuffix + buildID
}

// RemoveStale deletes build and backup siblings of dir left behind by an
// interrupted run, and returns the paths it removed. The live index at dir
// is never touched.
func RemoveStale(dir string) ([]string, error) {
	var removed []string
	for _, suffix := range []string{buildSuffix, oldSuffix} {
		matches, err := filepath.Glob(dir + suffix + "*")
		if err != nil {
			return removed, fmt.Errorf("failed to list stale index directories: %w", err)
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", m, err)
			}
			removed = append(removed, m)
		}
	}
	return removed, nil
}

// Swap replaces dir with the completed build in buildDir. The previous
// index is moved aside first and restored if the new one cannot be moved
// in, so dir always holds either the old or the new index.
func Swap(buildDir, dir string) error {
	old := ""
	if _, err := os.Stat(dir); err == nil {
		old = dir + oldSuffix + uuid.NewString()
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("failed to move previous index aside: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat index directory: %w", err)
	}

	if err := os.Rename(buildDir, dir); err != nil {
		if old != "" {
			if rerr := os.Rename(old, dir); rerr != nil {
				return fmt.Errorf("failed to install new index: %w (previous index left at %s: %v)", err, old, rerr)
			}
		}
		return fmt.Errorf("failed to install new index: %w", err)
	}

	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("failed to remove previous index: %w", err)
		}
	}
	return nil
}

// Delete removes the index at dir. A missing index is not an error.
func Delete(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	return nil
}
