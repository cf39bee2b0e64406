//go:build !linux && !darwin

package filesystem

import (
	"os"
	"path/filepath"
)

// Platforms without a unix.Stat_t get a path-derived identity: the resolved
// path for stat, the literal path for lstat.
func statPath(path string, follow bool) (*Attributes, error) {
	if !follow {
		info, err := os.Lstat(path)
		if err != nil {
			return nil, err
		}

		return AttributesFromFileInfo(info, 0, pathIdentity(path)), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}

	return AttributesFromFileInfo(info, 0, pathIdentity(resolved)), nil
}

func accessPath(path string, mode AccessMode) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return permitsOwner(RawMode(info.Mode()), mode)
}
