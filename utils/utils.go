package utils

import (
	"os"
)

// FileExist reports whether 'filePath' exists. Stat errors other than
// not-exist are treated as existing so callers never overwrite a file they can't see.
func FileExist(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// CreateDirIfNotExist creates 'dir' & any missing parents, readable only by the owner
func CreateDirIfNotExist(dir string) error {
	if FileExist(dir) {
		return nil
	}

	return os.MkdirAll(dir, 0700)
}
