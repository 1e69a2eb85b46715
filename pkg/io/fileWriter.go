package io

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDirForFile makes sure the directory of filePath exists creating it
// with all parents if needed. creator names the file user in errors.
func MakeDirForFile(filePath string, creator string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return fmt.Errorf("could not create dir for %s: %w", creator, err)
	}
	return nil
}
