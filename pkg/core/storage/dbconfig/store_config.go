/*
Package dbconfig holds the chain database settings, it's kept apart from the
storage package so that configuration parsing doesn't pull DB drivers in.
*/
package dbconfig

import (
	"errors"
	"fmt"
)

// Database backends.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

// DBConfiguration chooses the backend with Type, only the options of the
// chosen backend are used. InMemoryDB keeps nothing between restarts.
type DBConfiguration struct {
	Type           string         `yaml:"Type"`
	LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
	BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
}

// LevelDBOptions are the LevelDB backend settings.
type LevelDBOptions struct {
	// DataDirectoryPath is the database directory.
	DataDirectoryPath string `yaml:"DataDirectoryPath"`
	ReadOnly          bool   `yaml:"ReadOnly"`
}

// BoltDBOptions are the BoltDB backend settings.
type BoltDBOptions struct {
	// FilePath is the database file, its directory is created if missing.
	FilePath string `yaml:"FilePath"`
	ReadOnly bool   `yaml:"ReadOnly"`
}

// Validate checks that the backend is known and has its location set.
func (c DBConfiguration) Validate() error {
	switch c.Type {
	case InMemoryDB:
	case LevelDB:
		if c.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("LevelDB data directory is not set")
		}
	case BoltDB:
		if c.BoltDBOptions.FilePath == "" {
			return errors.New("BoltDB file path is not set")
		}
	default:
		return fmt.Errorf("unknown DB type: %q", c.Type)
	}
	return nil
}
