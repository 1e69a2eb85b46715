package storage

import (
	"errors"
	"fmt"

	"github.com/fracnft/fracnft/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore keeps the chain in a LevelDB database directory.
type LevelDBStore struct {
	db   *leveldb.DB
	path string
}

// NewLevelDBStore opens (creating if needed) the database at the configured
// directory. Read-only stores require the database to exist.
func NewLevelDBStore(cfg dbconfig.LevelDBOptions) (*LevelDBStore, error) {
	opts := &opt.Options{
		Filter:         filter.NewBloomFilter(10),
		ReadOnly:       cfg.ReadOnly,
		ErrorIfMissing: cfg.ReadOnly,
	}
	db, err := leveldb.OpenFile(cfg.DataDirectoryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", cfg.DataDirectoryPath, err)
	}
	return &LevelDBStore{db: db, path: cfg.DataDirectoryPath}, nil
}

// Get implements the Store interface.
func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return v, err
}

// PutChangeSet implements the Store interface. The whole set is written
// atomically as a single batch.
func (s *LevelDBStore) PutChangeSet(puts map[string][]byte) error {
	batch := new(leveldb.Batch)
	for k, v := range puts {
		if v == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), v)
		}
	}
	return s.db.Write(batch, nil)
}

// Seek implements the Store interface.
func (s *LevelDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	it := s.db.NewIterator(seekRangeToPrefixes(rng), nil)
	defer it.Release()

	step := it.Next
	ok := it.First()
	if rng.Backwards {
		step = it.Prev
		ok = it.Last()
	}
	for ok && f(it.Key(), it.Value()) {
		ok = step()
	}
}

// Close implements the Store interface.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
