package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fracnft/fracnft/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyPrefix constants.
const (
	// DataExecutable is used for transactions and their execution results
	// identified by the transaction hash.
	DataExecutable KeyPrefix = 0x01
	// DataBlock is used for block headers identified by the block index.
	DataBlock KeyPrefix = 0x02
	// IXBlockHash maps block hashes to block indexes.
	IXBlockHash     KeyPrefix = 0x03
	STAccount       KeyPrefix = 0x40
	STContract      KeyPrefix = 0x50
	STStorage       KeyPrefix = 0x70
	SYSCurrentBlock KeyPrefix = 0xc0
	SYSVersion      KeyPrefix = 0xf0
)

// Executable subtypes.
const (
	ExecTransaction byte = 1
	ExecResult      byte = 2
)

// SeekRange selects keys for Store.Seek. Zero SeekRange walks the whole
// store in ascending order.
type SeekRange struct {
	// Prefix is the common part of all keys returned.
	Prefix []byte
	// Start is appended to Prefix to get the first key to return, a missing
	// key means the nearest one in the seek direction.
	Start []byte
	// Backwards makes Seek walk keys in descending order.
	Backwards bool
}

// ErrKeyNotFound is returned from Store.Get for missing keys.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is a persistent key-value backend. The chain never writes to it
	// directly, changes are collected in a MemCachedStore and pushed with
	// PutChangeSet.
	Store interface {
		Get([]byte) ([]byte, error)
		// PutChangeSet writes all of puts at once, nil value deletes the key.
		PutChangeSet(puts map[string][]byte) error
		// Seek calls f for every key matching rng in key order until f
		// returns false. k and v are only valid during the call and must
		// not be changed.
		Seek(rng SeekRange, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is the first byte of every stored key, it selects the kind
	// of record.
	KeyPrefix uint8

	// KeyValue is a single stored item.
	KeyValue struct {
		Key   []byte
		Value []byte
	}
)

// Bytes returns k as a one-byte key.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// AppendPrefix returns a new key made of k followed by b.
func AppendPrefix(k KeyPrefix, b []byte) []byte {
	dest := make([]byte, len(b)+1)
	dest[0] = byte(k)
	copy(dest[1:], b)
	return dest
}

// AppendPrefixInt returns k followed by big-endian n, ascending Seek over
// such keys walks them in numeric order.
func AppendPrefixInt(k KeyPrefix, n uint64) []byte {
	b := make([]byte, 9)
	b[0] = byte(k)
	binary.BigEndian.PutUint64(b[1:], n)
	return b
}

func seekRangeToPrefixes(sr SeekRange) *util.Range {
	var (
		rang  *util.Range
		start = make([]byte, len(sr.Prefix)+len(sr.Start))
	)
	copy(start, sr.Prefix)
	copy(start[len(sr.Prefix):], sr.Start)

	if !sr.Backwards {
		rang = util.BytesPrefix(sr.Prefix)
		rang.Start = start
	} else {
		rang = util.BytesPrefix(start)
		rang.Start = sr.Prefix
	}
	return rang
}

// NewStore opens the backend selected by cfg.Type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	switch cfg.Type {
	case dbconfig.InMemoryDB:
		return NewMemoryStore(), nil
	case dbconfig.LevelDB:
		s, err := NewLevelDBStore(cfg.LevelDBOptions)
		if err != nil {
			return nil, err
		}
		return s, nil
	case dbconfig.BoltDB:
		s, err := NewBoltDBStore(cfg.BoltDBOptions)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
}
