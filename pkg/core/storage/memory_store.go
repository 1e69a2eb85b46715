package storage

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryStore keeps everything in a map, it's used by tests and by nodes
// that don't need to survive restarts.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mem: make(map[string][]byte)}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	v, ok := s.mem[string(key)]
	s.mut.RUnlock()
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// PutChangeSet implements the Store interface, it never fails.
func (s *MemoryStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	for k, v := range puts {
		if v == nil {
			delete(s.mem, k)
		} else {
			s.mem[k] = v
		}
	}
	return nil
}

// Seek implements the Store interface. Items are collected under the lock
// and f is called without it, so f may use the store.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	kvs := s.collect(rng)
	s.mut.RUnlock()
	for _, kv := range kvs {
		if !f(kv.Key, kv.Value) {
			return
		}
	}
}

// inRange tells whether the key belongs to the range.
func inRange(key []byte, rng SeekRange) bool {
	if !bytes.HasPrefix(key, rng.Prefix) {
		return false
	}
	if len(rng.Start) == 0 {
		return true
	}
	cmp := bytes.Compare(key[len(rng.Prefix):], rng.Start)
	if rng.Backwards {
		return cmp <= 0
	}
	return cmp >= 0
}

// collect returns the pairs from the range in the seek order.
func (s *MemoryStore) collect(rng SeekRange) []KeyValue {
	var kvs []KeyValue
	for k, v := range s.mem {
		if key := []byte(k); inRange(key, rng) {
			kvs = append(kvs, KeyValue{Key: key, Value: v})
		}
	}
	sort.Slice(kvs, func(i, j int) bool {
		cmp := bytes.Compare(kvs[i].Key, kvs[j].Key)
		if rng.Backwards {
			return cmp > 0
		}
		return cmp < 0
	})
	return kvs
}

// Close implements the Store interface, it drops all the data.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	s.mem = nil
	s.mut.Unlock()
	return nil
}
