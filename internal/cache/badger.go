package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	entryPrefix = "entry:"
	indexKey    = "index"
)

// indexRecord is one row of the disk metadata index, kept ordered
// most-recent-first
type indexRecord struct {
	Key      string    `json:"key"`
	CachedAt time.Time `json:"cached_at"`
}

// BadgerStore is the persistent tier: an embedded badger database with a
// metadata index capping the tracked entry count. Entries pushed off the
// index tail are deleted in the same transaction.
type BadgerStore struct {
	db       *badger.DB
	capacity int

	// serializes index read-modify-write cycles; badger transactions
	// alone would surface ErrConflict under concurrent puts
	mu sync.Mutex
}

// NewBadgerStore opens (or creates) the store at dir
func NewBadgerStore(dir string, capacity int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", dir, err)
	}
	if capacity <= 0 {
		capacity = DiskCapacity
	}
	log.Printf("[BadgerStore] opened %s (capacity %d)", dir, capacity)
	return &BadgerStore{db: db, capacity: capacity}, nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entryPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", key, err)
	}
	return &entry, nil
}

func (s *BadgerStore) Put(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", entry.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(entryPrefix+entry.Key), data); err != nil {
			return err
		}

		index, err := readIndex(txn)
		if err != nil {
			return err
		}

		// move (or insert) the key to the front of the index
		filtered := make([]indexRecord, 0, len(index)+1)
		filtered = append(filtered, indexRecord{Key: entry.Key, CachedAt: entry.CachedAt})
		for _, rec := range index {
			if rec.Key != entry.Key {
				filtered = append(filtered, rec)
			}
		}

		// entries beyond capacity fall off the tail
		for len(filtered) > s.capacity {
			tail := filtered[len(filtered)-1]
			filtered = filtered[:len(filtered)-1]
			if err := txn.Delete([]byte(entryPrefix + tail.Key)); err != nil {
				return err
			}
		}

		return writeIndex(txn, filtered)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(entryPrefix + key)); err != nil {
			return err
		}
		index, err := readIndex(txn)
		if err != nil {
			return err
		}
		filtered := index[:0]
		for _, rec := range index {
			if rec.Key != key {
				filtered = append(filtered, rec)
			}
		}
		return writeIndex(txn, filtered)
	})
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DropAll()
}

func (s *BadgerStore) SizeBytes(ctx context.Context) (int64, error) {
	lsm, vlog := s.db.Size()
	return lsm + vlog, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Len reports how many entries the index currently tracks
func (s *BadgerStore) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.View(func(txn *badger.Txn) error {
		index, err := readIndex(txn)
		if err != nil {
			return err
		}
		count = len(index)
		return nil
	})
	return count, err
}

func readIndex(txn *badger.Txn) ([]indexRecord, error) {
	item, err := txn.Get([]byte(indexKey))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var index []indexRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &index)
	}); err != nil {
		return nil, err
	}
	return index, nil
}

func writeIndex(txn *badger.Txn, index []indexRecord) error {
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return txn.Set([]byte(indexKey), data)
}
