// Package seenstore remembers which ideas a viewer has already seen,
// so novelty highlights fire only the first time an idea appears.
// Without it, every snapshot reload or replayed delivery would light
// the whole map up again.
package seenstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Store is a badger-backed first-seen record keyed by point id. The
// value is the RFC3339 time of first observation. A sync.Map caches
// known ids so the steady state never touches disk.
type Store struct {
	db    *badger.DB
	cache sync.Map
	log   *zap.Logger
}

// Open opens (or creates) the store under dir. A nil logger disables
// logging.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// FirstSeen reports whether id is being offered for the first time,
// recording it as seen either way. It satisfies the discovery-gate
// contract of scene.State: true at most once per id for the life of
// the store. A storage failure degrades toward always-new, the same
// behavior a viewer without a store gets.
func (s *Store) FirstSeen(id string) bool {
	if id == "" {
		return false
	}
	if _, hit := s.cache.Load(id); hit {
		return false
	}

	known := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(id)
		_, err := txn.Get(key)
		if err == nil {
			known = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	s.cache.Store(id, struct{}{})
	if err != nil {
		s.log.Warn("seen store update failed", zap.String("id", id), zap.Error(err))
		return true
	}
	return !known
}

// Close flushes and closes the underlying database. Safe on a nil
// store so teardown paths need no guard.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close seen store: %w", err)
	}
	return nil
}
