package badger

import (
	"context"
	"fmt"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// StateEntry is one scoped key-value pair stored in BadgerDB.
type StateEntry struct {
	ID    string `badgerhold:"key"` // scope + "/" + key
	Scope string `badgerhold:"index"`
	Key   string
	Value []byte
}

type stateStorage struct {
	store  *Store
	logger *common.Logger
}

// NewStateStorage creates a StateStore backed by BadgerHold.
func NewStateStorage(store *Store, logger *common.Logger) *stateStorage {
	return &stateStorage{store: store, logger: logger}
}

func stateID(scope, key string) string {
	return scope + "/" + key
}

func (s *stateStorage) Get(_ context.Context, scope, key string) ([]byte, error) {
	var entry StateEntry
	err := s.store.db.Get(stateID(scope, key), &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get state key '%s' in scope '%s': %w", key, scope, err)
	}
	return entry.Value, nil
}

func (s *stateStorage) Set(_ context.Context, scope, key string, value []byte) error {
	entry := StateEntry{
		ID:    stateID(scope, key),
		Scope: scope,
		Key:   key,
		Value: value,
	}
	if err := s.store.db.Upsert(entry.ID, &entry); err != nil {
		return fmt.Errorf("failed to set state key '%s' in scope '%s': %w", key, scope, err)
	}
	return nil
}

func (s *stateStorage) Delete(_ context.Context, scope, key string) error {
	err := s.store.db.Delete(stateID(scope, key), StateEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete state key '%s' in scope '%s': %w", key, scope, err)
	}
	return nil
}

func (s *stateStorage) Clear(_ context.Context, scope string) error {
	err := s.store.db.DeleteMatching(StateEntry{}, badgerhold.Where("Scope").Eq(scope).Index("Scope"))
	if err != nil {
		return fmt.Errorf("failed to clear scope '%s': %w", scope, err)
	}
	return nil
}
