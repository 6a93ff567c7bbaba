package storage

import (
	"fmt"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/storage/badger"
)

// Backend type constants.
const (
	BackendBadger  = "badger"
	BackendMemory  = "memory"
	BackendSurreal = "surreal"
)

// Manager aggregates the storage backends behind the StorageManager contract.
type Manager struct {
	state  interfaces.StateStore
	store  *badger.Store
	logger *common.Logger
}

// NewManager creates a storage manager for the configured backend.
// Supported backends: "badger" (default).
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendBadger
	}

	switch backend {
	case BackendBadger:
		store, err := badger.NewStore(logger, config.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize badger backend: %w", err)
		}
		return &Manager{
			state:  badger.NewStateStorage(store, logger),
			store:  store,
			logger: logger,
		}, nil

	case BackendMemory:
		return &Manager{
			state:  NewMemoryStateStore(),
			logger: logger,
		}, nil

	case BackendSurreal:
		return nil, fmt.Errorf("surreal state store not yet implemented")

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: badger, memory)", backend)
	}
}

// NewManagerWithState wraps an existing StateStore. Used by tests.
func NewManagerWithState(state interfaces.StateStore) *Manager {
	return &Manager{state: state}
}

// StateStore returns the scoped workflow state store.
func (m *Manager) StateStore() interfaces.StateStore {
	return m.state
}

// Close releases all storage resources.
func (m *Manager) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
