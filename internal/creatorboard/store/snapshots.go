package store

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// Snapshot keys in the durable key-value namespace. Each key holds one JSON
// snapshot of the entire corresponding collection.
const (
	KeyUsers       = "app_users"
	KeyTasks       = "app_tasks"
	KeyWithdrawals = "app_withdrawals"
	KeyPasscodes   = "app_passcodes"
	KeyCurrency    = "app_currency"
)

// ErrSnapshotMissing is returned by a backend when a key has never been
// written. The store treats it as "start from seeds".
var ErrSnapshotMissing = errors.New("snapshot missing")

// Snapshots is the durable backend behind the store. Save replaces the whole
// value under key; Load returns it or ErrSnapshotMissing.
type Snapshots interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemorySnapshots keeps snapshots in process. It backs the "memory" storage
// mode and the tests.
type MemorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{data: map[string][]byte{}}
}

func (m *MemorySnapshots) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrSnapshotMissing
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemorySnapshots) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}
