package dedup

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Memory is an in-process guard bounded by a fixed capacity. When an insert
// would exceed the capacity the whole set is cleared first: a very old id may
// be treated as fresh again after the reset, which is the accepted trade-off
// against unbounded growth. Suppression is best-effort and process-local;
// entries do not survive a restart.
type Memory struct {
	capacity int
	log      *zap.Logger

	mtx  sync.Mutex
	seen map[string]struct{}
}

var _ Guard = (*Memory)(nil)

func NewMemory(capacity int, log *zap.Logger) *Memory {
	return &Memory{
		capacity: capacity,
		log:      log,
		seen:     make(map[string]struct{}, capacity),
	}
}

func (m *Memory) CheckAndRecord(_ context.Context, messageID string) (bool, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, dup := m.seen[messageID]; dup {
		return false, nil
	}
	if len(m.seen) >= m.capacity {
		m.log.Warn("dedup cache at capacity, clearing", zap.Int("capacity", m.capacity))
		m.seen = make(map[string]struct{}, m.capacity)
	}
	m.seen[messageID] = struct{}{}
	return true, nil
}

// Len reports the current cardinality of the set.
func (m *Memory) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.seen)
}
