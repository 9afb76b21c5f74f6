// Package session holds the single active attendance session slot.
package session

import (
	"context"
	"sync"

	"github.com/vainnor/attendance-portal/types"
)

// Store persists the one active session. Set overwrites any prior session;
// Get returns nil when the slot is empty.
type Store interface {
	Set(ctx context.Context, s types.AttendanceSession) error
	Get(ctx context.Context) (*types.AttendanceSession, error)
	Clear(ctx context.Context) error
}

// Source is the read side of a Store, used by pollers.
type Source interface {
	Get(ctx context.Context) (*types.AttendanceSession, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	current *types.AttendanceSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Set(_ context.Context, s types.AttendanceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &s
	return nil
}

func (m *MemoryStore) Get(_ context.Context) (*types.AttendanceSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, nil
	}
	s := *m.current
	return &s, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
