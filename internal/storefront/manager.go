package storefront

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager keeps one Storefront per device, built on first use. Concurrent
// first requests of a device share a single build.
type Manager struct {
	deps Deps
	sfg  singleflight.Group

	mu      sync.RWMutex
	devices map[string]*Storefront
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:    deps,
		devices: make(map[string]*Storefront),
	}
}

func (m *Manager) Get(ctx context.Context, deviceID string) *Storefront {
	m.mu.RLock()
	s, ok := m.devices[deviceID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	v, _, _ := m.sfg.Do(deviceID, func() (interface{}, error) {
		m.mu.RLock()
		existing, ok := m.devices[deviceID]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}
		// Built outside the lock so a slow backend does not stall other devices.
		s := New(context.WithoutCancel(ctx), deviceID, m.deps)
		m.mu.Lock()
		m.devices[deviceID] = s
		m.mu.Unlock()
		return s, nil
	})
	return v.(*Storefront)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices)
}

// Close releases every storefront.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.devices {
		s.Close()
		delete(m.devices, id)
	}
}
