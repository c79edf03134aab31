package storage

import (
	"context"
	"sync"

	"github.com/ickb/orderbot/internal/telemetry"
)

// MemoryStorage keeps the most recent report for the status endpoint.
type MemoryStorage struct {
	mu     sync.RWMutex
	last   *telemetry.Report
	stored int
}

// NewMemoryStorage creates an empty memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// StoreReport replaces the last report.
func (m *MemoryStorage) StoreReport(_ context.Context, report *telemetry.Report) error {
	cp := *report

	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &cp
	m.stored++
	return nil
}

// Last returns a copy of the last report, if any.
func (m *MemoryStorage) Last() (telemetry.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.last == nil {
		return telemetry.Report{}, false
	}
	return *m.last, true
}

// Count returns how many reports were stored.
func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stored
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
