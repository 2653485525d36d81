package cache

import (
	"context"
	"sync"
	"time"

	"github.com/skalibog/vpchart/pkg/models"
)

type memoryEntry struct {
	series    *models.CandleSeries
	expiresAt time.Time
}

// Memory кэш в памяти процесса
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory создает пустой кэш в памяти
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*models.CandleSeries, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return e.series, nil
}

func (m *Memory) Set(_ context.Context, key string, series *models.CandleSeries, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{series: series, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len число записей, включая просроченные
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
