package slot

import (
	"context"
	"sync"

	"storefront-client/internal/domain"
)

// Memory keeps the record in process. It holds the encoded form so callers
// never share pointers with the stored value.
type Memory struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*Record, error) {
	m.mu.Lock()
	raw := m.raw
	m.mu.Unlock()
	if raw == nil {
		return nil, domain.ErrNotFound
	}
	return decode(raw)
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.raw = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
