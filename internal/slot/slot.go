// Package slot persists the session's credential and identity across process
// restarts. Every backend stores a single named record.
package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-client/internal/domain"
)

// DefaultName is the slot the session container reads and writes.
const DefaultName = "auth-storage"

// Record is the persisted subset of the session.
type Record struct {
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
	SavedAt time.Time    `json:"saved_at"`
}

// Store is implemented by every backend. Load returns domain.ErrNotFound when
// the slot is empty. Clear on an empty slot is not an error.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Close() error
}

func encode(rec Record) ([]byte, error) {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode slot record: %w", err)
	}
	return buf, nil
}

func decode(raw []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode slot record: %w", err)
	}
	if rec.Token == "" {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}
