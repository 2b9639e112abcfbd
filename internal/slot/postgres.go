package slot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-client/internal/domain"
)

// Postgres stores the slot in the session_slots table created by
// internal/migrate. The pool is owned by the caller.
type Postgres struct {
	pool *pgxpool.Pool
	name string
}

func NewPostgres(pool *pgxpool.Pool, name string) *Postgres {
	return &Postgres{pool: pool, name: nameOrDefault(name)}
}

func (p *Postgres) Load(ctx context.Context) (*Record, error) {
	const q = `
SELECT payload::text
FROM session_slots
WHERE name = $1
LIMIT 1
`
	var payload string
	if err := p.pool.QueryRow(ctx, q, p.name).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode([]byte(payload))
}

func (p *Postgres) Save(ctx context.Context, rec Record) error {
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO session_slots (name, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`
	_, err = p.pool.Exec(ctx, q, p.name, string(raw))
	return err
}

func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM session_slots WHERE name = $1`, p.name)
	return err
}

// Close is a no-op; the pool outlives the store.
func (p *Postgres) Close() error { return nil }
