package postgres

import (
	"context"
	"fmt"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/users"
	"github.com/campusconnect/server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository on a shared pgx pool.
type Repository struct {
	pool   *pgxpool.Pool
	events *EventRepository
	users  *UserRepository
}

// NewRepository wraps an open pool.
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{
		pool:   pool,
		events: &EventRepository{pool: pool},
		users:  &UserRepository{pool: pool},
	}, nil
}

func (r *Repository) Events() events.Repository {
	return r.events
}

func (r *Repository) Users() users.Repository {
	return r.users
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) SchemaVersion(ctx context.Context) (int64, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := r.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("query schema version: %w", err)
	}
	return version, dirty, nil
}
