package storage

import (
	"context"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Events() events.Repository
	Users() users.Repository

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// SchemaVersion returns the applied migration version and whether the
	// last migration was left half-applied.
	SchemaVersion(ctx context.Context) (version int64, dirty bool, err error)
}
