package postgres

import (
	"errors"
	"time"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/users"
	"github.com/campusconnect/server/internal/metrics"
)

// recordQuery reports an operation to metrics. Domain outcomes such as
// not-found are not counted as database errors.
func recordQuery(operation string, start time.Time, err error) {
	if errors.Is(err, events.ErrNotFound) || errors.Is(err, events.ErrAlreadyJoined) || errors.Is(err, users.ErrNotFound) {
		err = nil
	}
	metrics.RecordQuery(operation, start, err)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
