package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusconnect/server/internal/domain/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ users.Repository = (*UserRepository)(nil)

// UserRepository stores profiles in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, name, mobile_number, branch, year, image, joined_events, created_at, updated_at`

type userRow struct {
	ID           pgtype.UUID
	Email        string
	Name         string
	MobileNumber string
	Branch       *string
	Year         *string
	Image        *string
	JoinedEvents []string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

func (row *userRow) scanTargets() []any {
	return []any{
		&row.ID, &row.Email, &row.Name, &row.MobileNumber, &row.Branch, &row.Year,
		&row.Image, &row.JoinedEvents, &row.CreatedAt, &row.UpdatedAt,
	}
}

func (row userRow) toUser() *users.User {
	user := &users.User{
		Email:        row.Email,
		Name:         row.Name,
		MobileNumber: row.MobileNumber,
		Branch:       derefString(row.Branch),
		Year:         derefString(row.Year),
		Image:        derefString(row.Image),
		JoinedEvents: row.JoinedEvents,
		CreatedAt:    row.CreatedAt.Time.UTC(),
		UpdatedAt:    row.UpdatedAt.Time.UTC(),
	}
	if row.ID.Valid {
		user.ID = uuid.UUID(row.ID.Bytes).String()
	}
	if user.JoinedEvents == nil {
		user.JoinedEvents = []string{}
	}
	return user
}

// Upsert inserts the profile or replaces the mutable fields of the existing
// row with the same email. A missing image keeps the stored one.
func (r *UserRepository) Upsert(ctx context.Context, params users.UpsertParams) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("upsert_user", start, err) }(time.Now())

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var row userRow
	err = r.pool.QueryRow(ctx, `
INSERT INTO users (id, email, name, mobile_number, branch, year, image, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $8)
ON CONFLICT (email) DO UPDATE
   SET name = EXCLUDED.name,
       mobile_number = EXCLUDED.mobile_number,
       branch = EXCLUDED.branch,
       year = EXCLUDED.year,
       image = COALESCE(EXCLUDED.image, users.image),
       updated_at = EXCLUDED.updated_at
RETURNING `+userColumns,
		uuid.New(),
		params.Email,
		params.Name,
		params.MobileNumber,
		params.Branch,
		params.Year,
		params.Image,
		now,
	).Scan(row.scanTargets()...)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return row.toUser(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("get_user", start, err) }(time.Now())

	var row userRow
	err = r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email).Scan(row.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.toUser(), nil
}
