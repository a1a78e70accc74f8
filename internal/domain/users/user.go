package users

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no profile exists for an email.
var ErrNotFound = errors.New("user not found")

// ErrInvalidMobile is returned when the submitted mobile number is not
// exactly ten digits.
var ErrInvalidMobile = errors.New("invalid mobile number")

// User is a profile keyed by the email of the signed-in principal.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	MobileNumber string    `json:"mobileNumber"`
	Branch       string    `json:"branch,omitempty"`
	Year         string    `json:"year,omitempty"`
	Image        string    `json:"image,omitempty"`
	JoinedEvents []string  `json:"joinedEvents"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpsertParams carries the full profile written on every upsert. Email is
// the conflict key; Now becomes createdAt only when the row is inserted.
type UpsertParams struct {
	Email        string
	Name         string
	MobileNumber string
	Branch       string
	Year         string
	Image        string
	Now          time.Time
}

// Repository is the user store.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
