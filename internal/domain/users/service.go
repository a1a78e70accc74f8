package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campusconnect/server/internal/sanitize"
	"github.com/campusconnect/server/internal/validation"
	"github.com/go-playground/validator/v10"
)

// Identity is what the session knows about the caller. Profile updates take
// email and image from here, never from the request body.
type Identity struct {
	Email string
	Image string
}

// ProfileInput is the body of a profile update.
type ProfileInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	MobileNumber string `json:"mobileNumber" validate:"required,mobile"`
	Branch       string `json:"branch" validate:"max=100"`
	Year         string `json:"year" validate:"max=20"`
}

// ValidationError reports a malformed profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Service implements profile reads and upserts.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validation.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpsertProfile creates or replaces the profile for identity.Email.
func (s *Service) UpsertProfile(ctx context.Context, identity Identity, input ProfileInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, ValidationError{Field: "email", Message: "is required"}
	}

	input = ProfileInput{
		Name:         sanitize.Text(input.Name),
		MobileNumber: input.MobileNumber,
		Branch:       sanitize.Text(input.Branch),
		Year:         sanitize.Text(input.Year),
	}
	if err := s.validate.Struct(input); err != nil {
		fieldErr, ok := validation.FirstError(err)
		if !ok {
			return nil, err
		}
		if fieldErr.Field == "mobileNumber" {
			return nil, ErrInvalidMobile
		}
		return nil, ValidationError{Field: fieldErr.Field, Message: fieldErr.Message}
	}

	// Provider avatars that are not plain http(s) URLs are dropped.
	image := strings.TrimSpace(identity.Image)
	if err := validation.ValidateHTTPURL(image, "image"); err != nil {
		image = ""
	}

	return s.repo.Upsert(ctx, UpsertParams{
		Email:        email,
		Name:         input.Name,
		MobileNumber: strings.TrimSpace(input.MobileNumber),
		Branch:       input.Branch,
		Year:         input.Year,
		Image:        image,
		Now:          s.now(),
	})
}

// Get returns the profile for email, or ErrNotFound.
func (s *Service) Get(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
