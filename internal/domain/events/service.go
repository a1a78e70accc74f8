package events

import (
	"context"
	"fmt"
	"time"

	"github.com/campusconnect/server/internal/domain/ids"
	"github.com/campusconnect/server/internal/validation"
	"github.com/go-playground/validator/v10"
)

// Service implements the event use cases on top of a Repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService returns a Service that validates with the shared validator.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validation.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FixResult reports how many registration links FixLinks rewrote.
type FixResult struct {
	Fixed int `json:"fixedCount"`
}

// List returns every event ordered by date. Events without a summary carry
// their description as the summary.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Event{}
	}
	for i := range items {
		items[i].Summary = items[i].Preview()
	}
	return items, nil
}

// Create validates input, parses the date and stores the event with an empty
// attendee list.
func (s *Service) Create(ctx context.Context, input EventInput) (*Event, error) {
	input = input.Normalized()
	if err := validateEventInput(s.validate, input); err != nil {
		return nil, err
	}

	now := s.now()
	date, err := ParseEventDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, CreateParams{
		Title:            input.Title,
		Description:      input.Description,
		Summary:          input.Summary,
		Date:             date,
		Time:             input.Time,
		Venue:            input.Venue,
		RegistrationLink: input.RegistrationLink,
		CreatedAt:        now,
	})
}

// Join appends an attendee to the event. Input is validated before the event
// is looked up; duplicates by mobile number yield ErrAlreadyJoined.
func (s *Service) Join(ctx context.Context, eventID string, input JoinInput) error {
	attendee, err := input.attendee()
	if err != nil {
		return err
	}

	id, err := eventULID(eventID)
	if err != nil {
		return err
	}

	attendee.JoinedAt = s.now()
	return s.repo.AppendAttendee(ctx, id, attendee)
}

// ListAttendees returns the attendees of an event in join order.
func (s *Service) ListAttendees(ctx context.Context, eventID string) ([]Attendee, error) {
	id, err := eventULID(eventID)
	if err != nil {
		return nil, err
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Attendees == nil {
		return []Attendee{}, nil
	}
	return event.Attendees, nil
}

// FixLinks strips the trailing "Registration" token from every stored link
// that has one. Updates are applied one at a time; on failure the events
// already rewritten stay rewritten and the count so far is returned.
func (s *Service) FixLinks(ctx context.Context) (FixResult, error) {
	var result FixResult

	records, err := s.repo.ListMalformedLinks(ctx)
	if err != nil {
		return result, err
	}

	for _, record := range records {
		fixed := NormalizeRegistrationLink(record.RegistrationLink)
		if fixed == record.RegistrationLink {
			continue
		}
		if err := s.repo.UpdateRegistrationLink(ctx, record.EventID, fixed); err != nil {
			return result, fmt.Errorf("fix registration link for event %s: %w", record.EventID, err)
		}
		result.Fixed++
	}
	return result, nil
}

// eventULID maps ids that could never exist to ErrNotFound.
func eventULID(raw string) (string, error) {
	id, err := ids.NormalizeULID(raw)
	if err != nil {
		return "", ErrNotFound
	}
	return id, nil
}
