// Package memory is a process-local storage.Repository for tests and for
// running the server without PostgreSQL.
package memory

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/ids"
	"github.com/campusconnect/server/internal/domain/users"
	"github.com/campusconnect/server/internal/storage"
	"github.com/google/uuid"
)

var _ storage.Repository = (*Repository)(nil)

var malformedLink = regexp.MustCompile(`(?i)registration\s*$`)

// Repository keeps events and users in maps guarded by one mutex.
type Repository struct {
	mu     sync.Mutex
	events map[string]*events.Event
	users  map[string]*users.User
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		events: make(map[string]*events.Event),
		users:  make(map[string]*users.User),
	}
}

func (r *Repository) Events() events.Repository { return eventStore{r} }
func (r *Repository) Users() users.Repository   { return userStore{r} }

func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// SchemaVersion reports version 1; there is no schema to migrate.
func (r *Repository) SchemaVersion(ctx context.Context) (int64, bool, error) {
	return 1, false, ctx.Err()
}

type eventStore struct{ r *Repository }

func (s eventStore) List(ctx context.Context) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	items := make([]events.Event, 0, len(s.r.events))
	for _, event := range s.r.events {
		items = append(items, copyEvent(event))
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return items, nil
}

func (s eventStore) GetByID(ctx context.Context, id string) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	event, ok := s.r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	out := copyEvent(event)
	return &out, nil
}

func (s eventStore) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := ids.NewULID()
	if err != nil {
		return nil, err
	}

	event := &events.Event{
		ID:               id,
		Title:            params.Title,
		Description:      params.Description,
		Summary:          params.Summary,
		Date:             params.Date,
		Time:             params.Time,
		Venue:            params.Venue,
		RegistrationLink: params.RegistrationLink,
		Attendees:        []events.Attendee{},
		CreatedAt:        params.CreatedAt,
	}

	s.r.mu.Lock()
	s.r.events[id] = event
	s.r.mu.Unlock()

	out := copyEvent(event)
	return &out, nil
}

func (s eventStore) AppendAttendee(ctx context.Context, eventID string, attendee events.Attendee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	event, ok := s.r.events[eventID]
	if !ok {
		return events.ErrNotFound
	}
	for _, existing := range event.Attendees {
		if existing.MobileNumber == attendee.MobileNumber {
			return events.ErrAlreadyJoined
		}
	}
	event.Attendees = append(event.Attendees, attendee)
	return nil
}

func (s eventStore) ListMalformedLinks(ctx context.Context) ([]events.LinkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	var records []events.LinkRecord
	for id, event := range s.r.events {
		if malformedLink.MatchString(event.RegistrationLink) {
			records = append(records, events.LinkRecord{EventID: id, RegistrationLink: event.RegistrationLink})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].EventID < records[j].EventID })
	return records, nil
}

func (s eventStore) UpdateRegistrationLink(ctx context.Context, eventID string, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	event, ok := s.r.events[eventID]
	if !ok {
		return events.ErrNotFound
	}
	event.RegistrationLink = link
	return nil
}

type userStore struct{ r *Repository }

func (s userStore) Upsert(ctx context.Context, params users.UpsertParams) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	email := strings.ToLower(params.Email)
	user, ok := s.r.users[email]
	if !ok {
		user = &users.User{
			ID:           uuid.New().String(),
			Email:        email,
			JoinedEvents: []string{},
			CreatedAt:    params.Now,
		}
		s.r.users[email] = user
	}
	user.Name = params.Name
	user.MobileNumber = params.MobileNumber
	user.Branch = params.Branch
	user.Year = params.Year
	if params.Image != "" {
		user.Image = params.Image
	}
	user.UpdatedAt = params.Now

	out := *user
	out.JoinedEvents = append([]string{}, user.JoinedEvents...)
	return &out, nil
}

func (s userStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	user, ok := s.r.users[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	out := *user
	out.JoinedEvents = append([]string{}, user.JoinedEvents...)
	return &out, nil
}

func copyEvent(event *events.Event) events.Event {
	out := *event
	out.Attendees = append([]events.Attendee{}, event.Attendees...)
	return out
}
