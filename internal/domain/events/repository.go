package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no event has the requested id.
var ErrNotFound = errors.New("event not found")

// ErrAlreadyJoined is returned when an attendee with the same mobile number
// is already registered for the event.
var ErrAlreadyJoined = errors.New("already joined")

// DateLayout is the wire and storage format of an event's calendar date.
const DateLayout = "2006-01-02"

// Event is a campus event with its attendees embedded.
type Event struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Summary          string     `json:"summary,omitempty"`
	Date             Date       `json:"date"`
	Time             string     `json:"time"`
	Venue            string     `json:"venue"`
	RegistrationLink string     `json:"registrationLink,omitempty"`
	Attendees        []Attendee `json:"attendees"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Preview returns the summary, or the description when no summary was given.
func (e Event) Preview() string {
	if summary := strings.TrimSpace(e.Summary); summary != "" {
		return summary
	}
	return e.Description
}

// Attendee is embedded in an Event and has no identity of its own.
type Attendee struct {
	Name         string    `json:"name"`
	MobileNumber string    `json:"mobileNumber"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Date is a calendar day. It serializes as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

// CreateParams carries a validated event to the store.
type CreateParams struct {
	Title            string
	Description      string
	Summary          string
	Date             Date
	Time             string
	Venue            string
	RegistrationLink string
	CreatedAt        time.Time
}

// LinkRecord is the projection FixLinks works on.
type LinkRecord struct {
	EventID          string
	RegistrationLink string
}

// Repository is the event store.
type Repository interface {
	// List returns every event ordered by date ascending.
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	// Create persists a new event; the store assigns its id.
	Create(ctx context.Context, params CreateParams) (*Event, error)
	// AppendAttendee adds the attendee only if no existing attendee has the
	// same mobile number, as one store operation. It returns ErrNotFound or
	// ErrAlreadyJoined when nothing was appended.
	AppendAttendee(ctx context.Context, eventID string, attendee Attendee) error
	ListMalformedLinks(ctx context.Context) ([]LinkRecord, error)
	UpdateRegistrationLink(ctx context.Context, eventID string, link string) error
}
