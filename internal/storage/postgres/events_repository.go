package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/domain/ids"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

// EventRepository stores events in the events table.
type EventRepository struct {
	pool *pgxpool.Pool
}

const eventColumns = `id, title, description, summary, event_date, event_time, venue,
       registration_link, attendees, created_at`

type eventRow struct {
	ID               string
	Title            string
	Description      string
	Summary          *string
	EventDate        pgtype.Date
	EventTime        string
	Venue            string
	RegistrationLink *string
	Attendees        []byte
	CreatedAt        pgtype.Timestamptz
}

func (row *eventRow) scanTargets() []any {
	return []any{
		&row.ID, &row.Title, &row.Description, &row.Summary, &row.EventDate, &row.EventTime,
		&row.Venue, &row.RegistrationLink, &row.Attendees, &row.CreatedAt,
	}
}

func (row eventRow) toEvent() (events.Event, error) {
	attendees := []events.Attendee{}
	if len(row.Attendees) > 0 {
		if err := json.Unmarshal(row.Attendees, &attendees); err != nil {
			return events.Event{}, fmt.Errorf("decode attendees for event %s: %w", row.ID, err)
		}
	}
	event := events.Event{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		Summary:          derefString(row.Summary),
		Time:             row.EventTime,
		Venue:            row.Venue,
		RegistrationLink: derefString(row.RegistrationLink),
		Attendees:        attendees,
	}
	if row.EventDate.Valid {
		event.Date = events.NewDate(row.EventDate.Time)
	}
	if row.CreatedAt.Valid {
		event.CreatedAt = row.CreatedAt.Time.UTC()
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context) (items []events.Event, err error) {
	defer func(start time.Time) { recordQuery("list_events", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 ORDER BY event_date ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items = []events.Event{}
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event, err := row.toEvent()
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (_ *events.Event, err error) {
	defer func(start time.Time) { recordQuery("get_event", start, err) }(time.Now())

	var row eventRow
	err = r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id).Scan(row.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	event, err := row.toEvent()
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (_ *events.Event, err error) {
	defer func(start time.Time) { recordQuery("create_event", start, err) }(time.Now())

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var row eventRow
	err = r.pool.QueryRow(ctx, `
INSERT INTO events (id, title, description, summary, event_date, event_time, venue, registration_link, attendees, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), '[]'::jsonb, $9)
RETURNING `+eventColumns,
		id,
		params.Title,
		params.Description,
		params.Summary,
		pgtype.Date{Time: params.Date.Time, Valid: true},
		params.Time,
		params.Venue,
		params.RegistrationLink,
		createdAt,
	).Scan(row.scanTargets()...)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	event, err := row.toEvent()
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// AppendAttendee appends in a single conditional UPDATE. Under READ COMMITTED
// a concurrent append to the same row makes Postgres re-evaluate the WHERE
// clause against the new attendees, so two joins with one mobile number
// cannot both succeed.
func (r *EventRepository) AppendAttendee(ctx context.Context, eventID string, attendee events.Attendee) (err error) {
	defer func(start time.Time) { recordQuery("append_attendee", start, err) }(time.Now())

	payload, err := json.Marshal([]events.Attendee{attendee})
	if err != nil {
		return fmt.Errorf("encode attendee: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET attendees = attendees || $2::jsonb
 WHERE id = $1
   AND NOT attendees @> jsonb_build_array(jsonb_build_object('mobileNumber', $3::text))`,
		eventID, string(payload), attendee.MobileNumber,
	)
	if err != nil {
		return fmt.Errorf("append attendee: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err = r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("check event exists: %w", err)
	}
	if !exists {
		return events.ErrNotFound
	}
	return events.ErrAlreadyJoined
}

func (r *EventRepository) ListMalformedLinks(ctx context.Context) (records []events.LinkRecord, err error) {
	defer func(start time.Time) { recordQuery("list_malformed_links", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT id, registration_link
  FROM events
 WHERE registration_link ~* 'registration\s*$'
 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list malformed links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record events.LinkRecord
		if err := rows.Scan(&record.EventID, &record.RegistrationLink); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return records, nil
}

func (r *EventRepository) UpdateRegistrationLink(ctx context.Context, eventID string, link string) (err error) {
	defer func(start time.Time) { recordQuery("update_registration_link", start, err) }(time.Now())

	tag, err := r.pool.Exec(ctx, `UPDATE events SET registration_link = $2 WHERE id = $1`, eventID, link)
	if err != nil {
		return fmt.Errorf("update registration link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}
