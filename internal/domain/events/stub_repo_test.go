package events

import (
	"context"
	"errors"
)

type stubRepo struct {
	listFn       func(context.Context) ([]Event, error)
	getFn        func(context.Context, string) (*Event, error)
	createFn     func(context.Context, CreateParams) (*Event, error)
	appendFn     func(context.Context, string, Attendee) error
	malformedFn  func(context.Context) ([]LinkRecord, error)
	updateLinkFn func(context.Context, string, string) error
}

var errUnexpectedCall = errors.New("unexpected call")

func (s stubRepo) List(ctx context.Context) ([]Event, error) {
	if s.listFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listFn(ctx)
}

func (s stubRepo) GetByID(ctx context.Context, id string) (*Event, error) {
	if s.getFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getFn(ctx, id)
}

func (s stubRepo) Create(ctx context.Context, params CreateParams) (*Event, error) {
	if s.createFn == nil {
		return nil, errUnexpectedCall
	}
	return s.createFn(ctx, params)
}

func (s stubRepo) AppendAttendee(ctx context.Context, eventID string, attendee Attendee) error {
	if s.appendFn == nil {
		return errUnexpectedCall
	}
	return s.appendFn(ctx, eventID, attendee)
}

func (s stubRepo) ListMalformedLinks(ctx context.Context) ([]LinkRecord, error) {
	if s.malformedFn == nil {
		return nil, errUnexpectedCall
	}
	return s.malformedFn(ctx)
}

func (s stubRepo) UpdateRegistrationLink(ctx context.Context, eventID string, link string) error {
	if s.updateLinkFn == nil {
		return errUnexpectedCall
	}
	return s.updateLinkFn(ctx, eventID, link)
}
