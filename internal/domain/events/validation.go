package events

import (
	"strings"

	"github.com/campusconnect/server/internal/sanitize"
	"github.com/campusconnect/server/internal/validation"
	"github.com/go-playground/validator/v10"
)

const (
	joinFieldsRequired = "Name and mobile number are required"
	joinMobileInvalid  = "Please enter a valid 10-digit mobile number"
)

// EventInput is the body accepted when creating an event. Date is raw text
// and is parsed by ParseEventDate after field validation.
type EventInput struct {
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description" validate:"required,max=5000"`
	Summary          string `json:"summary" validate:"max=500"`
	Date             string `json:"date" validate:"required,max=100"`
	Time             string `json:"time" validate:"required,max=100"`
	Venue            string `json:"venue" validate:"required,max=300"`
	RegistrationLink string `json:"registrationLink" validate:"max=2048"`
}

// Normalized strips markup from the text fields and trims the rest.
func (in EventInput) Normalized() EventInput {
	return EventInput{
		Title:            sanitize.Text(in.Title),
		Description:      sanitize.Text(in.Description),
		Summary:          sanitize.Text(in.Summary),
		Date:             strings.TrimSpace(in.Date),
		Time:             sanitize.Text(in.Time),
		Venue:            sanitize.Text(in.Venue),
		RegistrationLink: strings.TrimSpace(in.RegistrationLink),
	}
}

func validateEventInput(v *validator.Validate, in EventInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	if fieldErr, ok := validation.FirstError(err); ok {
		return ValidationError{Field: fieldErr.Field, Message: fieldErr.Message}
	}
	return err
}

// JoinInput is the body of a join request.
type JoinInput struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
}

// attendee validates a join request and builds the attendee to append. The
// mobile pattern is matched against the submitted value, so padded numbers
// are rejected rather than silently trimmed.
func (in JoinInput) attendee() (Attendee, error) {
	name := sanitize.Text(in.Name)
	if name == "" || in.MobileNumber == "" {
		return Attendee{}, ValidationError{Message: joinFieldsRequired}
	}
	if !validation.IsMobileNumber(in.MobileNumber) {
		return Attendee{}, ValidationError{Message: joinMobileInvalid}
	}
	return Attendee{
		Name:         name,
		MobileNumber: strings.TrimSpace(in.MobileNumber),
	}, nil
}
