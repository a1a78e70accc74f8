package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/api/problem"
	"github.com/campusconnect/server/internal/audit"
	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/metrics"
)

// EventsHandler serves the /api/events routes.
type EventsHandler struct {
	service *events.Service
	audit   AuditLogger
}

func NewEventsHandler(service *events.Service, auditLogger AuditLogger) *EventsHandler {
	return &EventsHandler{service: service, audit: auditLogger}
}

type fixLinksResponse struct {
	Message    string `json:"message"`
	FixedCount int    `json:"fixedCount"`
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeFailure(w, r, "Error fetching events", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/events. The router places it behind RequireSession.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	event, err := h.service.Create(r.Context(), input)
	if err != nil {
		var validationErr events.ValidationError
		if errors.As(err, &validationErr) {
			problem.Write(w, r, problem.KindValidation, validationErr.Error(), nil)
			return
		}
		writeFailure(w, r, "Error creating event", err)
		return
	}

	metrics.EventsCreated.Inc()
	if h.audit != nil {
		h.audit.LogSuccess("event.create", actor(r.Context()), "event", event.ID, audit.ClientIP(r), map[string]string{
			"title": event.Title,
		})
	}
	writeJSON(w, http.StatusCreated, event)
}

// Join handles POST /api/events/{id}/join.
func (h *EventsHandler) Join(w http.ResponseWriter, r *http.Request) {
	var input events.JoinInput
	if err := decodeJSON(r, &input); err != nil {
		metrics.EventJoins.WithLabelValues("invalid").Inc()
		writeDecodeError(w, r, err)
		return
	}

	err := h.service.Join(r.Context(), pathParam(r, "id"), input)
	var validationErr events.ValidationError
	switch {
	case err == nil:
		metrics.EventJoins.WithLabelValues("joined").Inc()
		writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully joined the event"})
	case errors.As(err, &validationErr):
		metrics.EventJoins.WithLabelValues("invalid").Inc()
		problem.Write(w, r, problem.KindValidation, validationErr.Error(), nil)
	case errors.Is(err, events.ErrAlreadyJoined):
		metrics.EventJoins.WithLabelValues("duplicate").Inc()
		problem.Write(w, r, problem.KindConflict, "You have already joined this event", nil)
	case errors.Is(err, events.ErrNotFound):
		metrics.EventJoins.WithLabelValues("not_found").Inc()
		problem.Write(w, r, problem.KindNotFound, "Event not found", nil)
	default:
		metrics.EventJoins.WithLabelValues("error").Inc()
		writeFailure(w, r, "Failed to join event. Please try again.", err)
	}
}

// Attendees handles GET /api/events/{id}/attendees.
func (h *EventsHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.service.ListAttendees(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, problem.KindNotFound, "Event not found", nil)
			return
		}
		writeFailure(w, r, "Error fetching attendees", err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

// FixLinks handles POST /api/events/fix-links.
func (h *EventsHandler) FixLinks(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.FixLinks(r.Context())
	metrics.RegistrationLinksFixed.Add(float64(result.Fixed))
	if err != nil {
		if h.audit != nil {
			h.audit.LogFailure("event.fix_links", actor(r.Context()), audit.ClientIP(r), map[string]string{
				"fixed_count": strconv.Itoa(result.Fixed),
			})
		}
		writeFailure(w, r, "Error fixing registration links", err)
		return
	}

	if h.audit != nil {
		h.audit.LogSuccess("event.fix_links", actor(r.Context()), "event", "", audit.ClientIP(r), map[string]string{
			"fixed_count": strconv.Itoa(result.Fixed),
		})
	}
	writeJSON(w, http.StatusOK, fixLinksResponse{
		Message:    "Successfully fixed registration links",
		FixedCount: result.Fixed,
	})
}

func actor(ctx context.Context) string {
	if principal, ok := middleware.PrincipalFrom(ctx); ok {
		return principal.Email
	}
	return "anonymous"
}
