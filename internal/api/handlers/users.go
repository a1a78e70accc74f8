package handlers

import (
	"errors"
	"net/http"

	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/api/problem"
	"github.com/campusconnect/server/internal/audit"
	"github.com/campusconnect/server/internal/domain/users"
	"github.com/campusconnect/server/internal/metrics"
)

// ProfileHandler serves /api/user/profile.
type ProfileHandler struct {
	service *users.Service
	audit   AuditLogger
}

func NewProfileHandler(service *users.Service, auditLogger AuditLogger) *ProfileHandler {
	return &ProfileHandler{service: service, audit: auditLogger}
}

// Update handles POST /api/user/profile. Email and image come from the
// session, never from the body.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		problem.Unauthorized(w, r)
		return
	}

	var input users.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		metrics.ProfileUpserts.WithLabelValues("invalid").Inc()
		writeDecodeError(w, r, err)
		return
	}

	user, err := h.service.UpsertProfile(r.Context(), users.Identity{
		Email: principal.Email,
		Image: principal.Image,
	}, input)
	if err != nil {
		var validationErr users.ValidationError
		switch {
		case errors.Is(err, users.ErrInvalidMobile):
			metrics.ProfileUpserts.WithLabelValues("invalid").Inc()
			problem.Write(w, r, problem.KindValidation, "Invalid mobile number", nil)
		case errors.As(err, &validationErr):
			metrics.ProfileUpserts.WithLabelValues("invalid").Inc()
			problem.Write(w, r, problem.KindValidation, validationErr.Error(), nil)
		default:
			metrics.ProfileUpserts.WithLabelValues("error").Inc()
			writeFailure(w, r, "Error updating profile", err)
		}
		return
	}

	metrics.ProfileUpserts.WithLabelValues("saved").Inc()
	if h.audit != nil {
		h.audit.LogSuccess("user.profile.upsert", user.Email, "user", user.ID, audit.ClientIP(r), nil)
	}
	writeJSON(w, http.StatusOK, user)
}

// Get handles GET /api/user/profile for the signed-in user.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		problem.Unauthorized(w, r)
		return
	}

	user, err := h.service.Get(r.Context(), principal.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, problem.KindNotFound, "Profile not found", nil)
			return
		}
		writeFailure(w, r, "Error fetching profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
