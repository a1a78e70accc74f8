package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/audit"
	"github.com/campusconnect/server/internal/auth"
	"github.com/campusconnect/server/internal/auth/oauth"
	"github.com/campusconnect/server/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	stateCookieName = "campusconnect_oauth_state"

	errorAccessDenied  = "AccessDenied"
	errorOAuthCallback = "OAuthCallback"
	errorConfiguration = "Configuration"
)

// GoogleAuthenticator is implemented by *oauth.GoogleClient.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

// AuthHandler runs Google sign-in and manages the session cookie.
type AuthHandler struct {
	google        GoogleAuthenticator
	sessions      *auth.SessionManager
	gate          auth.DomainGate
	secureCookies bool
	logger        zerolog.Logger
	audit         AuditLogger
}

// NewAuthHandler returns a handler for the sign-in routes. A nil google
// disables sign-in.
func NewAuthHandler(
	google GoogleAuthenticator,
	sessions *auth.SessionManager,
	gate auth.DomainGate,
	secureCookies bool,
	logger zerolog.Logger,
	auditLogger AuditLogger,
) *AuthHandler {
	return &AuthHandler{
		google:        google,
		sessions:      sessions,
		gate:          gate,
		secureCookies: secureCookies,
		logger:        logger.With().Str("handler", "auth").Logger(),
		audit:         auditLogger,
	}
}

// SignIn handles GET /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.logger.Error().Msg("google sign-in is not configured")
		redirectAuthError(w, r, errorConfiguration)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate oauth state")
		redirectAuthError(w, r, errorOAuthCallback)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /api/auth/callback/google. The domain gate runs before
// any session is issued.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		redirectAuthError(w, r, errorConfiguration)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.logger.Warn().Msg("oauth state cookie missing")
		h.signInFailed(w, r, "", errorOAuthCallback, "state_missing")
		return
	}
	http.SetCookie(w, h.expiredCookie(stateCookieName))

	query := r.URL.Query()
	if state := query.Get("state"); state == "" || state != stateCookie.Value {
		h.logger.Warn().Msg("oauth state mismatch")
		h.signInFailed(w, r, "", errorOAuthCallback, "state_mismatch")
		return
	}
	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn().Str("error", errParam).Str("description", query.Get("error_description")).Msg("google oauth error")
		if errParam == "access_denied" {
			h.signInFailed(w, r, "", errorAccessDenied, "consent_denied")
			return
		}
		h.signInFailed(w, r, "", errorOAuthCallback, "provider_error")
		return
	}
	code := query.Get("code")
	if code == "" {
		h.logger.Warn().Msg("oauth code parameter missing")
		h.signInFailed(w, r, "", errorOAuthCallback, "code_missing")
		return
	}

	user, err := h.google.Authenticate(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("google authentication failed")
		h.signInFailed(w, r, "", errorOAuthCallback, "exchange_failed")
		return
	}

	if err := h.gate.Allow(user.Email, user.EmailVerified); err != nil {
		reason := "domain_not_allowed"
		if errors.Is(err, auth.ErrEmailNotVerified) {
			reason = "email_not_verified"
		}
		h.logger.Warn().Str("email", user.Email).Str("reason", reason).Msg("sign-in rejected")
		h.signInFailed(w, r, user.Email, errorAccessDenied, reason)
		return
	}

	principal := auth.Principal{
		ID:    "google:" + user.ID,
		Email: strings.ToLower(strings.TrimSpace(user.Email)),
		Name:  user.Name,
		Image: user.Picture,
	}
	token, expiresAt, err := h.sessions.Issue(principal)
	if err != nil {
		h.logger.Error().Err(err).Str("email", principal.Email).Msg("failed to issue session")
		h.signInFailed(w, r, principal.Email, errorOAuthCallback, "session_failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.SignIns.WithLabelValues("success").Inc()
	if h.audit != nil {
		h.audit.LogSuccess("auth.signin", principal.Email, "session", principal.ID, audit.ClientIP(r), nil)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Session handles GET /api/auth/session. Anonymous callers get {}.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.expiredCookie(middleware.SessionCookieName))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Signed out"})
}

type authErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error handles GET /auth/error, the landing page for failed sign-ins.
func (h *AuthHandler) Error(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("error")
	message := "An error occurred during authentication. Please try again."
	if code == errorAccessDenied {
		message = "Please use your college email address to sign in."
	}
	if code == "" {
		code = errorOAuthCallback
	}
	writeJSON(w, http.StatusOK, authErrorResponse{Error: code, Message: message})
}

func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, email, code, reason string) {
	outcome := "error"
	if code == errorAccessDenied {
		outcome = "denied"
	}
	metrics.SignIns.WithLabelValues(outcome).Inc()
	if h.audit != nil {
		h.audit.LogFailure("auth.signin", email, audit.ClientIP(r), map[string]string{"reason": reason})
	}
	redirectAuthError(w, r, code)
}

func (h *AuthHandler) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func redirectAuthError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/auth/error?error="+url.QueryEscape(code), http.StatusFound)
}
