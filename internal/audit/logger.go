package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one audit record for a state-changing operation.
type Entry struct {
	Timestamp    time.Time
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string // "success" or "failure"
	Details      map[string]string
}

// Logger writes audit entries as structured log lines tagged audit=true.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger tags every entry with audit=true.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Bool("audit", true).Logger()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.logger.Info()
	if entry.Status == "failure" {
		event = l.logger.Warn()
	}
	event = event.
		Time("at", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("ip_address", entry.IPAddress).
		Str("status", entry.Status)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		event = event.Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for key, value := range entry.Details {
			dict = dict.Str(key, value)
		}
		event = event.Dict("details", dict)
	}
	event.Msg(entry.Action)
}

// LogSuccess records a completed action on a resource.
func (l *Logger) LogSuccess(action, actor, resourceType, resourceID, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Status:       "success",
		Details:      details,
	})
}

// LogFailure records a rejected or failed action.
func (l *Logger) LogFailure(action, actor, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:    action,
		Actor:     actor,
		IPAddress: ipAddress,
		Status:    "failure",
		Details:   details,
	})
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the peer
// address. It is recorded for audit only and never used for authorization.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
