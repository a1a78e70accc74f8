package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusconnect/server/internal/api/problem"
)

// AuditLogger records state-changing operations. *audit.Logger implements it.
type AuditLogger interface {
	LogSuccess(action, actor, resourceType, resourceID, ipAddress string, details map[string]string)
	LogFailure(action, actor, ipAddress string, details map[string]string)
}

type messageResponse struct {
	Message string `json:"message"`
}

const invalidBody = "Invalid request body"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeDecodeError reports a body that could not be decoded: 413 when it
// exceeded the size limit, otherwise 400.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		problem.Write(w, r, problem.KindTooLarge, "Request body too large", err)
		return
	}
	problem.Write(w, r, problem.KindValidation, invalidBody, err)
}

// writeFailure reports an unexpected error: 503 when the request deadline
// expired, otherwise 500 with message.
func writeFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		problem.Write(w, r, problem.KindTimeout, "Request timed out", err)
		return
	}
	problem.Write(w, r, problem.KindStorage, message, err)
}
