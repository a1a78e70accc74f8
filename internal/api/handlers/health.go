package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthStore is the part of storage.Repository the readiness check uses.
type HealthStore interface {
	Ping(ctx context.Context) error
	SchemaVersion(ctx context.Context) (version int64, dirty bool, err error)
}

// HealthCheck is the /readyz response body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthChecker serves the liveness and readiness endpoints.
type HealthChecker struct {
	store     HealthStore
	version   string
	gitCommit string
}

func NewHealthChecker(store HealthStore, version, gitCommit string) *HealthChecker {
	return &HealthChecker{store: store, version: version, gitCommit: gitCommit}
}

// Healthz is the liveness probe. It never touches the database.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz reports 200 only when the database answers and the schema is not
// left dirty by a failed migration.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(ctx),
		}

		status, code := "healthy", http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Database not initialized"}
	}

	start := time.Now()
	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.store.Ping(dbCtx); err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Database ping failed: " + err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   "PostgreSQL connection successful",
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Database not initialized"}
	}

	start := time.Now()
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	version, dirty, err := h.store.SchemaVersion(migCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{Status: "fail", Message: "Failed to query migration version", LatencyMs: latency}
	}
	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   fmt.Sprintf("Database in dirty migration state at version %d", version),
			LatencyMs: latency,
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("Migrations applied (version %d)", version),
		LatencyMs: latency,
	}
}
