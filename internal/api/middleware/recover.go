package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/campusconnect/server/internal/api/problem"
)

// Recover turns a handler panic into a logged 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
			problem.Write(w, r, problem.KindStorage, "Internal server error", err)
		}()
		next.ServeHTTP(w, r)
	})
}
