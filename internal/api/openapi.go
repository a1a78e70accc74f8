package api

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/campusconnect/server/internal/api/problem"
	"sigs.k8s.io/yaml"
)

//go:embed openapi.yaml
var openAPISource []byte

var (
	openAPIJSON    []byte
	openAPIJSONErr error
	openAPIOnce    sync.Once
)

// OpenAPIHandler serves the embedded API description converted to JSON.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			problem.MethodNotAllowed(w, r)
			return
		}

		openAPIOnce.Do(func() {
			openAPIJSON, openAPIJSONErr = yaml.YAMLToJSON(openAPISource)
		})
		if openAPIJSONErr != nil {
			problem.Write(w, r, problem.KindStorage, "OpenAPI document unavailable", openAPIJSONErr)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPIJSON)
	}
}
