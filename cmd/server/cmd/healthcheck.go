package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func newHealthcheckCommand() *cobra.Command {
	healthcheck := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check a running server's readiness",
		Long: `Call the /readyz endpoint and exit non-zero unless the server reports healthy.
Intended for container health checks.

Examples:
  server healthcheck
  server healthcheck --url http://localhost:8080/readyz --timeout 5s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := healthcheckURL
			if url == "" {
				url = defaultHealthcheckURL()
			}
			ctx, cancel := context.WithTimeout(commandContext(cmd), healthcheckTimeout)
			defer cancel()

			health, err := checkHealth(ctx, url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server is %s (version %s)\n", health.Status, health.Version)
			return nil
		},
	}
	healthcheck.Flags().StringVar(&healthcheckURL, "url", "", "readiness URL (default: http://localhost:$SERVER_PORT/readyz)")
	healthcheck.Flags().DurationVar(&healthcheckTimeout, "timeout", 10*time.Second, "request timeout")
	return healthcheck
}

func defaultHealthcheckURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/readyz", port)
}

func checkHealth(ctx context.Context, url string) (healthResponse, error) {
	var health healthResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return health, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return health, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("decode health response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "healthy" {
		return health, fmt.Errorf("server unhealthy: status %d, %q", resp.StatusCode, health.Status)
	}
	return health, nil
}
