package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	fixLinksURL     string
	fixLinksTimeout time.Duration
)

func newFixLinksCommand() *cobra.Command {
	fixLinks := &cobra.Command{
		Use:   "fix-links",
		Short: "Repair registration links that end in a trailing \"registration\" word",
		Long: `Strip a trailing "registration" word from stored registration links.

By default the repair runs directly against DATABASE_URL. With --url the
command calls POST /api/events/fix-links on a running server instead.

Examples:
  server fix-links
  server fix-links --url https://events.example.edu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(commandContext(cmd), fixLinksTimeout)
			defer cancel()

			var (
				result events.FixResult
				err    error
			)
			if fixLinksURL != "" {
				result, err = fixLinksRemote(ctx, fixLinksURL)
			} else {
				result, err = fixLinksDirect(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fixed %d registration link(s)\n", result.Fixed)
			return nil
		},
	}
	fixLinks.Flags().StringVar(&fixLinksURL, "url", "", "base URL of a running server (default: repair the database directly)")
	fixLinks.Flags().DurationVar(&fixLinksTimeout, "timeout", 60*time.Second, "overall timeout")
	return fixLinks
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func fixLinksDirect(ctx context.Context) (events.FixResult, error) {
	url, err := databaseURL()
	if err != nil {
		return events.FixResult{}, err
	}
	pool, err := postgres.Open(ctx, postgres.PoolConfig{DatabaseURL: url, MaxConnections: 2})
	if err != nil {
		return events.FixResult{}, fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return events.FixResult{}, err
	}
	return events.NewService(repo.Events()).FixLinks(ctx)
}

func fixLinksRemote(ctx context.Context, baseURL string) (events.FixResult, error) {
	var result events.FixResult

	endpoint := strings.TrimRight(baseURL, "/") + "/api/events/fix-links"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return result, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return result, fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
		}
		return result, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}
