package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusconnect/server/internal/api"
	"github.com/campusconnect/server/internal/api/handlers"
	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/audit"
	"github.com/campusconnect/server/internal/auth"
	"github.com/campusconnect/server/internal/auth/oauth"
	"github.com/campusconnect/server/internal/config"
	"github.com/campusconnect/server/internal/metrics"
	"github.com/campusconnect/server/internal/storage/postgres"
	"github.com/campusconnect/server/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serverHost string
	serverPort int
)

const sessionIssuer = "campusconnect"

func newServeCommand() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the CampusConnect HTTP server",
		Long: `Start the CampusConnect HTTP server and begin accepting API requests.

The server will:
- Load configuration from .env, the --config file and environment variables
- Open the PostgreSQL pool once and share it across requests
- Serve the events, RSVP, profile and sign-in endpoints
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with configuration from the environment
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	serve.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serve.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	return serve
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting campusconnect server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.Open(poolCtx, postgres.PoolConfig{
		DatabaseURL:    cfg.Database.URL,
		MaxConnections: cfg.Database.MaxConnections,
	})
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(ctx)
	defer collectorCancel()
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer dbCollector.Stop()

	sessions, err := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry, sessionIssuer)
	if err != nil {
		return fmt.Errorf("session init failed: %w", err)
	}

	var google handlers.GoogleAuthenticator
	if cfg.Auth.GoogleClientID != "" && cfg.Auth.GoogleClientSecret != "" {
		google = oauth.NewGoogleClient(oauth.GoogleConfig{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			CallbackURL:  cfg.Server.BaseURL + "/api/auth/callback/google",
			HostedDomain: cfg.Auth.AllowedDomain,
		})
	} else {
		logger.Warn().Msg("GOOGLE_ID/GOOGLE_SECRET not set; sign-in is disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(api.Deps{
			Config:      cfg,
			Logger:      logger,
			Store:       repo,
			Sessions:    sessions,
			Google:      google,
			Audit:       audit.NewLogger(logger),
			RateLimiter: limiter,
			Version:     Version,
			GitCommit:   GitCommit,
			BuildDate:   BuildDate,
		}),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	})
	return group.Wait()
}

// loadEnvironment applies .env and the --config file to the process
// environment. Variables already set win over both.
func loadEnvironment() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	if configPath != "" {
		if err := config.LoadFile(configPath); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig() (config.Config, error) {
	if err := loadEnvironment(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func databaseURL() (string, error) {
	if err := loadEnvironment(); err != nil {
		return "", err
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}
