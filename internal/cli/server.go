package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"langquiz-service/internal/app"
	"langquiz-service/internal/auth"
	"langquiz-service/internal/config"
	"langquiz-service/internal/infra/memory"
	redisinfra "langquiz-service/internal/infra/redis"
	"langquiz-service/internal/logger"
	transport "langquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	if err != nil {
		return fmt.Errorf("auth: %w (set JWT_SECRET)", err)
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := app.NewProgressHub()
	var publisher app.ProgressPublisher = hub
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizCache
	if b.redis != nil {
		quizzes = redisinfra.NewQuizCache(b.redis, b.loader, quizTTL, log)
		relay := redisinfra.NewProgressRelay(b.redis, hub, log)
		if relayReady(runCtx, relay, log) {
			publisher = relay
		}
	} else {
		quizzes = memory.NewQuizCache(b.loader, quizTTL)
	}

	handler := transport.NewRouter(transport.Deps{
		Accounts:       app.NewAccountService(b.store),
		Learners:       app.NewLearnerService(b.store, quizzes),
		Attempts:       app.NewAttemptService(b.store, publisher, log),
		Creators:       app.NewCreatorService(b.store, quizzes, log),
		Hub:            hub,
		Verifier:       issuer,
		Log:            log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// no WriteTimeout: /ws/progress connections are long-lived
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting langquiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// relayReady starts the cross-instance relay and waits briefly for its
// subscription. On failure updates stay local to this instance.
func relayReady(ctx context.Context, relay *redisinfra.ProgressRelay, log *logger.Logger) bool {
	ready, done := relay.Run(ctx)
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		log.Warn("progress relay subscription timed out, delivering updates locally")
		return false
	}
	select {
	case err := <-done:
		log.Warn("progress relay unavailable, delivering updates locally", "error", err)
		return false
	default:
	}
	go func() {
		if err, ok := <-done; ok && err != nil {
			log.Error("progress relay stopped", "error", err)
		}
	}()
	return true
}
