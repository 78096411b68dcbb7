// Command credauth-server runs the credential HTTP API backed by PostgreSQL
// and an SMTP relay. All configuration comes from the environment.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/httpapi"
	"github.com/MrEthical07/credauth/mailer"
	"github.com/MrEthical07/credauth/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	port := 8080
	if raw := os.Getenv("PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("PORT is invalid: %w", err)
		}
		port = parsed
	}

	smtpPort := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("SMTP_PORT is invalid: %w", err)
		}
		smtpPort = parsed
	}

	mail, err := mailer.NewSMTP(mailer.Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("MAIL_FROM"),
	})
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	st := store.NewPostgres(db)
	if err := st.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	logger.Info("migrations applied")

	cfg := credauth.DefaultConfig()
	if appName := os.Getenv("APP_NAME"); appName != "" {
		cfg.Mail.AppName = appName
	}

	engine, err := credauth.New().
		WithConfig(cfg).
		WithSigningSecret([]byte(jwtSecret)).
		WithStore(st).
		WithMailer(mail).
		WithAuditSink(credauth.NewJSONWriterSink(os.Stdout)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Close()

	api := httpapi.New(engine, st, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
