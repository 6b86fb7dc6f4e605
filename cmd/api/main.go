package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bahjat/living-memory/internal/api"
	"github.com/Bahjat/living-memory/internal/platform/config"
	"github.com/Bahjat/living-memory/internal/platform/logger"
	"github.com/Bahjat/living-memory/internal/platform/middleware"
	"github.com/Bahjat/living-memory/internal/store"
)

const shutdownTimeout = 10 * time.Second

// seedUser creates the configured user. The session token is a credential
// and is never logged.
func seedUser(st *store.Store, cfg config.API, log *slog.Logger) error {
	seed, err := st.CreateUser(cfg.SeedUserEmail, "", cfg.SeedSessionToken)
	if err != nil {
		return err
	}
	log.Info("seeded user", "email", seed.User.Email, "fixed_session", cfg.SeedSessionToken != "")
	return nil
}

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, nil)

	st := store.New(store.WithVerificationURI(cfg.AppOrigin + "/pair-device"))
	if err := seedUser(st, cfg, log); err != nil {
		log.Error("could not seed user", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	api.NewTransport(st, log, cfg.RequestTimeout).RegisterRoutes(mux)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recover(log),
		middleware.CORS(cfg.AppOrigin),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			_ = srv.Close()
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}
}
