package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bahjat/living-memory/internal/agent"
	"github.com/Bahjat/living-memory/internal/apiclient"
	"github.com/Bahjat/living-memory/internal/platform/config"
	"github.com/Bahjat/living-memory/internal/platform/logger"
	"github.com/Bahjat/living-memory/internal/platform/middleware"
	"github.com/Bahjat/living-memory/internal/sdk"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, nil)

	client := sdk.New(cfg.APIBaseURL,
		apiclient.Direct(apiclient.WithTimeout(cfg.RequestTimeout)),
		apiclient.WithLogger(log),
	)

	status := agent.NewManager(cfg.DeviceAuthPath, cfg.ClientID)
	if err := status.Restore(); err != nil {
		log.Error("could not restore device credentials", "path", cfg.DeviceAuthPath, "error", err)
	}
	log.Info("agent state restored", "state", status.Status().State)

	if status.IsAuthorized() {
		verifyCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		err := status.Verify(verifyCtx, func(token string) agent.SessionChecker {
			return sdk.New(cfg.APIBaseURL,
				apiclient.Direct(apiclient.WithBearerToken(token), apiclient.WithTimeout(cfg.RequestTimeout)),
				apiclient.WithLogger(log),
			).Auth
		})
		cancel()
		if err != nil {
			log.Warn("could not verify stored device token", "error", err)
		} else {
			log.Info("stored device token checked", "state", status.Status().State)
		}
	}

	pairer := agent.NewPairer(client.Auth, status, cfg.ClientID, cfg.Scope, log)

	mux := http.NewServeMux()
	agent.NewTransport(status, pairer, log).RegisterRoutes(mux)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recover(log),
		middleware.CORS(cfg.DisplayOrigin),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("agent listening", "addr", srv.Addr, "api", cfg.APIBaseURL)
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
		pairer.Close()
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case err := <-errCh:
		pairer.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}
}
