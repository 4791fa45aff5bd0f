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

	"github.com/bioscanq/scanq/pkg/app"
	"github.com/bioscanq/scanq/pkg/config"

	_ "github.com/bioscanq/scanq/pkg/auth/hs256"
	_ "github.com/bioscanq/scanq/pkg/auth/static"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("SCANQ_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup:", err)
		os.Exit(1)
	}
	application.SetupMappings()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           application.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		application.Logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			application.Logger.Error("server error", "err", err)
			os.Exit(1)
		}
	case sig := <-stop:
		application.Logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			application.Logger.Error("shutdown", "err", err)
		}
		if application.TracingShutdown != nil {
			if err := application.TracingShutdown(ctx); err != nil {
				slog.Warn("tracing shutdown", "err", err)
			}
		}
	}
}
