package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/rmachado/gestor/internal/alerts"
	"github.com/rmachado/gestor/internal/config"
	"github.com/rmachado/gestor/internal/server"
	"github.com/rmachado/gestor/internal/storage/sqlite"
	"github.com/rmachado/gestor/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.Database.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Daily alert emails run only with a configured relay.
	if cfg.SMTP.Addr != "" {
		sender := &alerts.SMTPSender{Addr: cfg.SMTP.Addr, From: cfg.SMTP.From}
		go alerts.NewScheduler(store, sender).Run(ctx)
	} else {
		slog.Warn("SMTP relay not configured, alert emails disabled")
	}

	srv := server.New(store, cfg.Auth)

	// h2c serves HTTP/2 without TLS for clients behind a terminating proxy.
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(srv.Handler(), &http2.Server{}),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := httpServer.Shutdown(context.Background()); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "address", cfg.Server.Addr, "auth", cfg.Auth.Secret != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
