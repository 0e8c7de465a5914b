// Command accesspaneld runs the access panel API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/api"
	"github.com/accesspanel/accesspanel/internal/auth"
	"github.com/accesspanel/accesspanel/internal/config"
	"github.com/accesspanel/accesspanel/internal/db"
	"github.com/accesspanel/accesspanel/internal/db/migrations"
	"github.com/accesspanel/accesspanel/internal/dbpool"
	"github.com/accesspanel/accesspanel/internal/store"
	"github.com/accesspanel/accesspanel/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if err := run(log, cfg); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	base := store.Base{Pool: pool, Log: log}
	users := store.NewUserStore(base)
	tenants := store.NewTenantStore(base)
	members := store.NewMemberStore(base)
	roles := store.NewRoleStore(base)
	audit := store.NewAuditStore(base)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret.Value(), time.Duration(cfg.AccessTokenTTL)*time.Second)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:            log,
		Pool:           pool,
		Hub:            hub,
		Users:          users,
		Tenants:        tenants,
		Members:        members,
		Roles:          roles,
		Audit:          audit,
		Memberships:    members,
		Perms:          members,
		Tokens:         tokens,
		CORSOrigins:    cfg.CORSOrigins,
		Version:        config.Version,
		BootstrapToken: cfg.BootstrapToken.Value(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // audit tail connections stay open.
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "version": config.Version}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	// Tell tail subscribers to reconnect elsewhere, then stop accepting
	// requests and drain what is in flight.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced shutdown")
		return srv.Close()
	}

	log.Info("server stopped")

	return nil
}
