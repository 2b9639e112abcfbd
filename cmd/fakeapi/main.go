package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront-client/internal/apitest"
	"storefront-client/internal/app"
	"storefront-client/internal/config"
)

func main() {
	var (
		addr          string
		seedCatalogue bool
		adminEmail    string
		adminPassword string
		shutdown      time.Duration
	)
	flag.StringVar(&addr, "addr", ":8000", "listen address")
	flag.BoolVar(&seedCatalogue, "seed", true, "load the demo catalogue on start")
	flag.StringVar(&adminEmail, "admin-email", "admin@example.com", "email of the bootstrap admin account (empty to skip)")
	flag.StringVar(&adminPassword, "admin-password", "admin123", "password of the bootstrap admin account")
	flag.DurationVar(&shutdown, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	srv := apitest.New(apitest.WithLogger(logger))
	if adminEmail != "" {
		if _, err := srv.CreateUser(adminEmail, "admin", adminPassword, true); err != nil {
			logger.Fatal("create admin", zap.Error(err))
		}
	}
	if seedCatalogue {
		products, err := srv.SeedCatalogue()
		if err != nil {
			logger.Fatal("seed catalogue", zap.Error(err))
		}
		logger.Info("catalogue seeded", zap.Int("products", len(products)))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting fake storefront api", zap.String("addr", addr))
		if err := srv.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

