package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surajmeruva0786/restosaas2/internal/cart"
	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	"github.com/surajmeruva0786/restosaas2/internal/config"
	"github.com/surajmeruva0786/restosaas2/internal/db"
	"github.com/surajmeruva0786/restosaas2/internal/handler"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/ports"
	"github.com/surajmeruva0786/restosaas2/internal/server"
	"github.com/surajmeruva0786/restosaas2/internal/session"
	"github.com/surajmeruva0786/restosaas2/internal/store"
	"github.com/surajmeruva0786/restosaas2/internal/store/memstore"
	"github.com/surajmeruva0786/restosaas2/internal/store/pgstore"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		gw     store.Gateway
		health ports.HealthChecker
	)
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect database", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		pgs, err := pgstore.New(ctx, pg, logger)
		if err != nil {
			logger.Error("failed to init document store", "err", err)
			os.Exit(1)
		}
		gw, health = pgs, pg
	default:
		ms := memstore.New()
		gw, health = ms, ms
	}

	var state clientstate.Store
	switch cfg.StateBackend {
	case "redis":
		state = clientstate.NewRedis(cfg.RedisAddr)
	default:
		state = clientstate.NewMemory()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	platform := syncctx.NewPlatformContext(gw, state, logger, m)
	platform.Startup(ctx)
	defer platform.Close()

	manager := syncctx.NewManager(gw, logger, m)
	defer manager.Close()

	resolver := &syncctx.Resolver{Platform: platform}
	carts := cart.Service{State: state}
	adminGate := session.NewAdminGate(state, platform, logger)
	operatorGate := session.NewOperatorGate(state, cfg.OperatorUsername, cfg.OperatorPassword, logger)

	healthHandler := handler.HealthHandler{Store: health}
	homeHandler := handler.HomeHandler{}
	authHandler := handler.AuthHandler{
		AdminGate:    adminGate,
		OperatorGate: operatorGate,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.AccessTokenTTL,
	}
	storefrontHandler := handler.StorefrontHandler{Resolver: resolver, Manager: manager, Cart: carts}
	adminHandler := handler.AdminHandler{Manager: manager, Platform: platform}
	platformHandler := handler.PlatformHandler{Platform: platform}
	exportHandler := handler.ExportHandler{Platform: platform}

	router := server.NewRouter(cfg, logger,
		healthHandler, homeHandler, authHandler,
		storefrontHandler, adminHandler, platformHandler, exportHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
