package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/preciousyou/precious-backend/api/routes"
	"github.com/preciousyou/precious-backend/internal/auth"
	"github.com/preciousyou/precious-backend/internal/dispatch"
	"github.com/preciousyou/precious-backend/internal/identity"
	"github.com/preciousyou/precious-backend/internal/messages"
	"github.com/preciousyou/precious-backend/internal/push"
	"github.com/preciousyou/precious-backend/internal/scheduler"
	"github.com/preciousyou/precious-backend/internal/users"
	"github.com/preciousyou/precious-backend/pkg/auth/session"
	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/db"
	"github.com/preciousyou/precious-backend/pkg/logger"
	"github.com/preciousyou/precious-backend/pkg/metrics"
	"github.com/preciousyou/precious-backend/pkg/migrate"
	"github.com/preciousyou/precious-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	appleVerifier, err := identity.NewAppleVerifier(context.Background(), cfg.Apple)
	if err != nil {
		logg.Error(context.Background(), "failed to create apple verifier", err)
		os.Exit(1)
	}
	googleVerifier, err := identity.NewGoogleVerifier(context.Background(), cfg.Google)
	if err != nil {
		logg.Error(context.Background(), "failed to create google verifier", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		AppleVerifier:  appleVerifier,
		GoogleVerifier: googleVerifier,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	gateway, err := push.NewGateway(context.Background(), cfg.Push, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create push gateway", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(promRegistry)

	dispatchService, err := dispatch.NewService(dispatch.ServiceParams{
		Logger:  logg,
		Users:   userRepo,
		Bank:    messages.NewBank(),
		Gateway: gateway,
		Metrics: jobMetrics,
		Title:   cfg.Push.Title,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	var sched *scheduler.Service
	if cfg.Scheduler.Enabled {
		lock, err := scheduler.NewRedisLock(redisClient, dispatch.JobName, cfg.Scheduler.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create scheduler lock", err)
			os.Exit(1)
		}
		registry := scheduler.NewRegistry()
		if err := registry.Register(dispatchService); err != nil {
			logg.Error(context.Background(), "failed to register dispatch job", err)
			os.Exit(1)
		}
		sched, err = scheduler.NewService(scheduler.ServiceParams{
			Logger:   logg,
			Registry: registry,
			Lock:     lock,
			Metrics:  jobMetrics,
			Times:    cfg.Scheduler.Times,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create scheduler", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			AuthService: authService,
			UserService: userService,
			Dispatch:    dispatchService,
			Registry:    promRegistry,
		}),
	}

	if sched != nil {
		sched.Start(ctx)
	}

	stop, stopCancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopCancel()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "error shutting down http server", err)
	}
	if sched != nil {
		sched.Stop()
	}
	logg.Info(ctx, "api server shut down gracefully")
}
