package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/cache"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	httpx "github.com/geocoder89/accounthub/internal/http"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/ratelimit"
	"github.com/geocoder89/accounthub/internal/redisclient"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/geocoder89/accounthub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type userStore interface {
	cache.UserStore
	Ping(ctx context.Context) error
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", observability.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:   "accounthub-api",
		Env:           cfg.Env,
		Endpoint:      cfg.OTELEndpoint,
		SamplePercent: cfg.OTELSamplePercent,
	})
	if err != nil {
		log.Error("tracer init failed", observability.Err(err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// storage
	var store userStore

	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store, accounts are lost on restart")
		store = memory.NewUsersRepo()
	default:
		pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
		if err != nil {
			log.Error("db connect failed", observability.Err(err))
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("db migrate failed", observability.Err(err))
			os.Exit(1)
		}

		store = postgres.NewUsersRepo(pool, prom)
	}

	users := cache.NewUsers(store, cfg.UserCacheTTL)
	hasher := security.NewHasher(cfg.BcryptCost)

	seedCtx, seedCancel := config.WithTimeout(10 * time.Second)
	created, err := db.EnsureDemoUser(seedCtx, users, hasher, db.DemoAccount{
		Email:        cfg.DemoEmail,
		Password:     cfg.DemoPassword,
		FirstName:    cfg.DemoFirstName,
		LastName:     cfg.DemoLastName,
		ProfilePhoto: cfg.DefaultProfilePhoto,
	})
	seedCancel()

	if err != nil {
		log.Error("demo account seed failed", observability.Err(err))
		os.Exit(1)
	}
	if created {
		log.Info("demo account created", "email", cfg.DemoEmail)
	}

	manager, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		log.Error("session manager init failed", observability.Err(err))
		os.Exit(1)
	}
	cookies := session.NewCookies(manager, cfg.SessionCookie, cfg.IsProd())

	// attempt limiter: shared through redis when configured
	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable at startup, limiter will fail open", observability.Err(err))
		}
		pingCancel()

		limiter = ratelimit.NewRedis(rdb.Raw(), "accounthub:ratelimit", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	svc := account.NewService(users, hasher,
		account.WithMetrics(prom),
		account.WithLogger(log),
		account.WithDefaultPhoto(cfg.DefaultProfilePhoto),
	)

	health := handlers.NewHealthHandler(store.Ping)

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Deps{
		Env:            cfg.Env,
		Accounts:       svc,
		Sessions:       cookies,
		AuthLimiter:    limiter,
		Prom:           prom,
		Gatherer:       reg,
		Health:         health,
		TrustedProxies: cfg.TrustedProxies,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", observability.Err(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	health.Drain()

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", observability.Err(err))
			return
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", observability.Err(err))
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
