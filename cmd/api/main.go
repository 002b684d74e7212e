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

	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/cache"
	"github.com/geocoder89/storehub/internal/config"
	"github.com/geocoder89/storehub/internal/db"
	httpx "github.com/geocoder89/storehub/internal/http"
	"github.com/geocoder89/storehub/internal/http/handlers"
	"github.com/geocoder89/storehub/internal/http/middlewares"
	"github.com/geocoder89/storehub/internal/observability"
	"github.com/geocoder89/storehub/internal/redisclient"
	"github.com/geocoder89/storehub/internal/repo/memory"
	"github.com/geocoder89/storehub/internal/repo/postgres"
	"github.com/geocoder89/storehub/internal/security"
	"github.com/geocoder89/storehub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const productCacheMaxEntries = 512

type userStore interface {
	service.UserStore
	db.AdminStore
	Ping(ctx context.Context) error
}

type stores struct {
	users    userStore
	products service.ProductStore
	close    func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.IsProd() && cfg.JWTSecret == "dev-secret-change-me" {
		log.Error("JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	// tracing is best effort; the exporter connects lazily
	shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(cfg, prom)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer st.close()

	hasher := security.NewHasher(cfg.BcryptCost)

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	if err := db.EnsureAdminUser(seedCtx, st.users, hasher, cfg); err != nil {
		cancelSeed()
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	cancelSeed()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		log.Error("jwt manager init failed", "err", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Pinger{"store": st.users.Ping}

	var limiter middlewares.Limiter = middlewares.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	if cfg.RedisAddr != "" {
		rctx, cancel := config.WithTimeout(3 * time.Second)
		rc, err := redisclient.Connect(rctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cancel()

		if err != nil {
			log.Warn("redis unavailable, using in-process rate limiter", "err", err)
		} else {
			defer rc.Close()
			limiter = middlewares.NewRedisLimiter(rc.Raw(), cfg.LoginRateLimit, cfg.LoginRateWindow)
			checks["redis"] = rc.Ping
		}
	}

	users := service.NewUsersService(st.users, hasher)

	router := httpx.NewRouter(httpx.Deps{
		Config:       cfg,
		Auth:         service.NewAuthService(st.users, hasher, tokens, prom),
		Users:        users,
		Products:     service.NewProductsService(st.products, cache.New(cfg.ProductCacheTTL, productCacheMaxEntries), prom),
		Resolver:     auth.NewResolver(tokens, st.users),
		LoginLimiter: limiter,
		Checks:       checks,
		Prom:         prom,
		Gatherer:     reg,
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

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Warn("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(cfg config.Config, prom *observability.Prom) (stores, error) {
	switch cfg.Store {
	case "memory":
		users := memory.NewUsersRepo()
		return stores{
			users:    users,
			products: memory.NewProductsRepo(users),
			close:    func() {},
		}, nil

	case "postgres", "":
		if err := db.Migrate(cfg.DBURL); err != nil {
			return stores{}, err
		}

		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return stores{}, err
		}

		return stores{
			users:    postgres.NewUsersRepo(pool, prom),
			products: postgres.NewProductsRepo(pool, prom),
			close:    pool.Close,
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
