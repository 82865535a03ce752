package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gatedfm/config"
	"gatedfm/core/analytics"
	"gatedfm/core/auth"
	"gatedfm/core/delivery"
	"gatedfm/core/entitlement"
	"gatedfm/core/locator"
	"gatedfm/core/objectcache"
	"gatedfm/core/stream"
	"gatedfm/core/truncation"
	"gatedfm/db"
	"gatedfm/logger"
	"gatedfm/metrics"
	"gatedfm/repository"
	"gatedfm/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout   = 10 * time.Second
	maxSweepInterval  = 5 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

// Deps are the components the router serves from.
type Deps struct {
	Engine      *delivery.Engine
	Streamer    *stream.Streamer
	Recorder    *analytics.Recorder
	Cache       *objectcache.Cache
	Catalog     locator.ContentHost
	Auth        *auth.Codec
	Gatherer    prometheus.Gatherer
	StorageName string
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) *mux.Router {
	streamHandler := NewStreamHandler(d.Engine, d.Streamer, d.Recorder, d.Auth)
	apiHandler := NewAPIHandler(d.Catalog, d.Recorder, d.Cache, d.Auth, d.StorageName)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Session ids only matter for play dedup.
	streams := router.PathPrefix("/stream").Subrouter()
	streams.Use(SessionMiddleware)
	streams.Handle("/{productId}/{trackIndex}", streamHandler).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/api/plays/{productId}", apiHandler.PlaysHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/cache", apiHandler.CacheHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", apiHandler.HealthHandler).Methods(http.MethodGet)
	if d.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Range, X-Session-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start wires every component from cfg and serves until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.CloseGormDB(gdb)
	if err := db.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rdb, err := db.ConnectRedis(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Object storage availability is decided once, here.
	backend, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	storageName := "none"
	if storage.Available(backend) {
		storageName = backend.Name()
	}
	logger.Info("object storage", logger.String("backend", storageName))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache, err := objectcache.New(backend, objectcache.Options{
		Dir:            cfg.CacheDirectory,
		MaxBytes:       cfg.CacheMaxBytes,
		MaxAttempts:    cfg.FetchMaxAttempts,
		InitialBackoff: cfg.FetchInitialBackoff,
		MaxBackoff:     cfg.FetchMaxBackoff,
		FetchTimeout:   cfg.FetchTimeout,
		Metrics:        m,
	})
	if err != nil {
		return err
	}
	if err := cache.Watch(ctx); err != nil {
		// The cache still works; externally deleted files are just not noticed.
		logger.Warn("cache directory watch disabled", logger.ErrorField(err))
	}

	window := cfg.PlayDedupWindow()
	var store analytics.Store
	if rdb != nil {
		store = analytics.NewRedisStore(rdb)
	} else {
		mem := analytics.NewMemoryStore()
		go mem.Run(ctx, min(window, maxSweepInterval), window)
		store = mem
		logger.Warn("REDIS_HOST not set, play counts are kept in memory")
	}
	recorder := analytics.NewRecorder(store, repository.NewGormPlayEventRepository(gdb), window, m)

	catalog := repository.NewGormCatalogRepository(gdb)
	engine := delivery.New(
		locator.New(catalog),
		entitlement.NewResolver(repository.NewGormEntitlementRepository(gdb), cfg.EntitlementTimeout, m),
		cache,
		truncation.New(truncation.PreviewPolicy{
			Percent:    cfg.PreviewPercent,
			MinSeconds: cfg.PreviewMinSeconds,
			MaxSeconds: cfg.PreviewMaxSeconds,
		}),
	)

	codec := auth.NewCodec(cfg.JWTSecret)
	if !codec.Enabled() {
		logger.Warn("JWT_SECRET not set, every requester is anonymous")
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: NewRouter(Deps{
			Engine:      engine,
			Streamer:    stream.New(cfg.StreamChunkBytes, m),
			Recorder:    recorder,
			Cache:       cache,
			Catalog:     catalog,
			Auth:        codec,
			Gatherer:    reg,
			StorageName: storageName,
		}),
		// No write timeout: a full-length stream to a slow client is legitimate.
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
