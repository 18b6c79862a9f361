package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"agentguard-hq/agentguard/pkg/agents"
	"agentguard-hq/agentguard/pkg/api"
	"agentguard-hq/agentguard/pkg/cache"
	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
	"agentguard-hq/agentguard/pkg/evidence/recorder"
	"agentguard-hq/agentguard/pkg/evidence/retention"
	"agentguard-hq/agentguard/pkg/proxy"
	"agentguard-hq/agentguard/pkg/reports"
	"agentguard-hq/agentguard/pkg/security/auth"
	"agentguard-hq/agentguard/pkg/telemetry/health"
	"agentguard-hq/agentguard/pkg/telemetry/metrics"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server owns every long-lived component and the HTTP listener serving the
// proxy, the management API and the observability endpoints.
type Server struct {
	cfg   *config.Config
	build BuildInfo

	store      evidence.Store
	recorder   *recorder.Recorder
	engine     *compliance.Engine
	scheduler  *compliance.Scheduler
	pruner     *retention.Pruner
	generator  *reports.Generator
	cache      *cache.Cache
	collector  *metrics.Collector
	health     *health.Checker
	proxy      *proxy.Proxy
	api        *api.Handler
	validator  *auth.JWTValidator
	httpServer *http.Server

	logger       *slog.Logger
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New opens the store and builds every component from cfg. Nothing is
// started; call Start.
func New(ctx context.Context, cfg *config.Config, build BuildInfo) (*Server, error) {
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s, err := newWithStore(ctx, cfg, build, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

func newWithStore(ctx context.Context, cfg *config.Config, build BuildInfo, store evidence.Store) (*Server, error) {
	s := &Server{
		cfg:          cfg,
		build:        build,
		store:        store,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}

	s.collector = metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())

	s.recorder = recorder.NewRecorder(store, &recorder.Config{
		AsyncBuffer:  cfg.Recorder.AsyncBuffer,
		WriteTimeout: cfg.Recorder.WriteTimeout,
	})
	s.recorder.SetObserver(s.collector)

	s.engine = compliance.NewEngine(store, cfg.Compliance.ReadTimeout)
	s.engine.SetObserver(s.collector)
	s.scheduler = compliance.NewScheduler(s.engine, store, cfg.Compliance.Schedule, cfg.Compliance.DaysBack)

	if cfg.Retention.Enabled {
		s.pruner = retention.NewPruner(store, &retention.Config{
			RetentionDays:       cfg.Retention.Days,
			PruneSchedule:       cfg.Retention.Schedule,
			ArchiveBeforeDelete: cfg.Retention.Archive,
			ArchivePath:         cfg.Retention.ArchivePath,
			MaxDeleteBatch:      cfg.Retention.MaxDeleteBatch,
		})
	}

	sink, err := newSink(ctx, cfg.Reports)
	if err != nil {
		s.recorder.Close()
		return nil, fmt.Errorf("failed to create report sink: %w", err)
	}
	s.generator = reports.NewGenerator(store, sink)
	s.generator.SetJobTimeout(cfg.Reports.JobTimeout)
	s.generator.SetObserver(s.collector)

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cache.Config{URL: cfg.Cache.RedisURL, TTL: cfg.Cache.TTL})
		if err != nil {
			// The cache only accelerates dashboard reads.
			s.logger.Warn("redis cache unavailable, serving reads from storage", "error", err)
		} else {
			c.SetObserver(s.collector)
			s.cache = c
		}
	}

	if cfg.Auth.Enabled {
		v, err := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			s.recorder.Close()
			_ = s.cache.Close()
			return nil, fmt.Errorf("failed to configure auth: %w", err)
		}
		s.validator = v
	}

	s.proxy = proxy.New(proxy.Config{
		Timeout:        cfg.Proxy.Timeout,
		BaseURLs:       cfg.Proxy.BaseURLs,
		APIKeys:        cfg.Proxy.APIKeys,
		AsyncRecording: cfg.Recorder.Async,
	}, s.recorder)
	s.proxy.SetObserver(s.collector)

	s.api = api.NewHandler(api.Options{
		Store:     store,
		Registry:  agents.NewRegistry(store),
		Engine:    s.engine,
		Generator: s.generator,
		Cache:     s.cache,
		Version:   build.Version,
	})

	s.health = health.New(cfg.Telemetry.Health.CheckTimeout)
	s.health.RegisterCheck("storage", health.StoreCheck(store))
	if s.cache != nil {
		s.health.RegisterCheck("cache", health.PingCheck(s.cache))
	}

	return s, nil
}

// Start starts the schedulers and the HTTP listener and blocks until ctx is
// cancelled, a termination signal arrives, Shutdown is requested or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if err := s.startBackground(ctx); err != nil {
		s.stopBackground()
		return err
	}

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", s.cfg.Server.ListenAddress,
			"storage", s.cfg.Storage.Backend,
			"auth_enabled", s.cfg.Auth.Enabled,
			"providers", s.proxy.Providers(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

func (s *Server) startBackground(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start compliance scheduler: %w", err)
	}
	if s.scheduler.IsRunning() {
		s.health.RegisterCheck("compliance_scheduler", health.RunnerCheck(s.scheduler))
	}
	if s.pruner != nil {
		if err := s.pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention: %w", err)
		}
		if s.pruner.IsRunning() {
			s.health.RegisterCheck("retention_scheduler", health.RunnerCheck(s.pruner))
		}
	}
	return nil
}

func (s *Server) stopBackground() {
	s.scheduler.Stop()
	if s.pruner != nil {
		s.pruner.Stop()
	}
}

// RequestShutdown asks a running Start to return.
func (s *Server) RequestShutdown() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown stops accepting requests, drains the recorder and report jobs,
// stops the schedulers and closes storage. It is safe to call more than
// once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if err := s.recorder.Close(); err != nil {
			s.logger.Error("failed to drain recorder", "error", err)
		}
		s.generator.Wait()
		s.stopBackground()

		if err := s.cache.Close(); err != nil {
			s.logger.Warn("failed to close cache", "error", err)
		}
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close storage", "error", err)
			if shutdownErr == nil {
				shutdownErr = fmt.Errorf("storage close error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes(mux.NewRouter())
}

// Store returns the audit store.
func (s *Server) Store() evidence.Store {
	return s.store
}

// Recorder returns the interaction recorder.
func (s *Server) Recorder() *recorder.Recorder {
	return s.recorder
}
