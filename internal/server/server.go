package server

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

	"certer/internal/auth"
	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/csrgen"
	"certer/internal/enrollment"
	"certer/internal/hostconfig"
	"certer/internal/jobs"
	"certer/internal/metrics"
	"certer/internal/middlewares"
	"certer/internal/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisprometheus/v9"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	appCtx      *middlewares.AppContext
	httpServer  *http.Server
	debugServer *http.Server
	hosts       hostconfig.Store
	redis       *redis.Client
	jobManager  *jobs.JobManager
	cancel      context.CancelFunc
}

func New(cfg *config.Config) (*Server, error) {
	logger := SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	artifacts, err := certdir.Open(cfg.Certificates.Directory)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open certificate directory: %w", err)
	}

	hosts, err := hostconfig.NewStore(cfg.HostConfig, artifacts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open host configuration store: %w", err)
	}

	enroller, err := NewEnroller(cfg, artifacts, logger)
	if err != nil {
		_ = hosts.Close()
		cancel()
		return nil, err
	}

	material := csrgen.NewManager(artifacts, cfg.Certificates.KeyBits, logger)
	machine := workflow.NewMachine(hosts, material, enroller, artifacts, cfg.Certificates.Defaults, logger)

	var client *redis.Client
	if cfg.Sessions.Store == metrics.SessionStoreRedis {
		client, err = auth.NewRedisClient(ctx, logger, cfg.Redis)
		if err != nil {
			_ = hosts.Close()
			cancel()
			return nil, err
		}

		if cfg.Server.Debug != nil && cfg.Server.Debug.Enabled {
			collector := redisprometheus.NewCollector(metrics.Namespace, "sessions", client)
			if err := prometheus.Register(collector); err != nil {
				logger.Debug("failed to register redis session collector: already registered", "error", err)
			}
		}
	}

	sessionManager, err := auth.NewSessionManager(cfg, client)
	if err != nil {
		_ = hosts.Close()
		cancel()
		return nil, err
	}

	appCtx := middlewares.NewAppContext(ctx, cfg, logger, sessionManager, machine, enroller, artifacts)

	jobManager := jobs.NewJobManager(logger)
	jobManager.Register(jobs.NewTempSweepJob(artifacts, cfg.Certificates.TempSweepInterval, cfg.Certificates.TempMaxAge, logger))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           setupRouter(appCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var debugServer *http.Server
	if cfg.Server.Debug != nil && cfg.Server.Debug.Enabled {
		debugServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Debug.Host, cfg.Server.Debug.Port),
			Handler:           setupDebugRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return &Server{
		cfg:         cfg,
		logger:      logger,
		appCtx:      appCtx,
		httpServer:  server,
		debugServer: debugServer,
		hosts:       hosts,
		redis:       client,
		jobManager:  jobManager,
		cancel:      cancel,
	}, nil
}

// NewEnroller builds the CA client with the configured verifier.
func NewEnroller(cfg *config.Config, artifacts *certdir.Dir, logger *slog.Logger) (*enrollment.Client, error) {
	verifier, err := enrollment.NewVerifier(cfg.CA.Verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to set up certificate verifier: %w", err)
	}

	if !cfg.CA.TLS.Verify {
		logger.Warn("TLS verification towards the CA is disabled", "host", cfg.CA.Host)
	}

	client, err := enrollment.NewClient(cfg.CA, artifacts, verifier, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Server) Start() error {
	s.jobManager.Start(s.appCtx)

	go func() {
		s.logger.Info("Server Started", "port", s.cfg.Server.Port, "ca", s.cfg.CA.Host, "certificates", s.appCtx.Artifacts.Path())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server failed to start", "error", err)
			s.cancel()
		}
	}()

	if s.debugServer != nil {
		go func() {
			s.logger.Info("Metrics server starting", "address", s.debugServer.Addr)
			if err := s.debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics server failed to start", "error", err)
				s.cancel()
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		s.logger.Info("Shutdown signal received")
	case <-s.appCtx.Done():
		s.logger.Info("Context canceled")
	}

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info("Shutting Down Server")

	s.cancel()
	s.jobManager.Shutdown(shutdownCtx)

	var shutdownErr error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		shutdownErr = err
	}

	if s.debugServer != nil {
		if err := s.debugServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Debug server forced to shutdown", "error", err)
		}
	}

	if err := s.hosts.Close(); err != nil {
		s.logger.Error("failed to close host configuration store", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("failed to close redis client", "error", err)
		}
	}

	s.logger.Info("Server Exited")
	return shutdownErr
}
