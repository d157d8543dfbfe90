package proposer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	filestore "github.com/aretw0/proposer/internal/adapters/file"
	httpapi "github.com/aretw0/proposer/internal/adapters/http"
	redisstore "github.com/aretw0/proposer/internal/adapters/redis"
	"github.com/aretw0/proposer/internal/adapters/sqlite"
	"github.com/aretw0/proposer/internal/config"
	"github.com/aretw0/proposer/internal/logging"
	"github.com/aretw0/proposer/pkg/adapters/memory"
	redislock "github.com/aretw0/proposer/pkg/adapters/redis"
	"github.com/aretw0/proposer/pkg/lifecycle"
	"github.com/aretw0/proposer/pkg/observability"
	"github.com/aretw0/proposer/pkg/persistence/middleware"
	"github.com/aretw0/proposer/pkg/ports"
	"github.com/aretw0/proposer/pkg/strategy"
	"github.com/aretw0/proposer/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// Config is the service configuration.
type Config = config.Config

// DefaultConfig returns the default configuration: in-memory store,
// local locking, worker enabled.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Service wires the store, the lifecycle manager, the strategy registry and
// the worker according to a Config.
type Service struct {
	Config   Config
	Manager  *lifecycle.Manager
	Registry *strategy.Registry
	Worker   *worker.Worker
	Metrics  *observability.Metrics
	Logger   *slog.Logger

	gatherer *prometheus.Registry
	closers  []func() error
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	registry   *strategy.Registry
	prometheus *prometheus.Registry
	store      ports.ProposalStore
}

// WithLogger replaces the logger built from the log section of the config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry supplies a strategy registry, e.g. one with custom strategies.
// Metrics are not attached to a supplied registry.
func WithRegistry(registry *strategy.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithPrometheusRegistry registers the service metrics on reg.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.prometheus = reg
	}
}

// WithStore bypasses the store driver of the config.
func WithStore(store ports.ProposalStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// New builds a Service from cfg. Redis is contacted only when the store
// driver or the distributed lock needs it.
func New(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{Config: cfg, Logger: o.logger}
	if s.Logger == nil {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		s.Logger = logging.NewWithFormat(os.Stderr, level, cfg.Log.Format)
	}

	s.gatherer = o.prometheus
	if s.gatherer == nil {
		s.gatherer = prometheus.NewRegistry()
	}
	s.Metrics = observability.NewMetrics(s.gatherer)

	var client *backend.Client
	if cfg.NeedsRedis() {
		client = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
	}

	store := o.store
	if store == nil {
		var err error
		store, err = s.openStore(cfg, client)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	store = middleware.Chain(store, middleware.NewLoggingMiddleware(s.Logger))

	managerOpts := []lifecycle.Option{
		lifecycle.WithLogger(s.Logger),
		lifecycle.WithMetrics(s.Metrics),
		lifecycle.WithLockTTL(cfg.Lock.TTL),
	}
	if cfg.Lock.Distributed {
		managerOpts = append(managerOpts, lifecycle.WithLocker(redislock.NewLocker(client, cfg.Redis.Prefix)))
	}
	s.Manager = lifecycle.NewManager(store, managerOpts...)

	s.Registry = o.registry
	if s.Registry == nil {
		s.Registry = strategy.NewDefaultRegistry(strategy.WithMetrics(s.Metrics))
	}
	s.Worker = worker.New(s.Manager, s.Registry, worker.WithLogger(s.Logger))

	s.Logger.Debug("service initialized",
		"store", cfg.Store.Driver,
		"distributed_lock", cfg.Lock.Distributed,
		"strategies", s.Registry.Names(),
	)
	return s, nil
}

func (s *Service) openStore(cfg Config, client *backend.Client) (ports.ProposalStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverFile:
		return filestore.New(cfg.Store.Path), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	case config.DriverRedis:
		return redisstore.NewFromClient(client,
			redisstore.WithPrefix(cfg.Redis.Prefix+"proposal:"),
			redisstore.WithTTL(cfg.Store.TTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Handler returns the JSON API. GET /metrics is served when enabled in the config.
func (s *Service) Handler() http.Handler {
	opts := []httpapi.Option{
		httpapi.WithLogger(s.Logger),
		httpapi.WithVersion(Version),
	}
	if s.Config.Server.Metrics {
		opts = append(opts, httpapi.WithMetrics(s.Metrics))
	}
	return httpapi.NewHandler(s.Manager, s.Registry, opts...)
}

// Serve runs the HTTP server and, if enabled, the worker until ctx is
// cancelled, then shuts the server down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Config.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		s.Logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	workerDone := make(chan struct{})
	if s.Config.Worker.Enabled {
		go func() {
			defer close(workerDone)
			if err := s.Worker.Run(ctx, s.Config.Worker.Interval); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("worker: %w", err)
			}
		}()
	} else {
		close(workerDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Logger.Warn("graceful shutdown did not complete", "error", err)
		srv.Close()
	}
	<-workerDone

	s.Logger.Info("proposer stopped")
	return runErr
}

// Gatherer exposes the Prometheus registry holding the service metrics.
func (s *Service) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Close releases the store and the redis connection.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
