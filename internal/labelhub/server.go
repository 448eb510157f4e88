// Package labelhub wires the LabelHub server: storage, the bulk record
// engine, post-commit collaborators and the HTTP API.
package labelhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/kart-io/labelhub/internal/labelhub/biz"
	"github.com/kart-io/labelhub/internal/labelhub/events"
	"github.com/kart-io/labelhub/internal/labelhub/handler"
	"github.com/kart-io/labelhub/internal/labelhub/metrics"
	"github.com/kart-io/labelhub/internal/labelhub/router"
	"github.com/kart-io/labelhub/internal/labelhub/search"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/pkg/component/database"
	"github.com/kart-io/labelhub/pkg/component/milvus"
	"github.com/kart-io/labelhub/pkg/component/redis"
	"github.com/kart-io/labelhub/pkg/infra/pool"
	"github.com/kart-io/labelhub/pkg/infra/tracing"
	"github.com/kart-io/labelhub/pkg/middleware"
	dbopts "github.com/kart-io/labelhub/pkg/options/database"
	httpopts "github.com/kart-io/labelhub/pkg/options/http"
	logopts "github.com/kart-io/labelhub/pkg/options/logger"
	milvusopts "github.com/kart-io/labelhub/pkg/options/milvus"
	redisopts "github.com/kart-io/labelhub/pkg/options/redis"
)

// Name is the name of the application.
const Name = "labelhub"

// Version returns the build version.
func Version() string {
	return version.Get().GitVersion
}

// Config contains application-related configurations.
type Config struct {
	HTTPOptions     *httpopts.Options
	LogOptions      *logopts.Options
	DatabaseOptions *dbopts.Options
	RedisOptions    *redisopts.Options
	MilvusOptions   *milvusopts.Options
	TracingOptions  *tracing.Options
	LabelHubOptions *Options
}

// Server represents the labelhub server.
type Server struct {
	cfg     *Config
	handler http.Handler
	closers []func(ctx context.Context) error
}

// InitLogger installs the global logger described by opts.
func InitLogger(opts *logopts.Options) error {
	if opts.InitialFields == nil {
		opts.InitialFields = map[string]any{}
	}
	opts.InitialFields["service.name"] = Name
	opts.InitialFields["service.version"] = Version()
	return opts.Init()
}

// NewServer initializes and returns a new Server instance. Resources opened
// before a failure are released.
func (cfg *Config) NewServer(ctx context.Context) (srv *Server, err error) {
	printBanner(cfg)

	if err := InitLogger(cfg.LogOptions); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting labelhub service...")

	s := &Server{cfg: cfg}
	defer func() {
		if err != nil {
			_ = s.close(context.Background())
		}
	}()

	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.closers = append(s.closers, tp.Shutdown)

	db, err := database.Open(ctx, cfg.DatabaseOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return database.Close(db) })

	factory := store.NewFactory(db)
	if cfg.DatabaseOptions.AutoMigrate {
		if err := factory.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migration completed")
	}

	checks := map[string]router.HealthCheck{"database": factory.Ping}

	var redisClient *redis.Client
	if cfg.RedisOptions.Enabled {
		if redisClient, err = redis.New(ctx, cfg.RedisOptions); err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return redisClient.Close() })
		checks["redis"] = redisClient.Ping
	}

	var indexer search.Indexer = search.NopIndexer{}
	if cfg.MilvusOptions.Enabled {
		mc, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		s.closers = append(s.closers, mc.Close)
		checks["milvus"] = mc.Ping
		indexer = search.NewMilvusIndexer(mc, cfg.MilvusOptions.CollectionPrefix)
	}

	sink := newSink(cfg.LabelHubOptions, redisClient)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recordOpts := []biz.Option{
		biz.WithLimits(cfg.LabelHubOptions.Limits()),
		biz.WithMetrics(metrics.New(reg)),
	}
	if n := cfg.LabelHubOptions.ValidationWorkers; n > 0 {
		p, err := pool.NewPool("validation", pool.ValidationPool, pool.ValidationPoolConfig(n))
		if err != nil {
			return nil, fmt.Errorf("failed to create validation pool: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error {
			p.Release()
			return nil
		})
		recordOpts = append(recordOpts, biz.WithPool(p))
	}
	logger.Info("Business layer initialized")

	gin.SetMode(cfg.HTTPOptions.Mode)
	rc := &router.Config{
		ServiceName:      Name,
		MaxBodyBytes:     cfg.HTTPOptions.MaxBodyBytes,
		RequestTimeout:   cfg.HTTPOptions.RequestTimeout,
		CORSAllowOrigins: cfg.HTTPOptions.CORSAllowOrigins,
		Checks:           checks,
		Users:            handler.NewUserHandler(biz.NewUserService(factory)),
		Datasets:         handler.NewDatasetHandler(biz.NewDatasetService(factory)),
		Records:          handler.NewRecordHandler(biz.NewRecordService(factory, indexer, sink, recordOpts...)),
	}
	if cfg.HTTPOptions.EnableMetrics {
		rc.Gatherer = reg
		rc.HTTPMetrics = middleware.NewHTTPMetrics(reg, Name)
	}
	s.handler = router.New(rc)

	return s, nil
}

// newSink combines the configured event sinks.
func newSink(opts *Options, redisClient *redis.Client) events.Sink {
	var sinks events.Multi
	if opts.HasSink(SinkLog) {
		sinks = append(sinks, events.LogSink{})
	}
	if opts.HasSink(SinkRedis) && redisClient != nil {
		sinks = append(sinks, events.NewRedisStreamSink(redisClient.Client(), opts.EventStream, opts.EventStreamMaxLen))
	}
	if len(sinks) == 0 {
		return events.NopSink{}
	}
	return sinks
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (s *Server) Run(ctx context.Context) error {
	opts := s.cfg.HTTPOptions
	httpServer := &http.Server{
		Addr:         opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("HTTP server listening", "addr", opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down labelhub service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if cerr := s.close(closeCtx); cerr != nil {
		logger.Errorw("Failed to release resources", "error", cerr.Error())
	}
	_ = logger.Flush()
	return err
}

// close releases resources in reverse order of acquisition.
func (s *Server) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run runs the labelhub service until SIGINT or SIGTERM.
func Run(cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := cfg.NewServer(ctx)
	if err != nil {
		return err
	}
	logger.Info("Labelhub service is ready")
	return srv.Run(ctx)
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s %s (database: %s, http: %s)...\n",
		Name, Version(), cfg.DatabaseOptions.Driver, cfg.HTTPOptions.Addr)
}
