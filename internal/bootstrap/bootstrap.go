// Package bootstrap assembles the case analysis service and its backends
// from a Config.  Every entry point (HTTP server, worker, one-shot CLI
// commands) builds its graph here so the backend selection rules live in one
// place.
package bootstrap

import (
	"context"
	"time"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/storage/filestore"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// batchLockName is the redis lock shared by every regenerate-all run.
const batchLockName = "regenerate-all"

// App is a fully wired service graph.  Backend handles are nil when the
// configuration does not select them.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Service caseanalysis.Service

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Files      *filestore.Store
	Postgres   *postgres.Connection
	Redis      *redis.Client
	OpenSearch *opensearch.Client
	Indexer    *opensearch.CorpusIndexer
	MinIO      *minio.Client
	Producer   *kafka.Producer

	checkers []handlers.HealthChecker
	closers  []func() error
}

// Option customises New.
type Option func(*options)

type options struct {
	clock caseanalysis.Clock
}

// WithClock overrides the service clock.
func WithClock(c caseanalysis.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New connects every backend cfg selects and builds the service.  On error
// the backends opened so far are closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeValidation, "config is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if err = app.initMetrics(); err != nil {
		return nil, err
	}

	deps := caseanalysis.Dependencies{Logger: log}
	if err = app.initStorage(&deps); err != nil {
		return nil, err
	}
	if err = app.initAnalysisSource(&deps); err != nil {
		return nil, err
	}
	if err = app.initSearch(ctx, &deps); err != nil {
		return nil, err
	}

	svcOpts := []caseanalysis.Option{
		caseanalysis.WithFreshnessWindow(cfg.Cache.FreshnessWindow),
		caseanalysis.WithRecentWindow(cfg.Cache.RecentWindow),
		caseanalysis.WithMetrics(app.Metrics),
	}
	if o.clock != nil {
		svcOpts = append(svcOpts, caseanalysis.WithClock(o.clock))
	}

	lock, err := app.initCache(&deps)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		svcOpts = append(svcOpts, caseanalysis.WithBatchLock(lock))
	}

	if cfg.Kafka.Enabled {
		if err = app.initKafka(); err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, caseanalysis.WithEventPublisher(app.Producer))
	}

	app.Service, err = caseanalysis.NewService(deps, svcOpts...)
	if err != nil {
		return nil, err
	}

	log.Info("service graph ready",
		logging.String("storage", cfg.Storage.Backend),
		logging.String("analysis_source", analysisSourceName(cfg)),
		logging.String("search", cfg.Search.Backend),
		logging.String("cache", cfg.Cache.Backend),
		logging.Bool("kafka", cfg.Kafka.Enabled))
	return app, nil
}

func (a *App) initMetrics() error {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            a.Config.Metrics.Namespace,
		EnableProcessMetrics: a.Config.Metrics.Enabled,
		EnableGoMetrics:      a.Config.Metrics.Enabled,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Collector = collector
	a.Metrics = prometheus.NewAppMetrics(collector)
	return nil
}

func (a *App) initStorage(deps *caseanalysis.Dependencies) error {
	cfg := a.Config
	a.Files = filestore.NewStore(cfg.Storage.DataDir, a.Logger)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		conn, err := postgres.NewConnection(cfg.Database, a.Logger)
		if err != nil {
			return err
		}
		a.Postgres = conn
		a.onClose(conn.Close)
		a.addCheck("postgres", conn.HealthCheck)

		if cfg.Database.AutoMigrate {
			if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
				return err
			}
		}

		cases := repositories.NewCaseRepo(conn, a.Logger)
		deps.Cases = cases
		deps.Documents = cases
		deps.DocumentAnalyses = cases
		deps.Playbooks = repositories.NewPlaybookRepo(conn, a.Logger)
	default:
		deps.Cases = a.Files
		deps.Documents = a.Files
		deps.DocumentAnalyses = a.Files
		deps.Playbooks = a.Files
	}
	return nil
}

func (a *App) initAnalysisSource(deps *caseanalysis.Dependencies) error {
	if a.Config.Storage.AnalysisSource != config.BackendMinIO {
		return nil
	}
	client, err := minio.NewClient(a.Config.MinIO, a.Logger)
	if err != nil {
		return err
	}
	a.MinIO = client
	a.onClose(client.Close)
	a.addCheck("minio", client.HealthCheck)
	deps.DocumentAnalyses = minio.NewDocumentAnalysisSource(client, a.Logger)
	return nil
}

func (a *App) initSearch(ctx context.Context, deps *caseanalysis.Dependencies) error {
	if a.Config.Search.Backend != config.BackendOpenSearch {
		deps.Corpus = a.Files
		return nil
	}
	client, err := opensearch.NewClient(a.Config.OpenSearch, 0, a.Logger)
	if err != nil {
		return err
	}
	a.OpenSearch = client
	a.onClose(client.Close)
	a.addCheck("opensearch", client.Ping)

	a.Indexer = opensearch.NewCorpusIndexer(client, a.Logger)
	if _, err := a.Indexer.EnsureIndex(ctx); err != nil {
		return err
	}
	deps.Corpus = opensearch.NewCorpusSearcher(client, a.Logger)
	return nil
}

// initCache selects the analysis store.  With redis it also returns the
// batch lock and serves playbooks through the redis cache when a TTL is set.
func (a *App) initCache(deps *caseanalysis.Dependencies) (caseanalysis.BatchLock, error) {
	cfg := a.Config
	if cfg.Cache.Backend != config.BackendRedis {
		deps.Store = filestore.NewAnalysisStoreInDir(cfg.Storage.DataDir, a.Logger)
		return nil, nil
	}

	client, err := redis.NewClient(cfg.Redis, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Redis = client
	a.onClose(client.Close)
	a.addCheck("redis", client.Ping)

	deps.Store = redis.NewAnalysisStore(client, a.Logger)
	if cfg.Cache.PlaybookTTL > 0 {
		cache := redis.NewRedisCache(client, a.Logger, redis.WithDefaultTTL(cfg.Cache.PlaybookTTL))
		deps.Playbooks = redis.NewCachedPlaybookRepository(deps.Playbooks, cache, cfg.Cache.PlaybookTTL, a.Logger)
	}

	return newBatchLock(client, a.Logger, cfg.Cache.BatchLockTTL), nil
}

// newBatchLock returns the regenerate-all mutex.  The watchdog keeps
// extending the lease while a run holds it, so a batch that outlives ttl
// still excludes other processes.
func newBatchLock(client *redis.Client, log logging.Logger, ttl time.Duration) caseanalysis.BatchLock {
	return redis.NewLockFactory(client, log).NewMutex(batchLockName,
		redis.WithLockTTL(ttl),
		redis.WithWatchdog(true))
}

func (a *App) initKafka() error {
	producer, err := kafka.NewProducer(a.Config.Kafka, a.Logger)
	if err != nil {
		return err
	}
	a.Producer = producer
	a.onClose(producer.Close)
	return nil
}

// HealthCheckers lists a readiness check per connected backend.
func (a *App) HealthCheckers() []handlers.HealthChecker {
	out := make([]handlers.HealthChecker, len(a.checkers))
	copy(out, a.checkers)
	return out
}

// CorpusItems reads every corpus entry from the data directory.
func (a *App) CorpusItems(ctx context.Context) ([]legalcase.CorpusItem, error) {
	return a.Files.Search(ctx, "")
}

// Close releases the backends in reverse order of opening and returns the
// first error.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return first
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) addCheck(name string, fn func(ctx context.Context) error) {
	a.checkers = append(a.checkers, handlers.CheckFunc{Component: name, Fn: fn})
}

func analysisSourceName(cfg *config.Config) string {
	if cfg.Storage.AnalysisSource == "" {
		return cfg.Storage.Backend
	}
	return cfg.Storage.AnalysisSource
}

//Personal.AI order the ending
