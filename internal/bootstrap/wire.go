package bootstrap

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/credentials"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/seed"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/db/mongodb"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/fake"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/metrics"
)

// PushJob is the Pushgateway job name seed metrics are grouped under.
const PushJob = "user_seed"

/*
========================
 Public entry (prod)
========================
*/

func NewSeeder(ctx context.Context) (*App, func(), error) {
	return newSeeder(ctx, defaultDeps())
}

// NewSeederWithDeps allows injecting dependencies for testing
func NewSeederWithDeps(ctx context.Context, deps Deps) (*App, func(), error) {
	return newSeeder(ctx, deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	// OpenRepo returns the user repository and its cleanup.
	OpenRepo func(ctx context.Context, cfg *config.Config) (credentials.UserRepo, func(), error)

	NewGenerator func(seed uint64) seed.Generator

	// Push delivers the gathered metrics; nil disables pushing.
	Push func(url, job string, g prometheus.Gatherer) error

	Logger *zerolog.Logger
}

// App is a fully wired seeder.
type App struct {
	cfg      *config.Config
	store    *credentials.Store
	pipeline *seed.Pipeline
	registry *prometheus.Registry
	push     func(url, job string, g prometheus.Gatherer) error
	log      zerolog.Logger
}

func (a *App) Store() *credentials.Store { return a.store }

func (a *App) Registry() *prometheus.Registry { return a.registry }

// Run executes one seed run and then pushes metrics when a gateway is
// configured. A failed push is logged and never changes the run result.
func (a *App) Run(ctx context.Context) (seed.Report, error) {
	rep, err := a.pipeline.Run(ctx)

	if a.cfg.PushgatewayURL != "" && a.push != nil {
		if perr := a.push(a.cfg.PushgatewayURL, PushJob, a.registry); perr != nil {
			a.log.Warn().Err(perr).Str("url", a.cfg.PushgatewayURL).Msg("metrics push failed")
		} else {
			a.log.Info().Str("url", a.cfg.PushgatewayURL).Msg("metrics pushed")
		}
	}
	return rep, err
}

/*
========================
 Core bootstrap logic
========================
*/

func newSeeder(ctx context.Context, deps Deps) (*App, func(), error) {
	lg := logger.Logger
	if deps.Logger != nil {
		lg = *deps.Logger
	}

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if deps.OpenRepo == nil {
		return nil, nil, errors.New("bootstrap: OpenRepo is required")
	}

	// 1) store backend
	repo, closeRepo, err := deps.OpenRepo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanupFns := []func(){}
	if closeRepo != nil {
		cleanupFns = append(cleanupFns, closeRepo)
	}

	// 2) metrics
	reg := prometheus.NewRegistry()
	storeMetrics := metrics.NewStore(reg)
	seedMetrics := metrics.NewSeed(reg)

	// 3) security + store
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	store := credentials.NewStore(repo, hasher, credentials.WithObserver(storeMetrics))

	// 4) generator
	var gen seed.Generator
	if deps.NewGenerator != nil {
		gen = deps.NewGenerator(cfg.SeedFakerSeed)
	} else {
		gen = fake.NewGenerator(cfg.SeedFakerSeed)
	}

	// 5) pipeline
	pipeline := seed.New(
		store,
		gen,
		seed.Config{Count: cfg.SeedCount, Password: cfg.SeedPassword},
		lg,
		seedMetrics,
	)

	lg.Info().
		Str("env", cfg.Env).
		Str("db", cfg.MongoDB).
		Int("count", cfg.SeedCount).
		Int("bcrypt_cost", cfg.BcryptCost).
		Msg("seeder wired")

	app := &App{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		registry: reg,
		push:     deps.Push,
		log:      lg,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return app, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		OpenRepo:   openMongoRepo,
		NewGenerator: func(s uint64) seed.Generator {
			return fake.NewGenerator(s)
		},
		Push: metrics.Push,
	}
}

func openMongoRepo(ctx context.Context, cfg *config.Config) (credentials.UserRepo, func(), error) {
	cli, err := config.NewMongo(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() { _ = cli.Disconnect(context.Background()) }

	repo := mongodb.NewUserRepo(cli.Database(cfg.MongoDB))
	if err := repo.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, nil, err
	}
	return repo, disconnect, nil
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
