package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evermedhq/pulse/modules/telemetry"
	"github.com/evermedhq/pulse/pkg/analytics"
	"github.com/evermedhq/pulse/pkg/analytics/rollup"
	"github.com/evermedhq/pulse/pkg/config"
	"github.com/evermedhq/pulse/pkg/feature"
	"github.com/evermedhq/pulse/pkg/httpserver"
	"github.com/evermedhq/pulse/pkg/logger"
	"github.com/evermedhq/pulse/pkg/pg"
	"github.com/evermedhq/pulse/pkg/ratelimiter"
	"github.com/evermedhq/pulse/pkg/redis"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	// AdminToken gates flag administration and metrics. Empty disables the
	// gate; only do that behind an authenticating proxy.
	AdminToken string `env:"ADMIN_TOKEN"`

	// SessionPepper keys the session-id hasher. Empty falls back to
	// unkeyed hashing, which is still one-way but not secret.
	SessionPepper string `env:"SESSION_HASH_PEPPER"`

	// FlagSeedPath points at the YAML file of launch flags seeded on boot.
	// A missing file is not an error.
	FlagSeedPath string `env:"FLAG_SEED_PATH" envDefault:"flags.yaml"`

	FlagCacheTTL time.Duration `env:"FLAG_CACHE_TTL" envDefault:"30s"`

	EventRateCapacity int           `env:"EVENT_RATE_CAPACITY" envDefault:"120"`
	EventRateRefill   int           `env:"EVENT_RATE_REFILL" envDefault:"120"`
	EventRateInterval time.Duration `env:"EVENT_RATE_INTERVAL" envDefault:"1m"`
}

func main() {
	ctx := context.Background()

	var appCfg appConfig
	config.MustLoad(&appCfg)
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "pulse"))
	logger.SetAsDefault(log)

	if err := run(ctx, appCfg, pgCfg, redisCfg, httpCfg, log); err != nil {
		log.ErrorContext(ctx, "service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, pgCfg pg.Config, redisCfg redis.Config, httpCfg httpserver.Config, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close redis client", "error", err)
		}
	}()

	flagStore := feature.NewCachedStore(
		feature.NewPostgresStore(pool),
		redisClient,
		feature.WithCacheTTL(appCfg.FlagCacheTTL),
		feature.WithCacheLogger(log),
	)
	flagSvc := feature.NewService(flagStore, feature.WithLogger(log))
	if err := feature.SeedFromFile(ctx, flagStore, appCfg.FlagSeedPath); err != nil {
		return err
	}

	eventStore := analytics.NewPostgresEventStore(pool)
	tokenStore := analytics.NewPostgresTokenUsageStore(pool)
	tracker := analytics.NewTracker(eventStore,
		analytics.WithTokenUsageStore(tokenStore),
		analytics.WithSessionHasher(analytics.NewSessionHasher(appCfg.SessionPepper)),
		analytics.WithLogger(log),
	)
	aggregator := rollup.NewAggregator(eventStore, tokenStore)

	eventLimiter, err := ratelimiter.NewBucket(
		ratelimiter.NewRedisStore(redisClient),
		ratelimiter.Config{
			Capacity:       appCfg.EventRateCapacity,
			RefillRate:     appCfg.EventRateRefill,
			RefillInterval: appCfg.EventRateInterval,
		},
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/", telemetry.Router(telemetry.RouterOptions{
		Flags:        flagSvc,
		Tracker:      tracker,
		Reports:      aggregator,
		AdminToken:   appCfg.AdminToken,
		EventLimiter: eventLimiter,
		Logger:       log,
	}))

	return httpserver.New(httpCfg, log).Run(ctx, r)
}
