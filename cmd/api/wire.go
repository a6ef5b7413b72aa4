package main

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crewtime/internal/api"
	"crewtime/internal/config"
	"crewtime/internal/logging"
	"crewtime/internal/schedule"
	"crewtime/internal/store"
	"crewtime/internal/timeline"
	"crewtime/internal/travel"
)

type deps struct {
	store   store.Store
	service *schedule.Service
	broker  api.EventBroker // nil without Redis
	closers []func() error
	logger  zerolog.Logger
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Error().Err(err).Msg("close failed")
		}
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.Setup(cfg.Logging.Env, cfg.Logging.Level), nil
}

func wire(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	d := &deps{logger: logger}

	st, err := openStore(ctx, cfg, logger, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.store = st

	opts := []travel.Option{
		travel.WithConcurrency(cfg.Travel.Concurrency),
		travel.WithCallTimeout(cfg.Travel.CallTimeout()),
		travel.WithRetryUnresolvedAfter(cfg.Travel.RetryUnresolvedAfter()),
		travel.WithLogger(logger),
	}
	if cfg.Redis.URL != "" {
		ropt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(ropt)
		d.closers = append(d.closers, rdb.Close)
		opts = append(opts, travel.WithSharedStore(travel.NewRedisStore(rdb, cfg.Travel.SharedTTL(), logger)))
		d.broker = api.NewRedisBroker(rdb, logger)
		logger.Info().Str("addr", ropt.Addr).Msg("redis shared travel cache enabled")
	}

	resolver := travel.NewResolver(travel.NewCache(), newProvider(cfg, logger), opts...)
	d.service = schedule.New(st, resolver, timeline.Options{
		WorkdayStartMinutes: cfg.Workday.StartMinutes,
		WorkdayEndMinutes:   cfg.Workday.EndMinutes,
	}, logger)
	return d, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger, d *deps) (store.Store, error) {
	if cfg.Database.URL == "" {
		mem := store.NewMemory()
		if cfg.Fixtures != "" {
			if err := mem.LoadFixturesFile(cfg.Fixtures); err != nil {
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
			logger.Info().Str("path", cfg.Fixtures).Msg("fixtures loaded")
		}
		return mem, nil
	}
	pg, err := store.NewPostgres(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	d.closers = append(d.closers, pg.Close)
	if cfg.Database.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return pg, nil
}

func newProvider(cfg *config.Config, logger zerolog.Logger) travel.Provider {
	if cfg.Travel.Provider == "http" {
		return travel.NewHTTPProvider(cfg.Travel.HTTPBaseURL, cfg.Travel.RateRPS, cfg.Travel.RateBurst, cfg.Travel.CallTimeout(), logger)
	}
	g := travel.NewGeoProvider(cfg.Travel.GeoSpeedKph)
	g.OverheadMinutes = cfg.Travel.GeoOverheadMinutes
	return g
}
