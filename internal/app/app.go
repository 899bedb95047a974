package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/jgivc/earthfetch/internal/catalog"
	"github.com/jgivc/earthfetch/internal/config"
	"github.com/jgivc/earthfetch/internal/entity"
	"github.com/jgivc/earthfetch/internal/fetcher"
	"github.com/jgivc/earthfetch/internal/journal"
	"github.com/jgivc/earthfetch/internal/remote"
)

type App struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

// Run fetches the requested times for one named source and returns the local
// paths materialized or confirmed present.
func (a *App) Run(ctx context.Context, sourceName string, times entity.TimeRequest) ([]string, error) {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	sources, err := a.loadSources(log)
	if err != nil {
		return nil, err
	}

	src, exists := sources[sourceName]
	if !exists {
		return nil, fmt.Errorf("unknown source %q, have %d sources configured", sourceName, len(sources))
	}

	deps := fetcher.Deps{
		HTTP: remote.HTTPOptions{
			RetryCount:        a.cfg.HTTP.RetryCount,
			RequestsPerSecond: a.cfg.HTTP.RequestsPerSecond,
		},
		SubscriptionEndpoint: a.cfg.SubscriptionEndpoint,
		Log:                  log,
	}

	if a.cfg.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cannot parse redis url: %w", err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("cannot connect to redis: %w", err)
		}

		deps.Journal = journal.New(rdb, log)
	}

	f, err := fetcher.New(src, deps)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Download(ctx, times)
}

func (a *App) loadSources(log *slog.Logger) (map[string]*entity.Source, error) {
	cat := catalog.New(log)

	var maps []map[string]*entity.Source
	if a.cfg.SourcesFile != "" {
		fromFile, err := cat.LoadFile(a.cfg.SourcesFile)
		if err != nil {
			return nil, err
		}

		maps = append(maps, fromFile)
	}
	if a.cfg.CatalogDir != "" {
		fromDir, err := cat.LoadDir(a.cfg.CatalogDir)
		if err != nil {
			return nil, err
		}

		maps = append(maps, fromDir)
	}

	return catalog.Merge(maps...), nil
}
