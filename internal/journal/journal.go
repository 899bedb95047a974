// Package journal keeps an advisory record of cache materializations in
// redis: how often each source fetched, how often each path was materialized
// and where a source last wrote. The fetch engine works identically without
// it.
package journal

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jgivc/earthfetch/internal/util"
)

const (
	KeyFetchCount = "ef:fc" // HASH. source -> fetch counter
	KeyPathCount  = "ef:pc" // HASH. path_id -> materialize counter
	KeyLastPath   = "ef:lp" // HASH. source -> last materialized path
)

type Journal struct {
	cl  *redis.Client
	log *slog.Logger
}

func New(cl *redis.Client, log *slog.Logger) *Journal {
	return &Journal{
		cl:  cl,
		log: log.With(slog.String("item", "Journal")),
	}
}

// RecordFetch notes one materialized path. The journal is advisory: failures
// are logged, never propagated into the fetch path.
func (j *Journal) RecordFetch(ctx context.Context, source, path string) {
	if j == nil {
		return
	}

	pipe := j.cl.Pipeline()
	pipe.HIncrBy(ctx, KeyFetchCount, source, 1)
	pipe.HIncrBy(ctx, KeyPathCount, util.GetIDFromString(&path), 1)
	pipe.HSet(ctx, KeyLastPath, source, path)

	if _, err := pipe.Exec(ctx); err != nil {
		j.log.Error("Cannot record fetch",
			slog.String("source", source), slog.String("path", path), slog.Any("error", err))
	}
}

// Fetches returns how many paths the source has materialized so far.
func (j *Journal) Fetches(ctx context.Context, source string) (int64, error) {
	n, err := j.cl.HGet(ctx, KeyFetchCount, source).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

// LastPath returns the path the source last materialized, or "" if none.
func (j *Journal) LastPath(ctx context.Context, source string) (string, error) {
	path, err := j.cl.HGet(ctx, KeyLastPath, source).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	return path, err
}
