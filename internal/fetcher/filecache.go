package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jgivc/earthfetch/internal/common"
	"github.com/jgivc/earthfetch/internal/entity"
	"github.com/jgivc/earthfetch/internal/pathtmpl"
	"github.com/jgivc/earthfetch/internal/remote"
)

// fileCacheFetcher is the path-template strategy: the source is a collection
// of discrete remote files, one per timestep, named by a URL template.
type fileCacheFetcher struct {
	src     *entity.Source
	subs    map[string]string
	freq    time.Duration
	remote  remote.FS
	cache   *remote.Cache
	journal Journal
	log     *slog.Logger
}

func newFileCacheFetcher(src *entity.Source, deps Deps) (*fileCacheFetcher, error) {
	if err := pathtmpl.ValidateSourceURL(src.URL); err != nil {
		return nil, err
	}

	subs := src.Substitutions()
	if err := pathtmpl.ValidateCacheStorage(src.StorageOptions.CacheStorage, subs); err != nil {
		return nil, err
	}

	freq, err := src.Freq()
	if err != nil {
		return nil, err
	}
	if freq < entity.Day {
		return nil, fmt.Errorf("%w: time.freq %s is sub-daily; the cache layout is day-granular",
			common.ErrConfiguration, freq)
	}

	log := deps.Log.With(slog.String("item", "FileCacheFetcher"), slog.String("source", src.Name))

	rfs := deps.Remote
	if rfs == nil {
		switch remote.Scheme(strings.TrimPrefix(src.URL, pathtmpl.FileCachePrefix)) {
		case "http", "https":
			rfs = remote.NewHTTPFS(deps.HTTP, deps.Log)
		default:
			return nil, fmt.Errorf("%w: no remote filesystem available for url %q", common.ErrConfiguration, src.URL)
		}
	}

	return &fileCacheFetcher{
		src:     src,
		subs:    subs,
		freq:    freq,
		remote:  rfs,
		cache:   remote.NewCacheWithFS(rfs, deps.Local, deps.Log),
		journal: deps.Journal,
		log:     log,
	}, nil
}

// Download expands the request at the source's actual cadence, groups the
// resolved locations into per-destination batches and executes them in order.
// The first failing group aborts the call; artifacts written by earlier
// groups stay on disk.
func (f *fileCacheFetcher) Download(ctx context.Context, times entity.TimeRequest) ([]string, error) {
	batch, err := f.buildBatch(ctx, times)
	if err != nil {
		return nil, err
	}

	f.log.Info("Downloading batch",
		slog.Int("files", batch.RemoteCount()), slog.Int("locations", len(batch.Groups())))

	var paths []string
	for _, g := range batch.Groups() {
		local, err := f.cache.EnsureLocal(ctx, g.Local, g.Remotes)
		if err != nil {
			return nil, remoteErr(err, "cannot fetch into %s", g.Local)
		}

		for _, p := range local {
			if f.journal != nil {
				f.journal.RecordFetch(ctx, f.src.Name, p)
			}
			paths = append(paths, p)
		}

		f.log.Info("Fetched group", slog.String("location", g.Local), slog.Int("files", len(g.Remotes)))
	}

	return paths, nil
}

func (f *fileCacheFetcher) Close() error {
	return nil
}

// buildBatch normalizes the request to timestamps at the detected cadence,
// resolves each to a remote reference and a local path, silently drops
// timestamps whose remote resource is absent, and groups the rest by local
// destination in timestamp order.
func (f *fileCacheFetcher) buildBatch(ctx context.Context, times entity.TimeRequest) (*entity.Batch, error) {
	t0, t1, err := times.Bounds()
	if err != nil {
		return nil, err
	}

	strided, err := f.strideTimes(ctx, t0, t1)
	if err != nil {
		return nil, err
	}

	batch := &entity.Batch{}
	for _, t := range strided {
		ref, local, err := f.resolvePath(ctx, t, false)
		if err != nil {
			return nil, err
		}
		if ref == "" {
			// A gap in the remote archive, not an error.
			f.log.Debug("No remote resource", slog.Time("time", t))

			continue
		}

		batch.Add(local, ref)
	}

	return batch, nil
}

// resolvePath renders the remote and local locations for t. The returned
// remote reference is empty when no resource exists: a wildcard that matched
// nothing, or a failed forced existence probe. Without a wildcard or a forced
// check the path is assumed present; existence is verified lazily by the
// fetch itself.
func (f *fileCacheFetcher) resolvePath(ctx context.Context, t time.Time, forceCheck bool) (string, string, error) {
	rendered, err := pathtmpl.Resolve(f.src.URL, t, f.subs)
	if err != nil {
		return "", "", err
	}
	ref := strings.TrimPrefix(rendered, pathtmpl.FileCachePrefix)

	local, err := pathtmpl.Resolve(f.src.StorageOptions.CacheStorage, t, f.subs)
	if err != nil {
		return "", "", err
	}

	switch {
	case strings.Contains(ref, "*"):
		matches, err := f.remote.Glob(ctx, ref)
		if err != nil {
			return "", "", remoteErr(err, "cannot expand %s", ref)
		}
		if len(matches) == 0 {
			return "", local, nil
		}

		// Matches come back sorted; taking the first is deterministic.
		ref = matches[0]
	case forceCheck:
		exists, err := f.remote.Exists(ctx, ref)
		if err != nil {
			return "", "", remoteErr(err, "cannot probe %s", ref)
		}
		if !exists {
			return "", local, nil
		}
	}

	return ref, local, nil
}

// strideTimes enumerates the request's bounds at the source cadence. Daily
// sources use the range as-is; coarser cadences first detect the phase of the
// archive with detectStart.
func (f *fileCacheFetcher) strideTimes(ctx context.Context, t0, t1 time.Time) ([]time.Time, error) {
	start := t0
	if f.freq > entity.Day {
		var err error
		start, err = f.detectStart(ctx, t0)
		if err != nil {
			return nil, err
		}
	}

	var times []time.Time
	for t := start; !t.After(t1); t = t.Add(f.freq) {
		times = append(times, t)
	}

	return times, nil
}

// detectStart probes each calendar day in [t0, t0+2*freq] with forced
// existence checks and returns the first day that resolves. The declared
// cadence is trusted, its phase is not. Runs once per download call, not per
// timestep.
func (f *fileCacheFetcher) detectStart(ctx context.Context, t0 time.Time) (time.Time, error) {
	end := t0.Add(2 * f.freq)
	for t := t0; !t.After(end); t = t.Add(entity.Day) {
		ref, _, err := f.resolvePath(ctx, t, true)
		if err != nil {
			return time.Time{}, err
		}
		if ref != "" {
			f.log.Debug("Found data", slog.Time("time", t))

			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: no data found between %s and %s",
		common.ErrDataNotFound, t0.Format(time.RFC3339), end.Format(time.RFC3339))
}
