package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/jgivc/earthfetch/internal/common"
	"github.com/jgivc/earthfetch/internal/dataset"
	"github.com/jgivc/earthfetch/internal/entity"
	"github.com/jgivc/earthfetch/internal/pathtmpl"
)

// sliceFetcher is the dataset-slice strategy: the source is one large virtual
// dataset opened lazily at most once per fetcher instance, and each timestep
// is serialized to a local file on demand.
type sliceFetcher struct {
	src     *entity.Source
	subs    map[string]string
	opener  dataset.Opener
	local   afero.Fs
	journal Journal
	log     *slog.Logger

	ds dataset.Dataset
	// Destination written by the previous timestep of the current download
	// call; empty means none. Re-materialization is forced when the same
	// nearest sample is selected twice in a row.
	prevDest string
}

func newSliceFetcher(src *entity.Source, opener dataset.Opener, deps Deps) (*sliceFetcher, error) {
	if len(src.Variables) == 0 {
		return nil, fmt.Errorf("%w: variables must be defined for dataset source %q", common.ErrConfiguration, src.URL)
	}

	subs := src.Substitutions()
	if err := pathtmpl.ValidateCacheStorage(src.StorageOptions.CacheStorage, subs); err != nil {
		return nil, err
	}

	return &sliceFetcher{
		src:     src,
		subs:    subs,
		opener:  opener,
		local:   deps.Local,
		journal: deps.Journal,
		log:     deps.Log.With(slog.String("item", "SliceFetcher"), slog.String("source", src.Name)),
	}, nil
}

// Download materializes one file per requested timestamp and returns the
// local paths in request order. Duplicate requests are not deduplicated.
func (f *sliceFetcher) Download(ctx context.Context, times entity.TimeRequest) ([]string, error) {
	if times.IsEmpty() {
		return nil, fmt.Errorf("%w: empty time request", common.ErrConfiguration)
	}

	f.prevDest = ""

	var paths []string
	for _, t := range times.Times() {
		path, err := f.downloadTimestep(ctx, t)
		if err != nil {
			return nil, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func (f *sliceFetcher) Close() error {
	if f.ds == nil {
		return nil
	}

	return f.ds.Close()
}

func (f *sliceFetcher) downloadTimestep(ctx context.Context, t time.Time) (string, error) {
	ds, err := f.openDataset(ctx)
	if err != nil {
		return "", err
	}

	// Nearest-neighbor selection: the actual sample time, not the requested
	// one, names the local file.
	actual, err := ds.Nearest(ctx, t)
	if err != nil {
		return "", remoteErr(err, "cannot select time near %s", t.Format(time.RFC3339))
	}

	path, err := pathtmpl.Resolve(f.src.StorageOptions.CacheStorage, actual, f.subs)
	if err != nil {
		return "", err
	}

	exists, err := afero.Exists(f.local, path)
	if err != nil {
		return "", fmt.Errorf("cannot stat %s: %w", path, err)
	}

	if exists && path != f.prevDest {
		f.log.Debug("Already cached", slog.String("path", path))
		f.prevDest = path

		return path, nil
	}

	grid, err := ds.Slice(ctx, actual)
	if err != nil {
		return "", remoteErr(err, "cannot load slice at %s", actual.Format(time.RFC3339))
	}

	if err := dataset.WriteGrid(f.local, path, grid); err != nil {
		return "", remoteErr(err, "cannot materialize %s", path)
	}

	f.log.Info("Materialized slice",
		slog.Time("requested", t), slog.Time("selected", actual), slog.String("path", path))

	if f.journal != nil {
		f.journal.RecordFetch(ctx, f.src.Name, path)
	}

	f.prevDest = path

	return path, nil
}

// openDataset opens the source on first use and reuses the handle afterwards.
func (f *sliceFetcher) openDataset(ctx context.Context) (dataset.Dataset, error) {
	if f.ds != nil {
		return f.ds, nil
	}

	f.log.Info("Opening dataset for the first time, may take some time", slog.String("url", f.src.URL))

	ds, err := f.opener(ctx, f.src.URL, f.src.Variables)
	if err != nil {
		return nil, remoteErr(err, "cannot open dataset %s", f.src.URL)
	}

	f.ds = ds

	return ds, nil
}
