// Package fetcher implements the temporal fetch-and-cache engine: it resolves
// timestamps to remote and local locations and materializes remote data into
// the local cache, at most once per path.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/jgivc/earthfetch/internal/common"
	"github.com/jgivc/earthfetch/internal/dataset"
	"github.com/jgivc/earthfetch/internal/entity"
	"github.com/jgivc/earthfetch/internal/pathtmpl"
	"github.com/jgivc/earthfetch/internal/remote"
)

// Marker identifying catalog-service datasets reachable without credentials.
const catalogServiceMarker = "thredds"

// Fetcher makes the data for the requested times available as local files and
// returns their paths in request order. Instances are single-owner: no
// concurrent calls into the same instance are supported.
type Fetcher interface {
	Download(ctx context.Context, times entity.TimeRequest) ([]string, error)
	Close() error
}

// Journal records materializations for observability. Implementations must
// tolerate being called on every fetched path.
type Journal interface {
	RecordFetch(ctx context.Context, source, path string)
}

// Deps carries the collaborators a fetcher is built with. Zero values select
// production defaults; tests inject in-memory filesystems and fake openers.
type Deps struct {
	Remote  remote.FS      // remote filesystem; default derives from the URL scheme
	Local   afero.Fs       // local cache filesystem; default is the OS filesystem
	Opener  dataset.Opener // dataset opener; default derives from the URL shape
	Journal Journal

	HTTP                 remote.HTTPOptions
	SubscriptionEndpoint string

	Log *slog.Logger
}

// New selects a fetch strategy by structural inspection of the source URL:
// the filecache grammar picks the path-template strategy, a catalog-service
// marker picks the dataset-slice strategy with the open subset opener, and a
// URL without path separators is treated as a subscription-catalog dataset ID.
func New(src *entity.Source, deps Deps) (Fetcher, error) {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Local == nil {
		deps.Local = afero.NewOsFs()
	}

	if err := src.Validate(); err != nil {
		return nil, err
	}

	switch {
	case pathtmpl.IsFileCacheURL(src.URL):
		return newFileCacheFetcher(src, deps)
	case strings.Contains(src.URL, catalogServiceMarker):
		opener := deps.Opener
		if opener == nil {
			opener = dataset.SubsetOpener(deps.Log)
		}

		return newSliceFetcher(src, opener, deps)
	case !strings.Contains(src.URL, "/"):
		opener := deps.Opener
		if opener == nil {
			opener = dataset.SubscriptionOpener(deps.SubscriptionEndpoint, deps.Log)
		}

		return newSliceFetcher(src, opener, deps)
	default:
		return nil, fmt.Errorf("%w: url %q matches no known fetch strategy", common.ErrConfiguration, src.URL)
	}
}

// remoteErr tags an untagged transport error as a remote fetch failure while
// leaving already-classified errors alone.
func remoteErr(err error, format string, args ...any) error {
	if errors.Is(err, common.ErrConfiguration) ||
		errors.Is(err, common.ErrDataNotFound) ||
		errors.Is(err, common.ErrRemoteFetch) {
		return err
	}

	msg := fmt.Sprintf(format, args...)

	return fmt.Errorf("%w: %s: %v", common.ErrRemoteFetch, msg, err)
}
