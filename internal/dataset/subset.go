package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/jgivc/earthfetch/internal/common"
)

const (
	indexPath = "/index.json"
	slicePath = "/slice"

	subsetRetryCount = 3
	subsetRetryWait  = 2 * time.Second
)

// subsetDataset talks to an array-protocol subset service: a small JSON index
// describing the time axis and variables, and a per-timestep slice endpoint.
type subsetDataset struct {
	client *resty.Client
	url    string
	vars   []string
	times  []time.Time
	log    *slog.Logger
}

type subsetIndex struct {
	Time      []time.Time `json:"time"`
	Variables []string    `json:"variables"`
}

// SubsetOpener returns the opener used for catalog-service (THREDDS-style)
// sources reachable without credentials.
func SubsetOpener(log *slog.Logger) Opener {
	return func(ctx context.Context, dsURL string, variables []string) (Dataset, error) {
		return openSubset(ctx, newSubsetClient(), dsURL, variables, log)
	}
}

func newSubsetClient() *resty.Client {
	return resty.New().
		SetRetryCount(subsetRetryCount).
		SetRetryWaitTime(subsetRetryWait)
}

func openSubset(ctx context.Context, client *resty.Client, dsURL string, variables []string, log *slog.Logger) (Dataset, error) {
	var idx subsetIndex

	res, err := client.R().
		SetContext(ctx).
		SetResult(&idx).
		Get(dsURL + indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read dataset index %s: %v", common.ErrRemoteFetch, dsURL, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: dataset index %s: HTTP %d", common.ErrRemoteFetch, dsURL, res.StatusCode())
	}
	if len(idx.Time) == 0 {
		return nil, fmt.Errorf("%w: dataset %s has an empty time axis", common.ErrDataNotFound, dsURL)
	}

	available := make(map[string]struct{}, len(idx.Variables))
	for _, v := range idx.Variables {
		available[v] = struct{}{}
	}
	for _, v := range variables {
		if _, ok := available[v]; !ok {
			return nil, fmt.Errorf("%w: variable %q not present in dataset %s", common.ErrConfiguration, v, dsURL)
		}
	}

	times := make([]time.Time, len(idx.Time))
	copy(times, idx.Time)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	log.Debug("Opened dataset", slog.String("url", dsURL), slog.Int("samples", len(times)))

	return &subsetDataset{
		client: client,
		url:    dsURL,
		vars:   variables,
		times:  times,
		log:    log,
	}, nil
}

func (d *subsetDataset) Nearest(_ context.Context, t time.Time) (time.Time, error) {
	i := sort.Search(len(d.times), func(i int) bool { return !d.times[i].Before(t) })

	switch {
	case i == 0:
		return d.times[0], nil
	case i == len(d.times):
		return d.times[len(d.times)-1], nil
	}

	before, after := d.times[i-1], d.times[i]
	if t.Sub(before) <= after.Sub(t) {
		return before, nil
	}

	return after, nil
}

func (d *subsetDataset) Slice(ctx context.Context, ts time.Time) (*Grid, error) {
	var grid sliceResponse

	res, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"time": ts.UTC().Format(time.RFC3339),
			"vars": strings.Join(d.vars, ","),
		}).
		SetResult(&grid).
		Get(d.url + slicePath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read slice %s: %v", common.ErrRemoteFetch, ts.Format(time.RFC3339), err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: slice %s: HTTP %d", common.ErrRemoteFetch, ts.Format(time.RFC3339), res.StatusCode())
	}

	out := &Grid{Time: ts, Vars: make(map[string]Variable, len(grid.Vars))}
	for name, v := range grid.Vars {
		out.Vars[name] = Variable{Dims: v.Dims, Shape: v.Shape, Values: v.Values}
	}

	return out, nil
}

func (d *subsetDataset) Close() error {
	return d.client.Close()
}

type sliceResponse struct {
	Vars map[string]sliceVariable `json:"vars"`
}

type sliceVariable struct {
	Dims   []string  `json:"dims"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// joinDatasetURL builds the dataset URL for an opaque catalog ID against a
// subscription endpoint.
func joinDatasetURL(endpoint, datasetID string) string {
	return strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(datasetID)
}
