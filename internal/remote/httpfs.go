package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/jgivc/earthfetch/internal/common"
)

const (
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second

	defaultRequestsPerSecond = 4
)

type HTTPOptions struct {
	RetryCount        int
	RequestsPerSecond float64
}

// httpFS serves http and https sources. Glob is not supported: plain HTTP
// servers expose no listing, so wildcard templates require a listable backend.
type httpFS struct {
	client  *resty.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewHTTPFS(opts HTTPOptions, log *slog.Logger) FS {
	retryCount := opts.RetryCount
	if retryCount == 0 {
		retryCount = defaultRetryCount
	}

	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}

	client := resty.New().
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition)

	return &httpFS{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log.With(slog.String("item", "HTTPFS")),
	}
}

// retryCondition retries on network errors, server errors and rate limiting.
// Client errors are final: a 404 is an answer, not a fault.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r.StatusCode() >= 500 {
		return true
	}
	if r.StatusCode() == 429 || r.StatusCode() == 408 {
		return true
	}

	return false
}

func (h *httpFS) Glob(_ context.Context, pattern string) ([]string, error) {
	return nil, fmt.Errorf("%w: wildcard pattern %q: http sources do not support listing", common.ErrConfiguration, pattern)
}

func (h *httpFS) Exists(ctx context.Context, path string) (bool, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return false, err
	}

	res, err := h.client.R().SetContext(ctx).Head(path)
	if err != nil {
		return false, fmt.Errorf("cannot probe %s: %w", path, err)
	}

	h.log.Debug("Existence probe", slog.String("path", path), slog.Int("status", res.StatusCode()))

	return res.StatusCode() >= 200 && res.StatusCode() < 300, nil
}

func (h *httpFS) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := h.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", path, err)
	}

	if res.IsError() {
		body := res.Body
		if body != nil {
			body.Close()
		}

		return nil, fmt.Errorf("cannot fetch %s: HTTP %d", path, res.StatusCode())
	}

	return res.Body, nil
}

// Scheme returns the protocol of a rendered remote URL, lowercased.
func Scheme(url string) string {
	i := strings.Index(url, "://")
	if i < 0 {
		return ""
	}

	return strings.ToLower(url[:i])
}
