// Package remote abstracts the remote filesystems that source archives live
// on, and the caching layer that materializes their files locally.
package remote

import (
	"context"
	"io"
)

// FS is the minimal remote-filesystem surface the fetch engine needs: pattern
// expansion, a single-path existence probe and a byte-stream transfer.
type FS interface {
	// Glob expands a wildcard pattern into matching remote paths. The result
	// is sorted lexicographically so that first-match selection is
	// deterministic regardless of the backend's listing order.
	Glob(ctx context.Context, pattern string) ([]string, error)

	// Exists probes a single remote path.
	Exists(ctx context.Context, path string) (bool, error)

	// Fetch opens the remote path for reading. The caller owns the closer.
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}
