// Package dataset defines the virtual-dataset collaborator used by the
// dataset-slice fetch strategy: one large array-backed remote dataset that is
// opened lazily and exported one timestep at a time.
package dataset

import (
	"context"
	"time"
)

// Dataset is an open virtual dataset restricted to a declared variable set.
// Implementations are single-owner: no concurrent calls are supported.
type Dataset interface {
	// Nearest returns the sample time on the dataset's time axis closest to t.
	// The returned time may differ from the requested one.
	Nearest(ctx context.Context, t time.Time) (time.Time, error)

	// Slice loads the declared variables at sample time ts into memory.
	Slice(ctx context.Context, ts time.Time) (*Grid, error)

	Close() error
}

// Opener turns a source identifier (URL or catalog dataset ID) into an open
// dataset restricted to the given variables.
type Opener func(ctx context.Context, url string, variables []string) (Dataset, error)
