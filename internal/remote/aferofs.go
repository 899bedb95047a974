package remote

import (
	"context"
	"io"
	"sort"

	"github.com/spf13/afero"
)

// aferoFS adapts an afero filesystem to the remote FS contract. It backs
// file-protocol sources, locally mounted archives and in-memory test fixtures.
type aferoFS struct {
	fs afero.Fs
}

func NewAferoFS(fs afero.Fs) FS {
	return &aferoFS{fs: fs}
}

func (a *aferoFS) Glob(_ context.Context, pattern string) ([]string, error) {
	matches, err := afero.Glob(a.fs, pattern)
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)

	return matches, nil
}

func (a *aferoFS) Exists(_ context.Context, path string) (bool, error) {
	return afero.Exists(a.fs, path)
}

func (a *aferoFS) Fetch(_ context.Context, path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}
