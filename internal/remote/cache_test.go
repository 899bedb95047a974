package remote

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingFS counts remote operations so tests can assert that cached files
// cause no transfer.
type countingFS struct {
	FS
	fetches int
	exists  int
	globs   int
}

func (c *countingFS) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	c.fetches++

	return c.FS.Fetch(ctx, path)
}

func (c *countingFS) Exists(ctx context.Context, path string) (bool, error) {
	c.exists++

	return c.FS.Exists(ctx, path)
}

func (c *countingFS) Glob(ctx context.Context, pattern string) ([]string, error) {
	c.globs++

	return c.FS.Glob(ctx, pattern)
}

func TestCacheEnsureLocal(t *testing.T) {
	remoteFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(remoteFs, "/archive/20210101.nc", []byte("jan1"), 0o644))
	require.NoError(t, afero.WriteFile(remoteFs, "/archive/20210102.nc", []byte("jan2"), 0o644))

	counting := &countingFS{FS: NewAferoFS(remoteFs)}
	local := afero.NewMemMapFs()
	cache := NewCacheWithFS(counting, local, testLogger())

	paths, err := cache.EnsureLocal(context.Background(), "/cache/2021",
		[]string{"/archive/20210101.nc", "/archive/20210102.nc"})
	require.NoError(t, err)
	require.Equal(t, []string{"/cache/2021/20210101.nc", "/cache/2021/20210102.nc"}, paths)
	require.Equal(t, 2, counting.fetches)

	data, err := afero.ReadFile(local, "/cache/2021/20210101.nc")
	require.NoError(t, err)
	require.Equal(t, "jan1", string(data))

	// Second call finds both files cached and performs no transfer.
	paths, err = cache.EnsureLocal(context.Background(), "/cache/2021",
		[]string{"/archive/20210101.nc", "/archive/20210102.nc"})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.Equal(t, 2, counting.fetches)
}

func TestCacheEnsureLocalSingleReference(t *testing.T) {
	remoteFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(remoteFs, "/archive/20210101.nc", []byte("jan1"), 0o644))

	local := afero.NewMemMapFs()
	cache := NewCacheWithFS(NewAferoFS(remoteFs), local, testLogger())

	// A lone reference lands at the destination path itself.
	paths, err := cache.EnsureLocal(context.Background(), "/cache/2021/20210101.nc",
		[]string{"/archive/20210101.nc"})
	require.NoError(t, err)
	require.Equal(t, []string{"/cache/2021/20210101.nc"}, paths)

	data, err := afero.ReadFile(local, "/cache/2021/20210101.nc")
	require.NoError(t, err)
	require.Equal(t, "jan1", string(data))
}

func TestCacheEnsureLocalNeverOverwrites(t *testing.T) {
	remoteFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(remoteFs, "/archive/20210101.nc", []byte("fresh"), 0o644))

	local := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(local, "/cache/20210101.nc", []byte("stale"), 0o644))

	cache := NewCacheWithFS(NewAferoFS(remoteFs), local, testLogger())

	paths, err := cache.EnsureLocal(context.Background(), "/cache/20210101.nc", []string{"/archive/20210101.nc"})
	require.NoError(t, err)
	require.Equal(t, []string{"/cache/20210101.nc"}, paths)

	data, err := afero.ReadFile(local, "/cache/20210101.nc")
	require.NoError(t, err)
	require.Equal(t, "stale", string(data))
}

func TestCacheEnsureLocalMissingRemote(t *testing.T) {
	cache := NewCacheWithFS(NewAferoFS(afero.NewMemMapFs()), afero.NewMemMapFs(), testLogger())

	_, err := cache.EnsureLocal(context.Background(), "/cache/absent.nc", []string{"/archive/absent.nc"})
	require.Error(t, err)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAferoFSGlobSorted(t *testing.T) {
	remoteFs := afero.NewMemMapFs()
	for _, name := range []string{"/archive/b.nc", "/archive/c.nc", "/archive/a.nc"} {
		require.NoError(t, afero.WriteFile(remoteFs, name, []byte("x"), 0o644))
	}

	matches, err := NewAferoFS(remoteFs).Glob(context.Background(), "/archive/*.nc")
	require.NoError(t, err)
	require.Equal(t, []string{"/archive/a.nc", "/archive/b.nc", "/archive/c.nc"}, matches)
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "20210101.nc", baseName("https://host/data/20210101.nc"))
	require.Equal(t, "20210101.nc", baseName("https://host/data/20210101.nc?token=abc"))
	require.Equal(t, "20210101.nc", baseName("/archive/20210101.nc"))
}
