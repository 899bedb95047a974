package catalog

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/earthfetch/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sourcesYAML = `
ostia-sst:
  url: "filecache::https://host/{t:%Y%m%d}.nc"
  storage_options:
    cache_storage: "/cache/{t:%Y}/{t:%Y%m%d}.nc"
  time:
    freq: "1D"
glorys:
  url: "cmems_mod_glo_phy_my_0.083deg_P1D-m"
  variables: [so, thetao]
  storage_options:
    cache_storage: "/cache/glorys/{t:%Y%m%d}.nc"
  metadata:
    region: global
`

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/sources.yaml", []byte(sourcesYAML), 0o644))

	sources, err := NewWithFS(fs, testLogger()).LoadFile("/etc/sources.yaml")
	require.NoError(t, err)
	require.Len(t, sources, 2)

	require.Equal(t, "ostia-sst", sources["ostia-sst"].Name)
	require.Equal(t, "1D", sources["ostia-sst"].Time.Freq)
	require.Equal(t, []string{"so", "thetao"}, sources["glorys"].Variables)
	require.Equal(t, "global", sources["glorys"].Metadata["region"])
}

func TestLoadFileInvalidSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/sources.yaml", []byte("broken:\n  url: \"\"\n"), 0o644))

	_, err := NewWithFS(fs, testLogger()).LoadFile("/etc/sources.yaml")
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrConfiguration))
}

const catalogEntry = `---
url: "filecache::https://host/sst/{t:%Y%m%d}.nc"
storage_options:
  cache_storage: "/cache/sst/{t:%Y%m%d}.nc"
time:
  freq: "8D"
---

# OSTIA sea surface temperature

Eight-day composite product; the first valid day of a composite window is
detected at fetch time.
`

func TestLoadDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/catalog/ostia-sst.md", []byte(catalogEntry), 0o644))
	// Plain documentation without frontmatter is skipped, not an error.
	require.NoError(t, afero.WriteFile(fs, "/catalog/README.md", []byte("# Catalog\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/catalog/notes.txt", []byte("ignored"), 0o644))

	sources, err := NewWithFS(fs, testLogger()).LoadDir("/catalog")
	require.NoError(t, err)
	require.Len(t, sources, 1)

	src := sources["ostia-sst"]
	require.NotNil(t, src)
	require.Equal(t, "filecache::https://host/sst/{t:%Y%m%d}.nc", src.URL)
	require.Equal(t, "8D", src.Time.Freq)
}

func TestMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/sources.yaml", []byte(sourcesYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/catalog/ostia-sst.md", []byte(catalogEntry), 0o644))

	cat := NewWithFS(fs, testLogger())

	fromFile, err := cat.LoadFile("/etc/sources.yaml")
	require.NoError(t, err)
	fromDir, err := cat.LoadDir("/catalog")
	require.NoError(t, err)

	merged := Merge(fromFile, fromDir)
	require.Len(t, merged, 2)
	// Catalog entries win over the sources file.
	require.Equal(t, "8D", merged["ostia-sst"].Time.Freq)
}
