package fetcher

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/earthfetch/internal/common"
	"github.com/jgivc/earthfetch/internal/entity"
)

func TestDispatch(t *testing.T) {
	deps := Deps{
		Remote: &countingFS{},
		Local:  afero.NewMemMapFs(),
		Log:    testLogger(),
	}

	tests := []struct {
		name      string
		url       string
		variables []string
		wantSlice bool
	}{
		{
			name: "filecache grammar picks path-template",
			url:  "filecache::https://host/{t:%Y%m%d}.nc",
		},
		{
			name:      "catalog-service marker picks dataset-slice",
			url:       "https://data.host/thredds/dodsC/reanalysis",
			variables: []string{"sst"},
			wantSlice: true,
		},
		{
			name:      "opaque dataset id picks dataset-slice",
			url:       "cmems_mod_glo_phy_my_0.083deg_P1D-m",
			variables: []string{"so"},
			wantSlice: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &entity.Source{
				Name:      "test",
				URL:       tt.url,
				Variables: tt.variables,
				StorageOptions: entity.StorageOptions{
					CacheStorage: "/cache/{t:%Y%m%d}.nc",
				},
			}

			f, err := New(src, deps)
			require.NoError(t, err)

			if tt.wantSlice {
				require.IsType(t, &sliceFetcher{}, f)
			} else {
				require.IsType(t, &fileCacheFetcher{}, f)
			}
		})
	}
}

func TestDispatchNoMatch(t *testing.T) {
	src := &entity.Source{
		Name: "test",
		URL:  "gopher://host/{t:%Y%m%d}.nc",
		StorageOptions: entity.StorageOptions{
			CacheStorage: "/cache/{t:%Y%m%d}.nc",
		},
	}

	_, err := New(src, Deps{Local: afero.NewMemMapFs(), Log: testLogger()})
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestDispatchMissingDescriptorFields(t *testing.T) {
	_, err := New(&entity.Source{URL: ""}, Deps{Local: afero.NewMemMapFs(), Log: testLogger()})
	require.True(t, errors.Is(err, common.ErrConfiguration))

	_, err = New(&entity.Source{URL: "filecache::https://host/{t:%Y}.nc"},
		Deps{Local: afero.NewMemMapFs(), Log: testLogger()})
	require.True(t, errors.Is(err, common.ErrConfiguration))
}
