package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Entry(t *testing.T) {
	path := writeCatalog(t, `
tasmax:
  format_dirs:
    - /data/{model}/{scenario}/
  format_file:
    - "{var}_{year}.nc"
  unique:
    version:
      preferences: []
      default: high
`)

	loader, err := NewLoader(path)
	require.NoError(t, err)

	entry, err := loader.Entry("tasmax")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/{model}/{scenario}/"}, entry.FormatDirs)
	assert.Equal(t, []string{"{var}_{year}.nc"}, entry.FormatFile)
	assert.Equal(t, "high", entry.Unique["version"].Default)
}

func TestLoader_Entry_MissingKeyReturnsErrConfigKeyMissing(t *testing.T) {
	path := writeCatalog(t, `tasmax: {format_dirs: [], format_file: []}`)

	loader, err := NewLoader(path)
	require.NoError(t, err)

	_, err = loader.Entry("does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigKeyMissing)
}

func TestLoader_Paths_DiscoversDatasets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ACCESS", "hist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ACCESS", "hist", "tas_1990.nc"), []byte("x"), 0o644))

	path := writeCatalog(t, `
climate:
  format_dirs:
    - `+root+`/{model}/{scenario}/
  format_file:
    - "{var}_{year}.nc"
`)

	loader, err := NewLoader(path)
	require.NoError(t, err)

	fn, err := loader.Paths("climate")
	require.NoError(t, err)

	coll, err := fn(false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.Len())
}

func TestLoader_GetDatasets_HonorsCancelledContext(t *testing.T) {
	path := writeCatalog(t, `climate: {format_dirs: [], format_file: []}`)
	loader, err := NewLoader(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loader.GetDatasets(ctx, "climate", false, nil)
	require.Error(t, err)
}
