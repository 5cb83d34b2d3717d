package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pagepool/buffer"
	"pagepool/disk"
	"pagepool/types"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(os.TempDir(), "pagepool_catalog_test")
	require.NoError(t, os.RemoveAll(path))
	d, err := disk.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(path) })

	bpm := buffer.New(10, d, nil)
	return New(bpm)
}

func TestCatalogLookupMissing(t *testing.T) {
	c := newTestCatalog(t)
	_, ok, err := c.Lookup("orders")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCatalogSetAndLookup(t *testing.T) {
	c := newTestCatalog(t)
	require.NoError(t, c.SetRoot("orders", types.PageId(5)))
	require.NoError(t, c.SetRoot("users", types.PageId(9)))

	root, ok, err := c.Lookup("orders")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.PageId(5), root)

	root, ok, err = c.Lookup("users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.PageId(9), root)
}

func TestCatalogUpdateExisting(t *testing.T) {
	c := newTestCatalog(t)
	require.NoError(t, c.SetRoot("orders", types.PageId(5)))
	require.NoError(t, c.SetRoot("orders", types.PageId(42)))

	root, ok, err := c.Lookup("orders")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.PageId(42), root)
}
