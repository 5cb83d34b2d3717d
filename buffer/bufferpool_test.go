package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pagepool/types"
)

// memDisk is an in-memory stand-in for the disk collaborator, used so
// buffer pool tests don't touch the filesystem.
type memDisk struct {
	pages map[types.PageId][]byte
	next  types.PageId
}

func newMemDisk() *memDisk {
	return &memDisk{pages: make(map[types.PageId][]byte), next: 1}
}

func (d *memDisk) ReadPage(id types.PageId) ([]byte, error) {
	buf, ok := d.pages[id]
	if !ok {
		return make([]byte, types.PageSize), nil
	}
	out := make([]byte, types.PageSize)
	copy(out, buf)
	return out, nil
}

func (d *memDisk) WritePage(id types.PageId, data []byte) error {
	buf := make([]byte, types.PageSize)
	copy(buf, data)
	d.pages[id] = buf
	return nil
}

func (d *memDisk) AllocatePage() (types.PageId, error) {
	id := d.next
	d.next++
	d.pages[id] = make([]byte, types.PageSize)
	return id, nil
}

func (d *memDisk) DeallocatePage(id types.PageId) error {
	delete(d.pages, id)
	return nil
}

func TestNewPageAndFetch(t *testing.T) {
	pool := New(10, newMemDisk(), nil)

	f, err := pool.NewPage()
	require.NoError(t, err)
	f.Data[0] = 0x42
	require.NoError(t, pool.UnpinPage(f.PageId, true))

	fetched, err := pool.FetchPage(f.PageId)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), fetched.Data[0])
	require.NoError(t, pool.UnpinPage(f.PageId, false))
}

func TestDeletePageRejectsPinned(t *testing.T) {
	pool := New(10, newMemDisk(), nil)
	f, err := pool.NewPage()
	require.NoError(t, err)

	err = pool.DeletePage(f.PageId)
	require.ErrorIs(t, err, types.ErrBusy)

	require.NoError(t, pool.UnpinPage(f.PageId, false))
	require.NoError(t, pool.DeletePage(f.PageId))
}

// TestEvictionForcedByPoolExhaustion: with two frames and three pages
// touched, the least-recently-unpinned page must be the one evicted.
func TestEvictionForcedByPoolExhaustion(t *testing.T) {
	pool := New(2, newMemDisk(), nil)

	p1, err := pool.NewPage()
	require.NoError(t, err)
	id1 := p1.PageId
	require.NoError(t, pool.UnpinPage(id1, false))

	p2, err := pool.NewPage()
	require.NoError(t, err)
	id2 := p2.PageId
	require.NoError(t, pool.UnpinPage(id2, false))

	// Both frames are now unpinned and in the replacer, id1 being LRU.
	// A third NewPage must evict id1.
	p3, err := pool.NewPage()
	require.NoError(t, err)
	id3 := p3.PageId
	require.NoError(t, pool.UnpinPage(id3, false))

	_, err = pool.FetchPage(id2)
	require.NoError(t, err)
	require.NoError(t, pool.UnpinPage(id2, false))

	// id1 should have been evicted: it is no longer in the page table,
	// though it still exists on disk and a later FetchPage would read it
	// back.
	pool.mu.Lock()
	_, stillCached := pool.pageTable[id1]
	pool.mu.Unlock()
	require.False(t, stillCached, "id1 should have been evicted once the pool was exhausted")
}

func TestFetchPagePinsAcrossCalls(t *testing.T) {
	pool := New(1, newMemDisk(), nil)
	p, err := pool.NewPage()
	require.NoError(t, err)
	id := p.PageId

	_, err = pool.FetchPage(id)
	require.NoError(t, err)

	// Two outstanding pins; a NewPage with no free frames must fail.
	_, err = pool.NewPage()
	require.ErrorIs(t, err, types.ErrOutOfFrames)

	require.NoError(t, pool.UnpinPage(id, false))
	require.NoError(t, pool.UnpinPage(id, false))
}
