// Package buffer implements the buffer pool manager: the page table, free
// list, and LRU replacer that together mediate access between the B+Tree
// and a paged disk.
package buffer

import (
	"fmt"
	"sync"

	"pagepool/logging"
	"pagepool/replacer"
	"pagepool/types"
)

// Disk is the external paged-storage collaborator the pool fetches misses
// from and flushes dirty frames to.
type Disk interface {
	ReadPage(id types.PageId) ([]byte, error)
	WritePage(id types.PageId, data []byte) error
	AllocatePage() (types.PageId, error)
	DeallocatePage(id types.PageId) error
}

// Pool is the buffer pool manager.
//
// Capacity is partitioned explicitly into frames / freeList / replacer so
// the |free|+|replacer|+|pinned| = N invariant is structural rather than
// inferred from pin counts.
type Pool struct {
	mu        sync.Mutex
	frames    []Frame
	pageTable map[types.PageId]types.FrameId
	freeList  []types.FrameId
	replacer  *replacer.LRU
	disk      Disk
	log       logging.Logger
}

// New creates a buffer pool with poolSize frames backed by disk.
func New(poolSize int, disk Disk, log logging.Logger) *Pool {
	if log == nil {
		log = logging.Discard{}
	}
	free := make([]types.FrameId, poolSize)
	for i := range free {
		free[i] = types.FrameId(i)
	}
	return &Pool{
		frames:    make([]Frame, poolSize),
		pageTable: make(map[types.PageId]types.FrameId, poolSize),
		freeList:  free,
		replacer:  replacer.New(poolSize),
		disk:      disk,
		log:       log,
	}
}

// FetchPage pins and returns the frame holding pageId, loading it from disk
// on a page-table miss.
func (p *Pool) FetchPage(pageId types.PageId) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable[pageId]; ok {
		f := &p.frames[fid]
		if f.PinCount == 0 {
			p.replacer.Pin(fid)
		}
		f.PinCount++
		return f, nil
	}

	fid, err := p.pickVictim()
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", pageId, err)
	}

	data, err := p.disk.ReadPage(pageId)
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("fetch page %d: %w", pageId, err)
	}

	f := &p.frames[fid]
	f.reset(pageId)
	copy(f.Data[:], data)
	f.PinCount = 1
	p.pageTable[pageId] = fid
	return f, nil
}

// NewPage allocates a fresh page on disk and returns its pinned frame.
func (p *Pool) NewPage() (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.pickVictim()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	id, err := p.disk.AllocatePage()
	if err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("new page: %w", err)
	}

	f := &p.frames[fid]
	f.reset(id)
	f.PinCount = 1
	f.IsDirty = true
	p.pageTable[id] = fid
	return f, nil
}

// UnpinPage decrements pageId's pin count, returning it to the replacer's
// evictable set once the count reaches zero. isDirty ORs into the frame's
// dirty flag; it never clears it.
func (p *Pool) UnpinPage(pageId types.PageId, isDirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pageId]
	if !ok {
		return fmt.Errorf("unpin page %d: %w", pageId, types.ErrNotPresent)
	}
	f := &p.frames[fid]
	if f.PinCount == 0 {
		return nil
	}
	if isDirty {
		f.IsDirty = true
	}
	f.PinCount--
	if f.PinCount == 0 {
		p.replacer.Unpin(fid)
	}
	return nil
}

// FlushPage writes pageId's frame to disk unconditionally, clearing its
// dirty flag.
func (p *Pool) FlushPage(pageId types.PageId) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked(pageId)
}

func (p *Pool) flushLocked(pageId types.PageId) error {
	fid, ok := p.pageTable[pageId]
	if !ok {
		return fmt.Errorf("flush page %d: %w", pageId, types.ErrNotPresent)
	}
	f := &p.frames[fid]
	if err := p.disk.WritePage(pageId, f.Data[:]); err != nil {
		return fmt.Errorf("flush page %d: %w", pageId, err)
	}
	f.IsDirty = false
	return nil
}

// FlushAllPages flushes every page currently resident in the pool.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.pageTable {
		if err := p.flushLocked(id); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes pageId from the pool and reclaims its disk slot.
// Returns nil with nothing to do if pageId isn't resident, and ErrBusy if
// it is resident but still pinned.
func (p *Pool) DeletePage(pageId types.PageId) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[pageId]
	if !ok {
		return nil
	}
	f := &p.frames[fid]
	if f.PinCount > 0 {
		return fmt.Errorf("delete page %d: %w", pageId, types.ErrBusy)
	}

	p.replacer.Pin(fid) // remove from replacer's evictable set if present
	delete(p.pageTable, pageId)
	f.reset(types.InvalidPageId)
	p.freeList = append(p.freeList, fid)

	if err := p.disk.DeallocatePage(pageId); err != nil {
		return fmt.Errorf("delete page %d: %w", pageId, err)
	}
	return nil
}

// pickVictim returns a frame ready for reuse: the free list first, then the
// replacer's least-recently-used frame (flushed first if dirty). Caller
// holds p.mu.
func (p *Pool) pickVictim() (types.FrameId, error) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return fid, nil
	}

	fid, ok := p.replacer.Victim()
	if !ok {
		return types.InvalidFrameId, types.ErrOutOfFrames
	}

	victim := &p.frames[fid]
	if victim.IsDirty {
		if err := p.flushLocked(victim.PageId); err != nil {
			p.log.Warn("evict: flush of victim frame failed", "page", victim.PageId, "err", err)
		}
	}
	delete(p.pageTable, victim.PageId)
	return fid, nil
}
