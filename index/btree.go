// Package index implements the on-disk B+Tree: search, split-insert,
// coalesce/redistribute-delete, root adjustment, and a leaf-level forward
// iterator, all operating directly on buffer-pool frames.
//
// LeafView/InternalView operate on a pinned frame's bytes directly, so
// there is no decode step and no risk of an in-memory copy drifting apart
// from the page.
package index

import (
	"fmt"
	"sync"

	"pagepool/buffer"
	"pagepool/catalog"
	"pagepool/logging"
	"pagepool/page"
	"pagepool/types"
)

// Tree is a single named B+Tree index backed by a buffer pool.
type Tree struct {
	mu sync.RWMutex

	name        string
	bpm         *buffer.Pool
	catalog     *catalog.Catalog
	cmp         page.Comparator
	keySize     int
	leafMax     int32
	internalMax int32
	root        types.PageId
	log         logging.Logger
}

// Options configure a Tree at construction.
type Options struct {
	KeySize     int // one of 4, 8, 16, 32, 64
	LeafMax     int32
	InternalMax int32
	Logger      logging.Logger
}

// Open returns the named tree. If the catalog has no record for name yet,
// the tree starts with root_page_id == InvalidPageId; the first Insert
// materializes the root leaf.
func Open(name string, bpm *buffer.Pool, cat *catalog.Catalog, cmp page.Comparator, opts Options) (*Tree, error) {
	if opts.KeySize != 4 && opts.KeySize != 8 && opts.KeySize != 16 && opts.KeySize != 32 && opts.KeySize != 64 {
		return nil, fmt.Errorf("open index %q: unsupported key size %d", name, opts.KeySize)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard{}
	}

	t := &Tree{
		name:        name,
		bpm:         bpm,
		catalog:     cat,
		cmp:         cmp,
		keySize:     opts.KeySize,
		leafMax:     opts.LeafMax,
		internalMax: opts.InternalMax,
		root:        types.InvalidPageId,
		log:         log,
	}

	root, ok, err := cat.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", name, err)
	}
	if ok {
		t.root = root
	}
	return t, nil
}

// IsEmpty reports whether the tree holds no entries.
func (t *Tree) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root == types.InvalidPageId
}

func (t *Tree) newLeaf(parent types.PageId) (*buffer.Frame, *page.LeafView, error) {
	frame, err := t.bpm.NewPage()
	if err != nil {
		return nil, nil, err
	}
	view := page.NewLeafView(frame.Data[:], t.keySize)
	view.Init(frame.PageId, parent, t.leafMax)
	return frame, view, nil
}

func (t *Tree) newInternal(parent types.PageId) (*buffer.Frame, *page.InternalView, error) {
	frame, err := t.bpm.NewPage()
	if err != nil {
		return nil, nil, err
	}
	view := page.NewInternalView(frame.Data[:], t.keySize)
	view.Init(frame.PageId, parent, t.internalMax)
	return frame, view, nil
}

func (t *Tree) fetchLeaf(id types.PageId) (*buffer.Frame, *page.LeafView, error) {
	frame, err := t.bpm.FetchPage(id)
	if err != nil {
		return nil, nil, err
	}
	return frame, page.NewLeafView(frame.Data[:], t.keySize), nil
}

func (t *Tree) fetchInternal(id types.PageId) (*buffer.Frame, *page.InternalView, error) {
	frame, err := t.bpm.FetchPage(id)
	if err != nil {
		return nil, nil, err
	}
	return frame, page.NewInternalView(frame.Data[:], t.keySize), nil
}

// findLeaf descends from the root to the leaf that would hold key,
// returning it pinned. Internal pages visited along the way are unpinned
// before moving on.
func (t *Tree) findLeaf(key []byte) (*buffer.Frame, *page.LeafView, error) {
	id := t.root
	for {
		frame, err := t.bpm.FetchPage(id)
		if err != nil {
			return nil, nil, fmt.Errorf("find leaf: %w", err)
		}
		if page.IsLeaf(frame.Data[:]) {
			return frame, page.NewLeafView(frame.Data[:], t.keySize), nil
		}
		internal := page.NewInternalView(frame.Data[:], t.keySize)
		next := internal.ChildAt(internal.Lookup(key, t.cmp))
		if err := t.bpm.UnpinPage(id, false); err != nil {
			return nil, nil, fmt.Errorf("find leaf: %w", err)
		}
		id = next
	}
}

// findLeftmostLeaf descends always via child 0, for Begin().
func (t *Tree) findLeftmostLeaf() (*buffer.Frame, *page.LeafView, error) {
	id := t.root
	for {
		frame, err := t.bpm.FetchPage(id)
		if err != nil {
			return nil, nil, fmt.Errorf("find leftmost leaf: %w", err)
		}
		if page.IsLeaf(frame.Data[:]) {
			return frame, page.NewLeafView(frame.Data[:], t.keySize), nil
		}
		internal := page.NewInternalView(frame.Data[:], t.keySize)
		next := internal.ChildAt(0)
		if err := t.bpm.UnpinPage(id, false); err != nil {
			return nil, nil, fmt.Errorf("find leftmost leaf: %w", err)
		}
		id = next
	}
}

// GetValue looks up key, returning its RID and whether it was present.
func (t *Tree) GetValue(key []byte) (types.RID, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == types.InvalidPageId {
		return types.RID{}, false, nil
	}

	frame, view, err := t.findLeaf(key)
	if err != nil {
		return types.RID{}, false, err
	}
	idx, found := view.KeyIndex(key, t.cmp)
	var rid types.RID
	if found {
		rid = view.ValueAt(idx)
	}
	if err := t.bpm.UnpinPage(frame.PageId, false); err != nil {
		return types.RID{}, false, err
	}
	return rid, found, nil
}
