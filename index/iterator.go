package index

import (
	"fmt"

	"pagepool/buffer"
	"pagepool/page"
	"pagepool/types"
)

// Iterator walks the tree's entries in ascending key order at the leaf
// level, following next_page_id chains across leaf boundaries.
//
// Grounded on indexfile_manager/bplustree/iterator.go's SeekGE/Next/Close;
// the one held leaf frame stays pinned between calls and is released by
// Close or when the iterator advances past it.
type Iterator struct {
	t     *Tree
	frame *buffer.Frame
	view  *page.LeafView
	idx   int
}

// End returns an exhausted iterator, for range-end comparisons.
func (t *Tree) End() *Iterator {
	return &Iterator{t: t}
}

// Begin returns an iterator positioned at the tree's smallest key.
func (t *Tree) Begin() (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == types.InvalidPageId {
		return t.End(), nil
	}

	frame, view, err := t.findLeftmostLeaf()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	it := &Iterator{t: t, frame: frame, view: view, idx: 0}
	if err := it.skipEmptyLeaves(); err != nil {
		return nil, err
	}
	return it, nil
}

// BeginAt returns an iterator positioned at the first entry >= key.
func (t *Tree) BeginAt(key []byte) (*Iterator, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == types.InvalidPageId {
		return t.End(), nil
	}

	frame, view, err := t.findLeaf(key)
	if err != nil {
		return nil, fmt.Errorf("begin at: %w", err)
	}
	idx, _ := view.KeyIndex(key, t.cmp)
	it := &Iterator{t: t, frame: frame, view: view, idx: idx}
	if err := it.skipEmptyLeaves(); err != nil {
		return nil, err
	}
	return it, nil
}

// skipEmptyLeaves advances across leaf boundaries while the current
// position has run off the end of its leaf and a next leaf exists.
func (it *Iterator) skipEmptyLeaves() error {
	for !it.done() && it.idx >= int(it.view.Size()) {
		next := it.view.NextPageId()
		if err := it.t.bpm.UnpinPage(it.frame.PageId, false); err != nil {
			return fmt.Errorf("iterator: %w", err)
		}
		if next == types.InvalidPageId {
			it.frame = nil
			it.view = nil
			return nil
		}
		frame, view, err := it.t.fetchLeaf(next)
		if err != nil {
			return fmt.Errorf("iterator: %w", err)
		}
		it.frame = frame
		it.view = view
		it.idx = 0
	}
	return nil
}

func (it *Iterator) done() bool { return it.view == nil }

// IsEnd reports whether the iterator has been exhausted.
func (it *Iterator) IsEnd() bool { return it.done() }

// Key returns the key at the iterator's current position. Calling it past
// the end panics; callers must check IsEnd first.
func (it *Iterator) Key() []byte { return it.view.KeyAt(it.idx) }

// Value returns the RID at the iterator's current position.
func (it *Iterator) Value() types.RID { return it.view.ValueAt(it.idx) }

// Next advances the iterator by one entry, returning false once exhausted.
func (it *Iterator) Next() (bool, error) {
	if it.done() {
		return false, nil
	}
	it.idx++
	if err := it.skipEmptyLeaves(); err != nil {
		return false, err
	}
	return !it.done(), nil
}

// Close releases the leaf frame the iterator may still be holding pinned.
// Safe to call on an already-exhausted iterator.
func (it *Iterator) Close() error {
	if it.done() {
		return nil
	}
	id := it.frame.PageId
	it.frame = nil
	it.view = nil
	return it.t.bpm.UnpinPage(id, false)
}
