package index

import (
	"fmt"

	"pagepool/buffer"
	"pagepool/page"
	"pagepool/types"
)

// Insert adds (key, rid) to the tree. It returns ErrDuplicateKey if key is
// already present.
func (t *Tree) Insert(key []byte, rid types.RID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == types.InvalidPageId {
		return t.startNewTree(key, rid)
	}

	frame, view, err := t.findLeaf(key)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	idx, found := view.KeyIndex(key, t.cmp)
	if found {
		if err := t.bpm.UnpinPage(frame.PageId, false); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return fmt.Errorf("insert key: %w", types.ErrDuplicateKey)
	}
	view.InsertAt(idx, key, rid)

	if view.Size() >= view.MaxSize() {
		return t.splitLeaf(frame, view)
	}
	return t.bpm.UnpinPage(frame.PageId, true)
}

// startNewTree materializes the root leaf on the first insert into an
// empty tree (root_page_id == InvalidPageId).
func (t *Tree) startNewTree(key []byte, rid types.RID) error {
	frame, view, err := t.newLeaf(types.InvalidPageId)
	if err != nil {
		return fmt.Errorf("insert: start new tree: %w", err)
	}
	view.InsertAt(0, key, rid)
	t.root = view.PageId()
	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return t.catalog.SetRoot(t.name, t.root)
}

// splitLeaf moves the upper half of an overfull leaf into a new right
// sibling and promotes the separator into the parent. Both frames are
// unpinned before returning.
func (t *Tree) splitLeaf(leftFrame *buffer.Frame, left *page.LeafView) error {
	rightFrame, right, err := t.newLeaf(left.ParentPageId())
	if err != nil {
		return fmt.Errorf("split leaf: %w", err)
	}

	left.MoveHalfTo(right)
	right.SetNextPageId(left.NextPageId())
	left.SetNextPageId(right.PageId())

	separator := make([]byte, t.keySize)
	copy(separator, right.KeyAt(0))

	if left.PageId() == t.root {
		if err := t.createNewRoot(left.PageId(), separator, right.PageId()); err != nil {
			return fmt.Errorf("split leaf: %w", err)
		}
		return t.unpinPair(leftFrame.PageId, rightFrame.PageId)
	}

	parent := left.ParentPageId()
	if err := t.unpinPair(leftFrame.PageId, rightFrame.PageId); err != nil {
		return fmt.Errorf("split leaf: %w", err)
	}
	return t.insertIntoParent(parent, left.PageId(), separator, right.PageId())
}

// splitInternal moves the upper half of an overfull internal page into a
// new right sibling, reparenting every child that moved, and promotes the
// separator into the parent.
func (t *Tree) splitInternal(leftFrame *buffer.Frame, left *page.InternalView) error {
	rightFrame, right, err := t.newInternal(left.ParentPageId())
	if err != nil {
		return fmt.Errorf("split internal: %w", err)
	}

	separator := left.MoveHalfTo(right)

	for i := 0; i < int(right.Size()); i++ {
		if err := t.reparent(right.ChildAt(i), right.PageId()); err != nil {
			return fmt.Errorf("split internal: %w", err)
		}
	}

	if left.PageId() == t.root {
		if err := t.createNewRoot(left.PageId(), separator, right.PageId()); err != nil {
			return fmt.Errorf("split internal: %w", err)
		}
		return t.unpinPair(leftFrame.PageId, rightFrame.PageId)
	}

	parent := left.ParentPageId()
	if err := t.unpinPair(leftFrame.PageId, rightFrame.PageId); err != nil {
		return fmt.Errorf("split internal: %w", err)
	}
	return t.insertIntoParent(parent, left.PageId(), separator, right.PageId())
}

// insertIntoParent inserts (separator, rightId) into parentId just after
// leftId's entry, splitting the parent in turn if it overflows.
func (t *Tree) insertIntoParent(parentId types.PageId, leftId types.PageId, separator []byte, rightId types.PageId) error {
	frame, view, err := t.fetchInternal(parentId)
	if err != nil {
		return fmt.Errorf("insert into parent: %w", err)
	}

	idx := view.IndexOfChild(leftId)
	if idx < 0 {
		t.bpm.UnpinPage(parentId, false)
		return fmt.Errorf("insert into parent: child %d not found in parent %d", leftId, parentId)
	}
	view.InsertAt(idx+1, separator, rightId)

	if view.Size() >= view.MaxSize() {
		return t.splitInternal(frame, view)
	}
	return t.bpm.UnpinPage(parentId, true)
}

// createNewRoot allocates a fresh internal root over left and right and
// reparents both.
func (t *Tree) createNewRoot(leftId types.PageId, separator []byte, rightId types.PageId) error {
	frame, view, err := t.newInternal(types.InvalidPageId)
	if err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	view.InitRoot(leftId, separator, rightId)

	if err := t.reparent(leftId, view.PageId()); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	if err := t.reparent(rightId, view.PageId()); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}

	t.root = view.PageId()
	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	return t.catalog.SetRoot(t.name, t.root)
}

// reparent fetches childId and overwrites its parent_page_id header field.
func (t *Tree) reparent(childId, parentId types.PageId) error {
	frame, err := t.bpm.FetchPage(childId)
	if err != nil {
		return err
	}
	page.ReadHeader(frame.Data[:]).SetParentPageId(parentId)
	return t.bpm.UnpinPage(childId, true)
}

func (t *Tree) unpinPair(a, b types.PageId) error {
	if err := t.bpm.UnpinPage(a, true); err != nil {
		return err
	}
	return t.bpm.UnpinPage(b, true)
}
