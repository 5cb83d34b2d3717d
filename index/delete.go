package index

import (
	"fmt"

	"pagepool/buffer"
	"pagepool/page"
	"pagepool/types"
)

// Remove deletes key from the tree. It returns ErrNotFound if key is
// absent.
func (t *Tree) Remove(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == types.InvalidPageId {
		return fmt.Errorf("remove key: %w", types.ErrNotFound)
	}

	frame, view, err := t.findLeaf(key)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	idx, found := view.KeyIndex(key, t.cmp)
	if !found {
		t.bpm.UnpinPage(frame.PageId, false)
		return fmt.Errorf("remove key: %w", types.ErrNotFound)
	}
	view.RemoveAt(idx)

	nodeId := view.PageId()
	isRoot := nodeId == t.root
	underflow := !isRoot && view.Size() < view.MinSize()
	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	switch {
	case isRoot:
		return t.adjustRoot(nodeId)
	case underflow:
		return t.coalesceOrRedistribute(nodeId)
	}
	return nil
}

// coalesceOrRedistribute fixes up an underflowed, non-root page by first
// trying to borrow an entry from a sibling, falling back to merging with
// one. A merge may in turn underflow the parent, in which case this
// recurses on the parent. A node that is its parent's only child has its
// parent fixed up first.
func (t *Tree) coalesceOrRedistribute(nodeId types.PageId) error {
	frame, err := t.bpm.FetchPage(nodeId)
	if err != nil {
		return fmt.Errorf("coalesce or redistribute: %w", err)
	}
	isLeaf := page.IsLeaf(frame.Data[:])
	parentId := page.ReadHeader(frame.Data[:]).ParentPageId()

	parentFrame, parent, err := t.fetchInternal(parentId)
	if err != nil {
		t.bpm.UnpinPage(nodeId, false)
		return fmt.Errorf("coalesce or redistribute: %w", err)
	}
	idx := parent.IndexOfChild(nodeId)
	if idx < 0 {
		t.bpm.UnpinPage(nodeId, false)
		t.bpm.UnpinPage(parentId, false)
		return fmt.Errorf("coalesce or redistribute: node %d not found in parent %d", nodeId, parentId)
	}

	switch {
	case idx > 0:
		done, err := t.tryBorrowLeft(frame, parentFrame, parent, idx, isLeaf)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		return t.mergeLeft(frame, parentFrame, parent, idx, isLeaf)
	case idx < int(parent.Size())-1:
		done, err := t.tryBorrowRight(frame, parentFrame, parent, idx, isLeaf)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		return t.mergeRight(frame, parentFrame, parent, idx, isLeaf)
	default:
		// Only child of its parent: nothing to borrow from or merge with.
		// Under the floor(max/2) minimum a non-root internal page can hold a
		// single child, so fix the parent up first (it borrows a child or is
		// merged into a sibling), after which node has a sibling; then retry
		// node. A root always keeps at least two children.
		t.bpm.UnpinPage(nodeId, false)
		if err := t.bpm.UnpinPage(parentId, false); err != nil || parentId == t.root {
			return err
		}
		if err := t.coalesceOrRedistribute(parentId); err != nil {
			return err
		}
		return t.coalesceOrRedistribute(nodeId)
	}
}

func (t *Tree) tryBorrowLeft(frame, parentFrame *buffer.Frame, parent *page.InternalView, idx int, isLeaf bool) (bool, error) {
	leftId := parent.ChildAt(idx - 1)
	leftFrame, err := t.bpm.FetchPage(leftId)
	if err != nil {
		return false, fmt.Errorf("borrow from left: %w", err)
	}

	if isLeaf {
		left := page.NewLeafView(leftFrame.Data[:], t.keySize)
		if left.Size() <= left.MinSize() {
			t.bpm.UnpinPage(leftId, false)
			return false, nil
		}
		node := page.NewLeafView(frame.Data[:], t.keySize)
		movedKey := append([]byte(nil), left.KeyAt(int(left.Size())-1)...)
		movedVal := left.ValueAt(int(left.Size()) - 1)
		left.RemoveAt(int(left.Size()) - 1)
		node.InsertAt(0, movedKey, movedVal)
		parent.SetKeyAt(idx, node.KeyAt(0))
	} else {
		left := page.NewInternalView(leftFrame.Data[:], t.keySize)
		if left.Size() <= left.MinSize() {
			t.bpm.UnpinPage(leftId, false)
			return false, nil
		}
		node := page.NewInternalView(frame.Data[:], t.keySize)
		lastIdx := int(left.Size()) - 1
		movedChild := left.ChildAt(lastIdx)
		separator := append([]byte(nil), parent.KeyAt(idx)...)
		newParentSep := append([]byte(nil), left.KeyAt(lastIdx)...)
		left.RemoveAt(lastIdx)

		node.InsertAt(0, make([]byte, t.keySize), movedChild)
		node.SetKeyAt(1, separator)
		parent.SetKeyAt(idx, newParentSep)

		if err := t.reparent(movedChild, node.PageId()); err != nil {
			return false, fmt.Errorf("borrow from left: %w", err)
		}
	}

	if err := t.bpm.UnpinPage(leftId, true); err != nil {
		return false, err
	}
	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return false, err
	}
	return true, t.bpm.UnpinPage(parentFrame.PageId, true)
}

func (t *Tree) tryBorrowRight(frame, parentFrame *buffer.Frame, parent *page.InternalView, idx int, isLeaf bool) (bool, error) {
	rightId := parent.ChildAt(idx + 1)
	rightFrame, err := t.bpm.FetchPage(rightId)
	if err != nil {
		return false, fmt.Errorf("borrow from right: %w", err)
	}

	if isLeaf {
		right := page.NewLeafView(rightFrame.Data[:], t.keySize)
		if right.Size() <= right.MinSize() {
			t.bpm.UnpinPage(rightId, false)
			return false, nil
		}
		node := page.NewLeafView(frame.Data[:], t.keySize)
		movedKey := append([]byte(nil), right.KeyAt(0)...)
		movedVal := right.ValueAt(0)
		right.RemoveAt(0)
		node.InsertAt(int(node.Size()), movedKey, movedVal)
		parent.SetKeyAt(idx+1, right.KeyAt(0))
	} else {
		right := page.NewInternalView(rightFrame.Data[:], t.keySize)
		if right.Size() <= right.MinSize() {
			t.bpm.UnpinPage(rightId, false)
			return false, nil
		}
		node := page.NewInternalView(frame.Data[:], t.keySize)
		movedChild := right.ChildAt(0)
		separator := append([]byte(nil), parent.KeyAt(idx+1)...)
		right.RemoveAt(0)
		newParentSep := append([]byte(nil), right.KeyAt(0)...)

		node.InsertAt(int(node.Size()), separator, movedChild)
		parent.SetKeyAt(idx+1, newParentSep)

		if err := t.reparent(movedChild, node.PageId()); err != nil {
			return false, fmt.Errorf("borrow from right: %w", err)
		}
	}

	if err := t.bpm.UnpinPage(rightId, true); err != nil {
		return false, err
	}
	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return false, err
	}
	return true, t.bpm.UnpinPage(parentFrame.PageId, true)
}

// mergeLeft absorbs node (at idx) into its left sibling and removes the
// now-consumed separator/child from the parent.
func (t *Tree) mergeLeft(frame, parentFrame *buffer.Frame, parent *page.InternalView, idx int, isLeaf bool) error {
	leftId := parent.ChildAt(idx - 1)
	leftFrame, err := t.bpm.FetchPage(leftId)
	if err != nil {
		return fmt.Errorf("merge left: %w", err)
	}

	if isLeaf {
		left := page.NewLeafView(leftFrame.Data[:], t.keySize)
		node := page.NewLeafView(frame.Data[:], t.keySize)
		left.MoveAllFrom(node)
	} else {
		left := page.NewInternalView(leftFrame.Data[:], t.keySize)
		node := page.NewInternalView(frame.Data[:], t.keySize)
		separator := append([]byte(nil), parent.KeyAt(idx)...)
		base := int(left.Size())
		nodeSize := int(node.Size())
		left.MoveAllFrom(node, separator)
		// Reparent every child that node contributed to left.
		for i := base; i < base+nodeSize; i++ {
			if err := t.reparent(left.ChildAt(i), left.PageId()); err != nil {
				return fmt.Errorf("merge left: %w", err)
			}
		}
	}

	nodeId := frame.PageId
	parent.RemoveAt(idx)

	if err := t.bpm.UnpinPage(leftId, true); err != nil {
		return err
	}
	if err := t.bpm.UnpinPage(nodeId, false); err != nil {
		return err
	}
	if err := t.bpm.DeletePage(nodeId); err != nil {
		return fmt.Errorf("merge left: %w", err)
	}
	return t.afterMerge(parentFrame, parent)
}

// mergeRight absorbs node's right sibling into node and removes the
// now-consumed separator/child from the parent. Used when node has no left
// sibling to merge with.
func (t *Tree) mergeRight(frame, parentFrame *buffer.Frame, parent *page.InternalView, idx int, isLeaf bool) error {
	rightId := parent.ChildAt(idx + 1)
	rightFrame, err := t.bpm.FetchPage(rightId)
	if err != nil {
		return fmt.Errorf("merge right: %w", err)
	}

	if isLeaf {
		node := page.NewLeafView(frame.Data[:], t.keySize)
		right := page.NewLeafView(rightFrame.Data[:], t.keySize)
		node.MoveAllFrom(right)
	} else {
		node := page.NewInternalView(frame.Data[:], t.keySize)
		right := page.NewInternalView(rightFrame.Data[:], t.keySize)
		separator := append([]byte(nil), parent.KeyAt(idx+1)...)
		base := int(node.Size())
		rightSize := int(right.Size())
		node.MoveAllFrom(right, separator)
		for i := base; i < base+rightSize; i++ {
			if err := t.reparent(node.ChildAt(i), node.PageId()); err != nil {
				return fmt.Errorf("merge right: %w", err)
			}
		}
	}

	parent.RemoveAt(idx + 1)

	if err := t.bpm.UnpinPage(frame.PageId, true); err != nil {
		return err
	}
	if err := t.bpm.UnpinPage(rightId, false); err != nil {
		return err
	}
	if err := t.bpm.DeletePage(rightId); err != nil {
		return fmt.Errorf("merge right: %w", err)
	}
	return t.afterMerge(parentFrame, parent)
}

// afterMerge checks whether the parent itself now underflows (or is the
// root and needs adjusting) after a child merge removed one of its
// entries.
func (t *Tree) afterMerge(parentFrame *buffer.Frame, parent *page.InternalView) error {
	parentId := parentFrame.PageId
	switch {
	case parentId == t.root:
		if err := t.bpm.UnpinPage(parentId, true); err != nil {
			return err
		}
		return t.adjustRoot(t.root)
	case parent.Size() < parent.MinSize():
		if err := t.bpm.UnpinPage(parentId, true); err != nil {
			return err
		}
		return t.coalesceOrRedistribute(parentId)
	default:
		return t.bpm.UnpinPage(parentId, true)
	}
}

// adjustRoot fixes up a root that may have decayed after a deletion: a
// leaf root emptied to size 0 is deleted outright, leaving the tree empty
// (root_page_id = InvalidPageId); an internal root that decayed to a
// single child is collapsed, promoting that child to root. Otherwise this
// is a no-op.
func (t *Tree) adjustRoot(rootId types.PageId) error {
	frame, err := t.bpm.FetchPage(rootId)
	if err != nil {
		return fmt.Errorf("adjust root: %w", err)
	}
	if page.IsLeaf(frame.Data[:]) {
		leaf := page.NewLeafView(frame.Data[:], t.keySize)
		if leaf.Size() > 0 {
			return t.bpm.UnpinPage(rootId, false)
		}
		if err := t.bpm.UnpinPage(rootId, false); err != nil {
			return fmt.Errorf("adjust root: %w", err)
		}
		if err := t.bpm.DeletePage(rootId); err != nil {
			return fmt.Errorf("adjust root: %w", err)
		}
		t.root = types.InvalidPageId
		return t.catalog.SetRoot(t.name, t.root)
	}

	root := page.NewInternalView(frame.Data[:], t.keySize)
	if root.Size() != 1 {
		return t.bpm.UnpinPage(rootId, false)
	}

	onlyChild := root.ChildAt(0)
	if err := t.reparent(onlyChild, types.InvalidPageId); err != nil {
		t.bpm.UnpinPage(rootId, false)
		return fmt.Errorf("adjust root: %w", err)
	}
	t.root = onlyChild

	if err := t.bpm.UnpinPage(rootId, false); err != nil {
		return fmt.Errorf("adjust root: %w", err)
	}
	if err := t.bpm.DeletePage(rootId); err != nil {
		return fmt.Errorf("adjust root: %w", err)
	}
	return t.catalog.SetRoot(t.name, t.root)
}
