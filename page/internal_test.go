package page

import (
	"bytes"
	"testing"

	"pagepool/types"
)

func TestInternalInitRootAndLookup(t *testing.T) {
	buf := make([]byte, types.PageSize)
	root := NewInternalView(buf, 4)
	root.Init(1, types.InvalidPageId, 4)
	root.InitRoot(types.PageId(10), key4(100), types.PageId(20))

	if root.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", root.Size())
	}
	if got := root.Lookup(key4(50), cmp); got != 0 {
		t.Fatalf("Lookup(50) = %d, want 0", got)
	}
	if got := root.Lookup(key4(100), cmp); got != 1 {
		t.Fatalf("Lookup(100) = %d, want 1", got)
	}
	if got := root.Lookup(key4(999), cmp); got != 1 {
		t.Fatalf("Lookup(999) = %d, want 1", got)
	}
}

func TestInternalInsertAndSplit(t *testing.T) {
	buf := make([]byte, types.PageSize)
	n := NewInternalView(buf, 4)
	n.Init(1, types.InvalidPageId, 4)
	n.InitRoot(types.PageId(10), key4(100), types.PageId(20))
	n.InsertAt(2, key4(200), types.PageId(30))
	n.InsertAt(3, key4(300), types.PageId(40))

	if n.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", n.Size())
	}

	rightBuf := make([]byte, types.PageSize)
	right := NewInternalView(rightBuf, 4)
	right.Init(2, types.InvalidPageId, 4)

	sep := n.MoveHalfTo(right)
	if !bytes.Equal(sep, key4(200)) {
		t.Fatalf("separator = %v, want key4(200)", sep)
	}
	if n.Size() != 2 || right.Size() != 2 {
		t.Fatalf("after split sizes = %d/%d, want 2/2", n.Size(), right.Size())
	}
	if right.ChildAt(0) != types.PageId(30) || right.ChildAt(1) != types.PageId(40) {
		t.Fatalf("right children = %d,%d, want 30,40", right.ChildAt(0), right.ChildAt(1))
	}
}

func TestInternalMoveAllFrom(t *testing.T) {
	leftBuf := make([]byte, types.PageSize)
	rightBuf := make([]byte, types.PageSize)
	left := NewInternalView(leftBuf, 4)
	right := NewInternalView(rightBuf, 4)
	left.Init(1, types.InvalidPageId, 4)
	right.Init(2, types.InvalidPageId, 4)

	left.InitRoot(types.PageId(10), key4(100), types.PageId(20))
	right.InitRoot(types.PageId(30), key4(300), types.PageId(40))

	left.MoveAllFrom(right, key4(200))
	if left.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", left.Size())
	}
	if !bytes.Equal(left.KeyAt(2), key4(200)) {
		t.Fatalf("KeyAt(2) = %v, want key4(200) (pulled-down separator)", left.KeyAt(2))
	}
	if left.ChildAt(2) != types.PageId(30) || left.ChildAt(3) != types.PageId(40) {
		t.Fatalf("children after merge = %d,%d, want 30,40", left.ChildAt(2), left.ChildAt(3))
	}
	if right.Size() != 0 {
		t.Fatalf("right.Size() = %d, want 0", right.Size())
	}
}

func TestIndexOfChild(t *testing.T) {
	buf := make([]byte, types.PageSize)
	n := NewInternalView(buf, 4)
	n.Init(1, types.InvalidPageId, 4)
	n.InitRoot(types.PageId(10), key4(100), types.PageId(20))

	if got := n.IndexOfChild(types.PageId(20)); got != 1 {
		t.Fatalf("IndexOfChild(20) = %d, want 1", got)
	}
	if got := n.IndexOfChild(types.PageId(999)); got != -1 {
		t.Fatalf("IndexOfChild(999) = %d, want -1", got)
	}
}
