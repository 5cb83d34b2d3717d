package page

import (
	"bytes"
	"testing"

	"pagepool/types"
)

func cmp(a, b []byte) int { return bytes.Compare(a, b) }

func key4(n uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
	return b
}

func TestLeafInsertAndKeyIndex(t *testing.T) {
	buf := make([]byte, types.PageSize)
	leaf := NewLeafView(buf, 4)
	leaf.Init(1, types.InvalidPageId, 3)

	idx, found := leaf.KeyIndex(key4(10), cmp)
	if found {
		t.Fatalf("KeyIndex found a key in an empty leaf")
	}
	leaf.InsertAt(idx, key4(10), types.RID{PageId: 100, Slot: 0})

	idx, found = leaf.KeyIndex(key4(5), cmp)
	if found {
		t.Fatalf("KeyIndex unexpectedly found key 5")
	}
	leaf.InsertAt(idx, key4(5), types.RID{PageId: 50, Slot: 0})

	idx, found = leaf.KeyIndex(key4(20), cmp)
	if found {
		t.Fatalf("KeyIndex unexpectedly found key 20")
	}
	leaf.InsertAt(idx, key4(20), types.RID{PageId: 200, Slot: 0})

	if leaf.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", leaf.Size())
	}

	// Keys must now be in ascending order: 5, 10, 20.
	want := []uint32{5, 10, 20}
	for i, w := range want {
		got := leaf.KeyAt(i)
		if !bytes.Equal(got, key4(w)) {
			t.Fatalf("KeyAt(%d) = %v, want %v", i, got, key4(w))
		}
	}

	idx, found = leaf.KeyIndex(key4(10), cmp)
	if !found || idx != 1 {
		t.Fatalf("KeyIndex(10) = (%d, %v), want (1, true)", idx, found)
	}
	if rid := leaf.ValueAt(idx); rid.PageId != 100 {
		t.Fatalf("ValueAt(1).PageId = %d, want 100", rid.PageId)
	}
}

func TestLeafRemoveAt(t *testing.T) {
	buf := make([]byte, types.PageSize)
	leaf := NewLeafView(buf, 4)
	leaf.Init(1, types.InvalidPageId, 3)

	leaf.InsertAt(0, key4(5), types.RID{PageId: 5})
	leaf.InsertAt(1, key4(10), types.RID{PageId: 10})
	leaf.InsertAt(2, key4(15), types.RID{PageId: 15})

	leaf.RemoveAt(1)
	if leaf.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", leaf.Size())
	}
	if !bytes.Equal(leaf.KeyAt(0), key4(5)) || !bytes.Equal(leaf.KeyAt(1), key4(15)) {
		t.Fatalf("unexpected keys after RemoveAt: %v, %v", leaf.KeyAt(0), leaf.KeyAt(1))
	}
}

func TestLeafMoveHalfToAndMoveAllFrom(t *testing.T) {
	leftBuf := make([]byte, types.PageSize)
	rightBuf := make([]byte, types.PageSize)
	left := NewLeafView(leftBuf, 4)
	right := NewLeafView(rightBuf, 4)
	left.Init(1, types.InvalidPageId, 4)
	right.Init(2, types.InvalidPageId, 4)
	left.SetNextPageId(types.PageId(99))

	for i, k := range []uint32{1, 2, 3, 4} {
		left.InsertAt(i, key4(k), types.RID{PageId: types.PageId(k)})
	}

	left.MoveHalfTo(right)
	if left.Size() != 2 || right.Size() != 2 {
		t.Fatalf("after split, sizes = %d/%d, want 2/2", left.Size(), right.Size())
	}
	if !bytes.Equal(right.KeyAt(0), key4(3)) {
		t.Fatalf("right.KeyAt(0) = %v, want key4(3)", right.KeyAt(0))
	}

	right.SetNextPageId(left.NextPageId())
	left.SetNextPageId(right.PageId())

	// Now merge right back into left.
	left.MoveAllFrom(right)
	if left.Size() != 4 {
		t.Fatalf("after merge, left.Size() = %d, want 4", left.Size())
	}
	if right.Size() != 0 {
		t.Fatalf("after merge, right.Size() = %d, want 0", right.Size())
	}
	if left.NextPageId() != types.PageId(99) {
		t.Fatalf("left.NextPageId() = %d, want 99 (inherited from right)", left.NextPageId())
	}
}
