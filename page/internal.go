package page

import (
	"encoding/binary"

	"pagepool/types"
)

// InternalEntriesOffset is where the (key, child page id) array begins on
// an internal page.
const InternalEntriesOffset = HeaderSize

const childSize = 4 // PageId int32

// InternalView wraps an internal page's raw bytes. Entries are a tightly
// packed array of (key[KeySize], childPageId) pairs; Size counts children,
// so the key at index 0 is an unused sentinel (there is one more child than
// there are real separator keys).
type InternalView struct {
	Header
	buf     []byte
	keySize int
}

// NewInternalView wraps buf, which must be exactly types.PageSize bytes, as
// an internal page with the given fixed key width.
func NewInternalView(buf []byte, keySize int) *InternalView {
	return &InternalView{Header: newHeader(buf), buf: buf, keySize: keySize}
}

// Init stamps buf as an empty internal page owned by pageId.
func (n *InternalView) Init(pageId, parentId types.PageId, maxSize int32) {
	n.SetPageType(types.PageTypeInternal)
	n.SetSize(0)
	n.SetMaxSize(maxSize)
	n.SetPageId(pageId)
	n.SetParentPageId(parentId)
}

func (n *InternalView) entryStride() int { return n.keySize + childSize }

func (n *InternalView) entryOffset(i int) int { return InternalEntriesOffset + i*n.entryStride() }

// KeyAt returns the key at index i. Index 0's key is the unused sentinel.
func (n *InternalView) KeyAt(i int) []byte {
	off := n.entryOffset(i)
	return n.buf[off : off+n.keySize]
}

// ChildAt returns the child page id at index i.
func (n *InternalView) ChildAt(i int) types.PageId {
	off := n.entryOffset(i) + n.keySize
	return types.PageId(int32(binary.LittleEndian.Uint32(n.buf[off:])))
}

// SetKeyAt overwrites the key at index i without touching its child
// pointer. Used when a redistribution rotates a separator through the
// parent without moving the child it's paired with.
func (n *InternalView) SetKeyAt(i int, key []byte) {
	off := n.entryOffset(i)
	copy(n.buf[off:off+n.keySize], key)
}

func (n *InternalView) setEntry(i int, key []byte, child types.PageId) {
	off := n.entryOffset(i)
	copy(n.buf[off:off+n.keySize], key)
	binary.LittleEndian.PutUint32(n.buf[off+n.keySize:], uint32(int32(child)))
}

// InitRoot writes the two-child layout created when a tree's root first
// splits: sentinel|leftChild at index 0, separator|rightChild at index 1.
func (n *InternalView) InitRoot(left types.PageId, separator []byte, right types.PageId) {
	zero := make([]byte, n.keySize)
	n.setEntry(0, zero, left)
	n.setEntry(1, separator, right)
	n.SetSize(2)
}

// Lookup returns the index of the child to descend into for key: the
// largest i such that KeyAt(i) <= key, treating index 0's sentinel key as
// -infinity so it always qualifies.
func (n *InternalView) Lookup(key []byte, cmp Comparator) int {
	size := int(n.Size())
	lo, hi := 1, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(n.KeyAt(mid), key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// IndexOfChild returns the index at which childId appears, or -1.
func (n *InternalView) IndexOfChild(childId types.PageId) int {
	size := int(n.Size())
	for i := 0; i < size; i++ {
		if n.ChildAt(i) == childId {
			return i
		}
	}
	return -1
}

// InsertAt shifts entries at and beyond i right by one slot and writes
// (key, child) into the gap, incrementing Size.
func (n *InternalView) InsertAt(i int, key []byte, child types.PageId) {
	size := int(n.Size())
	for j := size; j > i; j-- {
		n.setEntry(j, n.KeyAt(j-1), n.ChildAt(j-1))
	}
	n.setEntry(i, key, child)
	n.SetSize(int32(size + 1))
}

// RemoveAt deletes the entry at i, shifting later entries left.
func (n *InternalView) RemoveAt(i int) {
	size := int(n.Size())
	for j := i; j < size-1; j++ {
		n.setEntry(j, n.KeyAt(j+1), n.ChildAt(j+1))
	}
	n.SetSize(int32(size - 1))
}

// MoveHalfTo moves the upper half of n's entries into right, which must be
// empty, and returns the separator key to be promoted into the parent.
func (n *InternalView) MoveHalfTo(right *InternalView) []byte {
	size := int(n.Size())
	mid := size / 2
	sep := make([]byte, n.keySize)
	copy(sep, n.KeyAt(mid))
	for i := mid; i < size; i++ {
		right.setEntry(i-mid, n.KeyAt(i), n.ChildAt(i))
	}
	right.SetSize(int32(size - mid))
	n.SetSize(int32(mid))
	return sep
}

// MoveAllFrom appends src's entries to the end of n, pulling down
// parentSeparator as the key paired with src's first (sentinel-slot) child,
// then empties src. Used when coalescing src into n.
func (n *InternalView) MoveAllFrom(src *InternalView, parentSeparator []byte) {
	base := int(n.Size())
	size := int(src.Size())
	for i := 0; i < size; i++ {
		key := src.KeyAt(i)
		if i == 0 {
			key = parentSeparator
		}
		n.setEntry(base+i, key, src.ChildAt(i))
	}
	n.SetSize(int32(base + size))
	src.SetSize(0)
}
