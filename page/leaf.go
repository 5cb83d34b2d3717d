package page

import (
	"encoding/binary"

	"pagepool/types"
)

// leafExtraSize is the 4-byte next_page_id field following the common
// header on every leaf page.
const leafExtraSize = 4

const offNextPageId = HeaderSize

// LeafEntriesOffset is where the (key, RID) array begins on a leaf page.
const LeafEntriesOffset = HeaderSize + leafExtraSize

const ridSize = 8 // PageId int32 + Slot int32

// LeafView wraps a leaf page's raw bytes. Entries are a tightly packed
// array of (key[KeySize], RID) pairs in ascending key order.
type LeafView struct {
	Header
	buf     []byte
	keySize int
}

// NewLeafView wraps buf, which must be exactly types.PageSize bytes, as a
// leaf page with the given fixed key width.
func NewLeafView(buf []byte, keySize int) *LeafView {
	return &LeafView{Header: newHeader(buf), buf: buf, keySize: keySize}
}

// Init stamps buf as an empty leaf page owned by pageId under parentId,
// with no right sibling yet.
func (l *LeafView) Init(pageId, parentId types.PageId, maxSize int32) {
	l.SetPageType(types.PageTypeLeaf)
	l.SetSize(0)
	l.SetMaxSize(maxSize)
	l.SetPageId(pageId)
	l.SetParentPageId(parentId)
	l.SetNextPageId(types.InvalidPageId)
}

func (l *LeafView) NextPageId() types.PageId {
	return types.PageId(int32(binary.LittleEndian.Uint32(l.buf[offNextPageId:])))
}

func (l *LeafView) SetNextPageId(id types.PageId) {
	binary.LittleEndian.PutUint32(l.buf[offNextPageId:], uint32(int32(id)))
}

func (l *LeafView) entryStride() int { return l.keySize + ridSize }

func (l *LeafView) entryOffset(i int) int { return LeafEntriesOffset + i*l.entryStride() }

// KeyAt returns the key at index i without copying.
func (l *LeafView) KeyAt(i int) []byte {
	off := l.entryOffset(i)
	return l.buf[off : off+l.keySize]
}

// ValueAt returns the RID stored at index i.
func (l *LeafView) ValueAt(i int) types.RID {
	off := l.entryOffset(i) + l.keySize
	return types.RID{
		PageId: types.PageId(int32(binary.LittleEndian.Uint32(l.buf[off:]))),
		Slot:   int32(binary.LittleEndian.Uint32(l.buf[off+4:])),
	}
}

func (l *LeafView) setEntryAt(i int, key []byte, rid types.RID) {
	off := l.entryOffset(i)
	copy(l.buf[off:off+l.keySize], key)
	binary.LittleEndian.PutUint32(l.buf[off+l.keySize:], uint32(int32(rid.PageId)))
	binary.LittleEndian.PutUint32(l.buf[off+l.keySize+4:], uint32(rid.Slot))
}

// KeyIndex returns the index of key if present, or the insertion point
// (first index whose key is >= the target) and found=false if not.
func (l *LeafView) KeyIndex(key []byte, cmp Comparator) (idx int, found bool) {
	n := int(l.Size())
	idx = lowerBound(n, key, l.KeyAt, cmp)
	if idx < n && cmp(l.KeyAt(idx), key) == 0 {
		return idx, true
	}
	return idx, false
}

// InsertAt shifts entries at and beyond i right by one slot and writes
// (key, rid) into the gap, incrementing Size.
func (l *LeafView) InsertAt(i int, key []byte, rid types.RID) {
	n := int(l.Size())
	for j := n; j > i; j-- {
		k := l.KeyAt(j - 1)
		v := l.ValueAt(j - 1)
		l.setEntryAt(j, k, v)
	}
	l.setEntryAt(i, key, rid)
	l.SetSize(int32(n + 1))
}

// RemoveAt deletes the entry at i, shifting later entries left and
// decrementing Size.
func (l *LeafView) RemoveAt(i int) {
	n := int(l.Size())
	for j := i; j < n-1; j++ {
		k := l.KeyAt(j + 1)
		v := l.ValueAt(j + 1)
		l.setEntryAt(j, k, v)
	}
	l.SetSize(int32(n - 1))
}

// MoveHalfTo moves the upper half of l's entries into right, which must be
// empty. Used by split; the caller is responsible for leaf-chain linkage
// (next_page_id) and parent insertion.
func (l *LeafView) MoveHalfTo(right *LeafView) {
	n := int(l.Size())
	mid := n / 2
	for i := mid; i < n; i++ {
		right.setEntryAt(i-mid, l.KeyAt(i), l.ValueAt(i))
	}
	right.SetSize(int32(n - mid))
	l.SetSize(int32(mid))
}

// MoveAllFrom appends src's entries to the end of l and adopts src's
// next_page_id, then empties src. Used when coalescing src into l.
func (l *LeafView) MoveAllFrom(src *LeafView) {
	base := int(l.Size())
	n := int(src.Size())
	for i := 0; i < n; i++ {
		l.setEntryAt(base+i, src.KeyAt(i), src.ValueAt(i))
	}
	l.SetSize(int32(base + n))
	l.SetNextPageId(src.NextPageId())
	src.SetSize(0)
}
