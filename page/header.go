// Package page implements the B+Tree's on-disk page layouts. A LeafView or
// InternalView wraps a buffer-pool frame's raw bytes directly; there is no
// separate in-memory node struct and no decode/encode round trip — mutating
// a view mutates the frame in place, matching the system's "pages live
// inside buffer-pool frames" architecture.
//
// Layout is grounded on the field ordering of
// storage_engine/access/indexfile_manager/bplustree/node_to_index_page.go,
// but replaces that file's length-prefixed variable-width key encoding with
// a tightly packed fixed-width array, since keys here have one of a small
// set of fixed widths (4/8/16/32/64 bytes) rather than arbitrary length.
package page

import (
	"encoding/binary"

	"pagepool/types"
)

// HeaderSize is the 24-byte common header present on every B+Tree page:
// page_type, lsn, size, max_size, parent_page_id, page_id.
const HeaderSize = 24

const (
	offPageType = 0
	offLSN      = 4
	offSize     = 8
	offMaxSize  = 12
	offParent   = 16
	offPageID   = 20
)

// Header reads and writes the fields common to leaf and internal pages
// directly against a frame's byte buffer.
type Header struct {
	buf []byte
}

func newHeader(buf []byte) Header { return Header{buf: buf} }

// ReadHeader wraps buf's common header fields without committing to a leaf
// or internal interpretation of the rest of the page. Used when a caller
// only needs to inspect or update header fields (e.g. reparenting a child
// during a split or merge) without decoding the full page.
func ReadHeader(buf []byte) Header { return newHeader(buf) }

func (h Header) PageType() types.PageType {
	return types.PageType(binary.LittleEndian.Uint32(h.buf[offPageType:]))
}

func (h Header) SetPageType(t types.PageType) {
	binary.LittleEndian.PutUint32(h.buf[offPageType:], uint32(t))
}

func (h Header) LSN() uint32 { return binary.LittleEndian.Uint32(h.buf[offLSN:]) }

func (h Header) SetLSN(lsn uint32) { binary.LittleEndian.PutUint32(h.buf[offLSN:], lsn) }

// Size is the number of populated entries. For a leaf this is the entry
// count; for an internal page it includes the unused sentinel slot at
// index 0, so it equals the child count.
func (h Header) Size() int32 { return int32(binary.LittleEndian.Uint32(h.buf[offSize:])) }

func (h Header) SetSize(n int32) { binary.LittleEndian.PutUint32(h.buf[offSize:], uint32(n)) }

func (h Header) MaxSize() int32 { return int32(binary.LittleEndian.Uint32(h.buf[offMaxSize:])) }

func (h Header) SetMaxSize(n int32) { binary.LittleEndian.PutUint32(h.buf[offMaxSize:], uint32(n)) }

func (h Header) ParentPageId() types.PageId {
	return types.PageId(int32(binary.LittleEndian.Uint32(h.buf[offParent:])))
}

func (h Header) SetParentPageId(id types.PageId) {
	binary.LittleEndian.PutUint32(h.buf[offParent:], uint32(int32(id)))
}

func (h Header) PageId() types.PageId {
	return types.PageId(int32(binary.LittleEndian.Uint32(h.buf[offPageID:])))
}

func (h Header) SetPageId(id types.PageId) {
	binary.LittleEndian.PutUint32(h.buf[offPageID:], uint32(int32(id)))
}

// MinSize is the floor(max/2) minimum occupancy rule applied throughout:
// a non-root page with fewer entries than this must be coalesced or
// redistributed.
func (h Header) MinSize() int32 { return h.MaxSize() / 2 }

// IsLeaf reports whether buf holds a leaf page, without needing a typed
// view.
func IsLeaf(buf []byte) bool {
	return types.PageType(binary.LittleEndian.Uint32(buf[offPageType:])) == types.PageTypeLeaf
}
