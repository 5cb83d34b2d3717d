package buffer

import "pagepool/types"

// Frame is one of the buffer pool's fixed in-memory slots. A page "lives
// inside a buffer-pool frame": the B+Tree operates directly on Data rather
// than decoding it into a separate in-memory struct.
type Frame struct {
	PageId   types.PageId
	Data     [types.PageSize]byte
	PinCount int32
	IsDirty  bool
}

func (f *Frame) reset(id types.PageId) {
	f.PageId = id
	for i := range f.Data {
		f.Data[i] = 0
	}
	f.PinCount = 0
	f.IsDirty = false
}
