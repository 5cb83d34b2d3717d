// Package replacer implements the victim-selection policy consulted by the
// buffer pool once its free list is exhausted.
package replacer

import (
	"container/list"
	"sync"

	"pagepool/types"
)

// LRU tracks the set of currently evictable frames and hands back the
// least-recently-used one on Victim. Pin removes a frame from
// consideration (it is in active use); Unpin makes it evictable again.
//
// Grounded on alexhholmes-fredb/internal/cache/cache.go: a container/list
// doubly-linked list (front = most recently used, back = victim) plus a
// map for O(1) membership, so every operation is O(1) as required.
type LRU struct {
	mu       sync.Mutex
	list     *list.List
	elements map[types.FrameId]*list.Element
}

// New creates an LRU replacer. capacity is advisory only (it sizes the
// internal map); the replacer grows to hold as many frames as are unpinned
// into it.
func New(capacity int) *LRU {
	return &LRU{
		list:     list.New(),
		elements: make(map[types.FrameId]*list.Element, capacity),
	}
}

// Unpin marks frame as evictable, placing it at the most-recently-used end.
// A frame already tracked is a no-op.
func (r *LRU) Unpin(frame types.FrameId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.elements[frame]; ok {
		return
	}
	r.elements[frame] = r.list.PushFront(frame)
}

// Pin removes frame from consideration for eviction. A frame not currently
// tracked is a no-op.
func (r *LRU) Pin(frame types.FrameId) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.elements[frame]; ok {
		r.list.Remove(el)
		delete(r.elements, frame)
	}
}

// Victim evicts and returns the least-recently-used frame. ok is false if
// no frame is currently evictable.
func (r *LRU) Victim() (frame types.FrameId, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	back := r.list.Back()
	if back == nil {
		return types.InvalidFrameId, false
	}
	r.list.Remove(back)
	id := back.Value.(types.FrameId)
	delete(r.elements, id)
	return id, true
}

// Size returns the number of frames currently evictable.
func (r *LRU) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Len()
}
