package replacer

import (
	"testing"

	"pagepool/types"
)

func TestLRUVictimOrder(t *testing.T) {
	r := New(4)

	r.Unpin(types.FrameId(1))
	r.Unpin(types.FrameId(2))
	r.Unpin(types.FrameId(3))

	if got := r.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}

	frame, ok := r.Victim()
	if !ok || frame != 1 {
		t.Fatalf("Victim() = (%d, %v), want (1, true)", frame, ok)
	}

	frame, ok = r.Victim()
	if !ok || frame != 2 {
		t.Fatalf("Victim() = (%d, %v), want (2, true)", frame, ok)
	}
}

func TestLRUPinRemovesFromEviction(t *testing.T) {
	r := New(4)

	r.Unpin(types.FrameId(1))
	r.Unpin(types.FrameId(2))
	r.Pin(types.FrameId(1))

	if got := r.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}

	frame, ok := r.Victim()
	if !ok || frame != 2 {
		t.Fatalf("Victim() = (%d, %v), want (2, true)", frame, ok)
	}
}

func TestLRUUnpinAlreadyTrackedIsNoop(t *testing.T) {
	r := New(4)

	r.Unpin(types.FrameId(1))
	r.Unpin(types.FrameId(2))
	r.Unpin(types.FrameId(1)) // re-touch 1; position must not change

	if got := r.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}

	frame, ok := r.Victim()
	if !ok || frame != 1 {
		t.Fatalf("Victim() = (%d, %v), want (1, true)", frame, ok)
	}
	frame, ok = r.Victim()
	if !ok || frame != 2 {
		t.Fatalf("Victim() = (%d, %v), want (2, true)", frame, ok)
	}
}

func TestLRUVictimEmpty(t *testing.T) {
	r := New(4)
	if _, ok := r.Victim(); ok {
		t.Fatalf("Victim() on empty replacer returned ok=true")
	}
}
