package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pagepool/types"
)

func TestAllocateReadWrite(t *testing.T) {
	path := filepath.Join(os.TempDir(), "pagepool_disk_test")
	os.RemoveAll(path)
	defer os.RemoveAll(path)

	m, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	id, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}

	payload := make([]byte, types.PageSize)
	payload[0] = 0xAB
	if err := m.WritePage(id, payload); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got, err := m.ReadPage(id)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadPage returned unexpected data")
	}
}

func TestDeallocateReusesSlot(t *testing.T) {
	path := filepath.Join(os.TempDir(), "pagepool_disk_test_reuse")
	os.RemoveAll(path)
	defer os.RemoveAll(path)

	m, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	id1, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if err := m.DeallocatePage(id1); err != nil {
		t.Fatalf("DeallocatePage: %v", err)
	}
	id2, err := m.AllocatePage()
	if err != nil {
		t.Fatalf("AllocatePage: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("AllocatePage after Deallocate = %d, want reused slot %d", id2, id1)
	}
}

func TestHeaderPageMaterializedOnFreshDisk(t *testing.T) {
	path := filepath.Join(os.TempDir(), "pagepool_disk_test_header")
	os.RemoveAll(path)
	defer os.RemoveAll(path)

	m, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	buf, err := m.ReadPage(types.HeaderPageId)
	if err != nil {
		t.Fatalf("ReadPage(header): %v", err)
	}
	if len(buf) != types.PageSize {
		t.Fatalf("header page size = %d, want %d", len(buf), types.PageSize)
	}
}
