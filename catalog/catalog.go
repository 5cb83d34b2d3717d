// Package catalog implements the header page: the process-wide, well-known
// page (PageId 0) that maps each open index's name to its current root
// page id.
//
// Grounded on storage_engine/disk_manager's WriteRootID/ReadRootID, which
// persist a single root id per file; this generalizes that to a shared
// record list so more than one named index can share the same header page,
// matching the header-page contract in the external-interfaces section.
package catalog

import (
	"encoding/binary"
	"fmt"

	"pagepool/buffer"
	"pagepool/types"
)

const maxNameLen = 128

// Catalog reads and writes (name -> root page id) records on the header
// page through the buffer pool, the same as any other page access.
type Catalog struct {
	bpm *buffer.Pool
}

// New wraps bpm. The disk behind bpm must already hold the header page at
// types.HeaderPageId (disk.Open materializes one on a fresh disk).
func New(bpm *buffer.Pool) *Catalog {
	return &Catalog{bpm: bpm}
}

// Lookup returns the root page id registered for name, or
// (types.InvalidPageId, false, nil) if no such record exists.
func (c *Catalog) Lookup(name string) (types.PageId, bool, error) {
	frame, err := c.bpm.FetchPage(types.HeaderPageId)
	if err != nil {
		return types.InvalidPageId, false, fmt.Errorf("catalog lookup %q: %w", name, err)
	}
	defer c.bpm.UnpinPage(types.HeaderPageId, false)

	records, err := decode(frame.Data[:])
	if err != nil {
		return types.InvalidPageId, false, fmt.Errorf("catalog lookup %q: %w", name, err)
	}
	if root, ok := records[name]; ok {
		return root, true, nil
	}
	return types.InvalidPageId, false, nil
}

// SetRoot upserts name's root page id record.
func (c *Catalog) SetRoot(name string, root types.PageId) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("catalog set root %q: name exceeds %d bytes", name, maxNameLen)
	}

	frame, err := c.bpm.FetchPage(types.HeaderPageId)
	if err != nil {
		return fmt.Errorf("catalog set root %q: %w", name, err)
	}
	defer c.bpm.UnpinPage(types.HeaderPageId, true)

	records, err := decode(frame.Data[:])
	if err != nil {
		return fmt.Errorf("catalog set root %q: %w", name, err)
	}
	records[name] = root

	buf, err := encode(records)
	if err != nil {
		return fmt.Errorf("catalog set root %q: %w", name, err)
	}
	copy(frame.Data[:], buf)
	return nil
}

// decode parses the header page's record list. An all-zero page (a freshly
// allocated header page) decodes to an empty map.
func decode(buf []byte) (map[string]types.PageId, error) {
	records := make(map[string]types.PageId)
	count := int32(binary.LittleEndian.Uint32(buf[0:]))
	if count == 0 {
		return records, nil
	}

	off := 4
	for i := int32(0); i < count; i++ {
		if off+2 > len(buf) {
			return nil, fmt.Errorf("header page corrupt: truncated name length")
		}
		nameLen := int(binary.LittleEndian.Uint16(buf[off:]))
		off += 2
		if off+nameLen+4 > len(buf) {
			return nil, fmt.Errorf("header page corrupt: truncated record")
		}
		name := string(buf[off : off+nameLen])
		off += nameLen
		root := types.PageId(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4
		records[name] = root
	}
	return records, nil
}

func encode(records map[string]types.PageId) ([]byte, error) {
	buf := make([]byte, types.PageSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(records)))

	off := 4
	for name, root := range records {
		need := 2 + len(name) + 4
		if off+need > len(buf) {
			return nil, fmt.Errorf("header page overflow: too many index records")
		}
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(name)))
		off += 2
		copy(buf[off:], name)
		off += len(name)
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(root)))
		off += 4
	}
	return buf, nil
}
