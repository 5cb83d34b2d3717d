// Inspect a pagepool index file by walking its leaf chain in key order.
// Usage: go run ./cmd/inspect <path-to-.idx>
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"pagepool/buffer"
	"pagepool/catalog"
	"pagepool/disk"
	"pagepool/index"
)

const poolSize = 32

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index.idx>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	d, err := disk.Open(path, nil)
	if err != nil {
		log.Fatalf("open disk: %v", err)
	}
	defer d.Close()

	bpm := buffer.New(poolSize, d, nil)
	cat := catalog.New(bpm)

	tree, err := index.Open("students_primary", bpm, cat, bytes.Compare, index.Options{
		KeySize:     4,
		LeafMax:     64,
		InternalMax: 64,
	})
	if err != nil {
		log.Fatalf("open index: %v", err)
	}

	it, err := tree.Begin()
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer it.Close()

	count := 0
	for !it.IsEnd() {
		k := binary.BigEndian.Uint32(it.Key())
		rid := it.Value()
		fmt.Printf("key=%d rid={page=%d slot=%d}\n", k, rid.PageId, rid.Slot)
		count++
		more, err := it.Next()
		if err != nil {
			log.Fatalf("next: %v", err)
		}
		if !more {
			break
		}
	}
	fmt.Printf("%d entries\n", count)
}
