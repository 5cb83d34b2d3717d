// Seed program: creates a fresh index file and inserts a run of sample
// records through the full disk/buffer-pool/B+Tree stack.
// Run: go run ./cmd/seed <path-to.idx>
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"pagepool/buffer"
	"pagepool/catalog"
	"pagepool/disk"
	"pagepool/index"
	"pagepool/logging"
	"pagepool/types"
)

const poolSize = 64

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index.idx>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zl.Sync()
	logger := logging.NewZap(zl)

	d, err := disk.Open(path, logger)
	if err != nil {
		log.Fatalf("open disk: %v", err)
	}
	defer d.Close()

	bpm := buffer.New(poolSize, d, logger)
	cat := catalog.New(bpm)

	tree, err := index.Open("students_primary", bpm, cat, bytes.Compare, index.Options{
		KeySize:     4,
		LeafMax:     64,
		InternalMax: 64,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("open index: %v", err)
	}

	fmt.Println("Seeding 1000 sample records...")
	for i := uint32(1); i <= 1000; i++ {
		key := make([]byte, 4)
		binary.BigEndian.PutUint32(key, i)
		rid := types.RID{PageId: types.PageId(i), Slot: 0}
		if err := tree.Insert(key, rid); err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
	}

	if err := bpm.FlushAllPages(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	if err := d.Sync(); err != nil {
		log.Fatalf("sync: %v", err)
	}

	fmt.Println("Done. Inspect with:")
	fmt.Printf("  go run ./cmd/inspect %s\n", path)
}
