package reccache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

/*
Cache is a bounded, read-through cache of point-lookup results, keyed by
the record's location. It sits in front of HeapFile.GetRecord to shortcut
repeated lookups of records that have not changed since they were last
read.

It is never a substitute for the buffer manager's pin/unpin discipline —
a hit here still means the caller gets a fresh copy of the record bytes,
not a claim on frame residency. Correctness of concurrent scan/insert
depends entirely on Invalidate being called whenever the underlying slot
changes; this cache only ever shortcuts reads that would otherwise return
the same bytes.
*/
type Cache struct {
	c *ristretto.Cache[uint64, []byte]
}

// Key identifies one cached record by its exact on-disk location. It is
// not used as ristretto's type parameter directly — ristretto/v2 restricts
// keys to its own Key union (integers, strings, []byte), which a struct
// does not satisfy — so every lookup folds it down to a uint64 via hash,
// the same way disk_manager derives a file's FileID from its path.
type Key struct {
	FileID uint32
	PageNo int64
	SlotNo uint16
}

func (k Key) hash() uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d:%d:%d", k.FileID, k.PageNo, k.SlotNo))
}

// New creates a cache with room for roughly maxCostBytes worth of record
// data.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: maxCostBytes / 8, // ~1 counter per expected 8-byte record
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("reccache: %w", err)
	}
	return &Cache{c: c}, nil
}

// Get returns a cached copy of the record at key, if present.
func (rc *Cache) Get(key Key) ([]byte, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.c.Get(key.hash())
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Put caches rec under key. The cost charged against the pool is the
// record's length.
func (rc *Cache) Put(key Key, rec []byte) {
	if rc == nil {
		return
	}
	rc.c.Set(key.hash(), rec, int64(len(rec)))
}

// Invalidate evicts any cached copy of key. Callers must invoke this on
// every delete and on any in-place update, since the cache has no way to
// observe buffer-pool writes on its own.
func (rc *Cache) Invalidate(key Key) {
	if rc == nil {
		return
	}
	rc.c.Del(key.hash())
}

// Close releases the cache's background goroutines.
func (rc *Cache) Close() {
	if rc == nil {
		return
	}
	rc.c.Close()
}
