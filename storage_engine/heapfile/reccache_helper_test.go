package heapfile

import (
	"testing"

	"heaplayer/storage_engine/reccache"
)

func newTestCache(t *testing.T) *reccache.Cache {
	t.Helper()
	c, err := reccache.New(1 << 20)
	if err != nil {
		t.Fatalf("reccache.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}
