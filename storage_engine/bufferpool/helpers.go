package bufferpool

import (
	"fmt"

	"heaplayer/storage_engine/page"
)

/*
This file holds helper functions for the bufferpool that aren't part of
the core allocPage/readPage/unPinPage contract.
*/

// Reset flushes every dirty page then clears the pool. Used by tests that
// need a clean pool between cases without tearing down the disk manager.
func (bp *BufferPool) Reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, pg := range bp.pages {
		pg.Lock()
		if pg.IsDirty && bp.diskManager != nil {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page during reset: %w", err)
			}
		}
		pg.Unlock()
	}

	bp.pages = make(map[int64]*page.Page, bp.capacity)
	bp.accessOrder = make([]int64, 0, bp.capacity)
	return nil
}

// Size returns the current number of pages resident in the buffer pool.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum number of frames the pool will hold.
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// GetPage returns a page already resident in the pool without pinning it
// or touching disk. Returns nil on a miss.
func (bp *BufferPool) GetPage(pageID int64) *page.Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pages[pageID]
}
