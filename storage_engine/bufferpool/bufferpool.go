package bufferpool

import (
	"fmt"

	diskmanager "heaplayer/storage_engine/disk_manager"
	"heaplayer/storage_engine/page"
)

/*
This is the main file of the buffer pool. It caches pages in memory keyed
by global page ID, evicting the least-recently-used unpinned frame when
full, and defers to the disk manager both for reads on a miss and for
write-back of dirty frames.

The heap-file layer treats this as its "buffer manager" collaborator:
AllocPage/ReadPage/UnpinPage below correspond directly to the
allocPage/readPage/unPinPage contract the heap file layer is written
against.
*/

// New creates a new buffer pool with the given frame capacity.
func New(capacity int, diskManager *diskmanager.DiskManager) *BufferPool {
	return &BufferPool{
		pages:       make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		diskManager: diskManager,
		accessOrder: make([]int64, 0, capacity),
	}
}

// ReadPage pins and returns the page for pageID, loading it from disk on a
// miss. Repeated calls for the same pageID increment the pin count.
func (bp *BufferPool) ReadPage(pageID int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if pg, exists := bp.pages[pageID]; exists {
		fmt.Printf("[BufferPool] HIT  pageID=%d pinCount=%d\n", pageID, pg.PinCount)
		bp.updateAccessOrder(pageID)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	fmt.Printf("[BufferPool] MISS pageID=%d — loading from disk\n", pageID)
	if bp.diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}

	pg, err := bp.diskManager.ReadPage(pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d from disk: %w", pageID, err)
	}

	if err := bp.addPage(pg); err != nil {
		return nil, fmt.Errorf("failed to add page to buffer pool: %w", err)
	}

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	return pg, nil
}

// AllocPage allocates a brand-new page for fileID, entirely in RAM, marks
// it dirty (nothing has been written to disk yet) and pins it once for
// the caller.
func (bp *BufferPool) AllocPage(fileID uint32) (int64, *page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return 0, nil, fmt.Errorf("disk manager not set")
	}

	pageID, err := bp.diskManager.AllocatePage(fileID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to allocate page: %w", err)
	}

	pg := diskmanager.NewPage(pageID, fileID)
	pg.IsDirty = true

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	if err := bp.addPage(pg); err != nil {
		pg.Lock()
		pg.PinCount--
		pg.Unlock()
		return 0, nil, fmt.Errorf("failed to add new page to buffer pool: %w", err)
	}

	return pageID, pg, nil
}

// UnpinPage decrements the pin count for a page. isDirty=true promotes the
// frame to dirty; a page is never demoted back to clean by unpinning.
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount > 0 {
		pg.PinCount--
	}
	if isDirty {
		pg.IsDirty = true
	}
	return nil
}

// FlushPage writes a specific page to disk if dirty.
func (bp *BufferPool) FlushPage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if !pg.IsDirty {
		return nil
	}
	if err := bp.diskManager.WritePage(pg); err != nil {
		return fmt.Errorf("failed to flush page %d: %w", pageID, err)
	}
	pg.IsDirty = false
	return nil
}

// FlushAllPages writes every dirty page to disk.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return fmt.Errorf("disk manager not set")
	}

	fmt.Printf("[BufferPool] FlushAllPages — pool size=%d\n", len(bp.pages))

	for pageID, pg := range bp.pages {
		pg.Lock()
		if pg.IsDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page %d: %w", pageID, err)
			}
			fmt.Printf("[BufferPool]   flushing pageID=%d\n", pageID)
			pg.IsDirty = false
		}
		pg.Unlock()
	}
	return nil
}

// Stats reports a snapshot of pool occupancy for diagnostics.
func (bp *BufferPool) Stats() Stats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	s := Stats{TotalPages: len(bp.pages), Capacity: bp.capacity}
	for _, pg := range bp.pages {
		pg.RLock()
		if pg.PinCount > 0 {
			s.PinnedPages++
		}
		if pg.IsDirty {
			s.DirtyPages++
		}
		pg.RUnlock()
	}
	return s
}

// addPage adds a page to the buffer pool, evicting if necessary. Assumes
// bp.mu is already held.
func (bp *BufferPool) addPage(pg *page.Page) error {
	if _, exists := bp.pages[pg.ID]; exists {
		bp.updateAccessOrder(pg.ID)
		return nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLRU(); err != nil {
			return fmt.Errorf("failed to evict page: %w", err)
		}
	}

	bp.pages[pg.ID] = pg
	bp.updateAccessOrder(pg.ID)
	return nil
}

// evictLRU evicts the least-recently-used unpinned page, flushing it
// first if dirty. Assumes bp.mu is already held.
func (bp *BufferPool) evictLRU() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		pageID := bp.accessOrder[i]
		pg, exists := bp.pages[pageID]

		if !exists {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		pinCount := pg.PinCount
		isDirty := pg.IsDirty

		if pinCount > 0 {
			pg.Unlock()
			continue
		}

		fmt.Printf("[BufferPool] EVICT pageID=%d dirty=%v\n", pageID, isDirty)
		if isDirty && bp.diskManager != nil {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to write page %d during eviction: %w", pageID, err)
			}
			pg.IsDirty = false
		}
		pg.Unlock()

		delete(bp.pages, pageID)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		return nil
	}

	return fmt.Errorf("all pages are pinned, cannot evict")
}

// updateAccessOrder moves pageID to the end of the LRU list (most recently
// used). Assumes bp.mu is already held.
func (bp *BufferPool) updateAccessOrder(pageID int64) {
	for i, id := range bp.accessOrder {
		if id == pageID {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			break
		}
	}
	bp.accessOrder = append(bp.accessOrder, pageID)
}
