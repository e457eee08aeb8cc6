package bufferpool

import (
	"sync"

	diskmanager "heaplayer/storage_engine/disk_manager"
	"heaplayer/storage_engine/page"
)

// ############################################# BUFFER POOL #############################################

// BufferPool manages cached pages in memory with LRU eviction.
type BufferPool struct {
	pages       map[int64]*page.Page // pageID -> Page
	capacity    int
	diskManager *diskmanager.DiskManager
	accessOrder []int64 // LRU tracking: most recently used at end
	mu          sync.Mutex
}

// Stats reports a snapshot of buffer pool occupancy.
type Stats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
}
