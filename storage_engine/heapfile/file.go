package heapfile

import (
	"errors"
	"fmt"
	"os"

	"heaplayer/storage_engine/bufferpool"
	diskmanager "heaplayer/storage_engine/disk_manager"
)

/*
Create and Destroy are the file lifecycle free functions: they initialize
or remove an on-disk file with its header page and first empty data page,
without opening a long-lived handle onto it.
*/

// Create initializes a new heap file named filePath: a header page
// (local page 0) followed by one empty data page. Fails with
// ErrFileExists if a file already exists at that path.
func Create(diskMgr *diskmanager.DiskManager, bufMgr *bufferpool.BufferPool, filePath string) error {
	if err := diskMgr.CreateFile(filePath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrFileExists
		}
		return fmt.Errorf("create heap file: %w", err)
	}

	f, err := diskMgr.OpenFile(filePath)
	if err != nil {
		return fmt.Errorf("create heap file: %w", err)
	}

	hdrPageID, hdrPage, err := bufMgr.AllocPage(f.ID)
	if err != nil {
		diskMgr.CloseFile(f)
		return fmt.Errorf("create heap file: alloc header page: %w", err)
	}
	InitHeaderPage(hdrPage, filePath)

	dataPageID, dataPage, err := bufMgr.AllocPage(f.ID)
	if err != nil {
		bufMgr.UnpinPage(hdrPageID, true)
		diskMgr.CloseFile(f)
		return fmt.Errorf("create heap file: alloc first data page: %w", err)
	}
	InitDataPage(dataPage, uint32(dataPage.ID&0xFFFFFFFF))

	SetFirstPage(hdrPage, dataPage.ID&0xFFFFFFFF)
	SetLastPage(hdrPage, dataPage.ID&0xFFFFFFFF)
	SetPageCnt(hdrPage, 1)
	SetRecCnt(hdrPage, 0)

	if err := bufMgr.UnpinPage(dataPageID, true); err != nil {
		return fmt.Errorf("create heap file: unpin data page: %w", err)
	}
	if err := bufMgr.UnpinPage(hdrPageID, true); err != nil {
		return fmt.Errorf("create heap file: unpin header page: %w", err)
	}

	// Both pages are only dirty in the buffer pool at this point — flush
	// them to disk before closing, or the file's on-disk size stays zero
	// and the next Open would recompute NextPageID as 0, letting the next
	// AllocatePage collide with the header page.
	if err := bufMgr.FlushPage(hdrPageID); err != nil {
		return fmt.Errorf("create heap file: flush header page: %w", err)
	}
	if err := bufMgr.FlushPage(dataPageID); err != nil {
		return fmt.Errorf("create heap file: flush data page: %w", err)
	}

	return diskMgr.CloseFile(f)
}

// Destroy removes filePath from disk, delegating entirely to the file
// manager.
func Destroy(diskMgr *diskmanager.DiskManager, filePath string) error {
	return diskMgr.DestroyFile(filePath)
}
