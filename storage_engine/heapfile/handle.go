package heapfile

import (
	"fmt"
	"os"

	"heaplayer/storage_engine/bufferpool"
	diskmanager "heaplayer/storage_engine/disk_manager"
	"heaplayer/storage_engine/page"
	"heaplayer/storage_engine/reccache"
)

// HeapFile is the heap-file handle: it opens an existing file, keeps the
// header page pinned for its whole lifetime, and tracks an at-most-one
// pinned data page (the cursor) used for point lookups and shared by the
// Scan and Insert views built on top of it.
type HeapFile struct {
	diskMgr *diskmanager.DiskManager
	bufMgr  *bufferpool.BufferPool
	file    *diskmanager.File
	fileID  uint32

	headerPage   *page.Page
	headerPageNo int64
	hdrDirty     bool

	curPage   *page.Page
	curPageNo int64
	curDirty  bool
	curRec    RID

	cache *reccache.Cache
}

// SetCache attaches a point-lookup cache to the handle. GetRecord serves
// hits from it and populates it on miss; Scan.DeleteRecord invalidates
// it. Passing nil disables caching (the default).
func (hf *HeapFile) SetCache(c *reccache.Cache) {
	hf.cache = c
}

// Open opens filePath, pins its header page for the lifetime of the
// returned handle, and positions the cursor on the file's first data
// page.
func Open(diskMgr *diskmanager.DiskManager, bufMgr *bufferpool.BufferPool, filePath string) (*HeapFile, error) {
	f, err := diskMgr.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open heap file: %w", err)
	}

	hf := &HeapFile{
		diskMgr: diskMgr,
		bufMgr:  bufMgr,
		file:    f,
		fileID:  f.ID,
	}

	hdrLocal := f.GetFirstPage()
	hdrPage, err := hf.pin(hdrLocal)
	if err != nil {
		diskMgr.CloseFile(f)
		return nil, fmt.Errorf("open heap file: read header page: %w", err)
	}
	hf.headerPage = hdrPage
	hf.headerPageNo = hdrLocal
	hf.hdrDirty = false

	firstData := GetFirstPage(hdrPage)
	curPage, err := hf.pin(firstData)
	if err != nil {
		hf.unpin(hdrLocal, false)
		diskMgr.CloseFile(f)
		return nil, fmt.Errorf("open heap file: read first data page: %w", err)
	}
	hf.curPage = curPage
	hf.curPageNo = firstData
	hf.curDirty = false
	hf.curRec = NullRID

	return hf, nil
}

// Close unpins the cursor page (if any) and the header page, flushes the
// buffer pool, then closes the underlying file. Every step runs even if
// an earlier one failed; every error is logged and the first is returned.
func (hf *HeapFile) Close() error {
	var firstErr error
	report := func(err error) {
		if err == nil {
			return
		}
		if firstErr == nil {
			firstErr = err
		}
		fmt.Fprintf(os.Stderr, "[HeapFile] close: %v\n", err)
	}

	if hf.curPage != nil {
		report(hf.unpin(hf.curPageNo, hf.curDirty))
		hf.curPage = nil
		hf.curPageNo = 0
		hf.curDirty = false
	}

	report(hf.unpin(hf.headerPageNo, hf.hdrDirty))

	// Unpinning only marks a page dirty in the pool; without a flush here
	// a reopen would see the file's on-disk size unchanged and recompute
	// NextPageID short of every page allocated this session.
	report(hf.bufMgr.FlushAllPages())
	report(hf.diskMgr.CloseFile(hf.file))

	return firstErr
}

// RecCnt returns the number of live records across the whole file.
func (hf *HeapFile) RecCnt() int64 {
	return GetRecCnt(hf.headerPage)
}

// GetRecord retrieves an arbitrary record by rid. If it is not on the
// currently pinned cursor page, the cursor is repositioned: the old page
// is unpinned (with its accumulated dirty flag) and the target page is
// pinned in its place.
func (hf *HeapFile) GetRecord(rid RID) ([]byte, error) {
	cacheKey := reccache.Key{FileID: hf.fileID, PageNo: rid.PageNo, SlotNo: rid.SlotNo}
	if rec, hit := hf.cache.Get(cacheKey); hit {
		// A cache hit is a pure shortcut: it must not claim the cursor
		// moved to rid's page when the buffer pool was never asked to pin
		// it. curPage/curRec are shared with the Scan and Insert views, so
		// leaving them exactly as they were keeps those views consistent.
		return rec, nil
	}

	switch {
	case hf.curPage != nil && rid.PageNo == hf.curPageNo:
		// already on the pinned cursor page

	case hf.curPage == nil:
		pg, err := hf.pin(rid.PageNo)
		if err != nil {
			return nil, fmt.Errorf("get record: %w", err)
		}
		hf.curPage = pg
		hf.curPageNo = rid.PageNo
		hf.curDirty = false

	default:
		if err := hf.unpin(hf.curPageNo, hf.curDirty); err != nil {
			return nil, fmt.Errorf("get record: unpin old cursor: %w", err)
		}
		pg, err := hf.pin(rid.PageNo)
		if err != nil {
			hf.curPage = nil
			return nil, fmt.Errorf("get record: %w", err)
		}
		hf.curPage = pg
		hf.curPageNo = rid.PageNo
		hf.curDirty = false
	}

	rec, err := GetRecord(hf.curPage, rid.SlotNo)
	if err != nil {
		return nil, err
	}
	hf.curRec = rid
	hf.cache.Put(cacheKey, rec)
	return rec, nil
}

// pin resolves localPageNo to a global page ID and pins it via the
// buffer pool.
func (hf *HeapFile) pin(localPageNo int64) (*page.Page, error) {
	gid := hf.diskMgr.GlobalPageID(hf.fileID, localPageNo)
	return hf.bufMgr.ReadPage(gid)
}

// unpin releases one pin on localPageNo.
func (hf *HeapFile) unpin(localPageNo int64, dirty bool) error {
	gid := hf.diskMgr.GlobalPageID(hf.fileID, localPageNo)
	return hf.bufMgr.UnpinPage(gid, dirty)
}

// alloc allocates a new data page for this file and returns its local
// page number alongside the pinned frame.
func (hf *HeapFile) alloc() (int64, *page.Page, error) {
	gid, pg, err := hf.bufMgr.AllocPage(hf.fileID)
	if err != nil {
		return 0, nil, err
	}
	local := gid & 0xFFFFFFFF
	return local, pg, nil
}
