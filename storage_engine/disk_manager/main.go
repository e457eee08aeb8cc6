package diskmanager

import (
	"fmt"
	"os"
	"path/filepath"

	"heaplayer/storage_engine/page"

	"github.com/cespare/xxhash/v2"
)

/*
This is the disk manager. It owns:
  - File descriptors (os.File)
  - Reading/writing raw bytes at specific offsets (ReadAt, WriteAt)
  - Page allocation (tracking NextPageID per file)
  - The globalPageID <-> (fileID, localPage) mapping

Page ID encoding:

	globalPageID = int64(fileID) << 32 | localPageNum

FileID itself is derived from the file's absolute path with xxhash rather
than an in-memory counter, so re-opening the same path after a process
restart resolves to the same FileID (and therefore the same buffer-pool
keys) without a separate catalog tracking the assignment.

Bufferpool serves reads from cached pages; on a miss it is the disk
manager that pulls the bytes off disk and hands back a frame.
*/

func NewDiskManager() *DiskManager {
	return &DiskManager{
		files:         make(map[uint32]*FileDescriptor),
		globalPageMap: make(map[int64]uint32),
		localToGlobal: make(map[PageKey]int64),
	}
}

func NewPage(pageID int64, fileID uint32) *page.Page {
	return &page.Page{
		ID:       pageID,
		FileID:   fileID,
		Data:     make([]byte, page.PageSize),
		IsDirty:  false,
		PinCount: 0,
	}
}

// fileIDFromPath derives a stable, deterministic FileID from an absolute
// file path. Two OpenFile calls against the same path — even across
// process restarts — resolve to the same FileID.
func fileIDFromPath(path string) uint32 {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	sum := xxhash.Sum64String(path)
	id := uint32(sum)
	if id == 0 {
		id = 1 // FileID 0 is reserved as "invalid" throughout this layer
	}
	return id
}

// CreateFile creates a new on-disk file. It fails if the file already
// exists — callers that want open-or-create semantics can call OpenFile
// directly, which creates a missing file.
func (dm *DiskManager) CreateFile(filePath string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("create file %s: %w", filePath, os.ErrExist)
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create file %s: %w", filePath, err)
		}
	}

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", filePath, err)
	}
	return f.Close()
}

// DestroyFile removes a file from disk, closing it first if open.
func (dm *DiskManager) DestroyFile(filePath string) error {
	dm.mu.Lock()
	id := fileIDFromPath(filePath)
	fd, open := dm.files[id]
	dm.mu.Unlock()

	if open {
		fd.mu.Lock()
		if fd.File != nil {
			fd.File.Close()
			fd.File = nil
		}
		fd.mu.Unlock()

		dm.mu.Lock()
		delete(dm.files, id)
		dm.mu.Unlock()
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("destroy file %s: %w", filePath, err)
	}
	return nil
}

// OpenFile opens an existing or new file and returns a handle to it. The
// FileID is derived from the path, so calling OpenFile twice on the same
// path returns handles that address the same underlying pages.
func (dm *DiskManager) OpenFile(filePath string) (*File, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	id := fileIDFromPath(filePath)
	if fd, exists := dm.files[id]; exists {
		return &File{ID: fd.FileID}, nil
	}

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", filePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file %s: %w", filePath, err)
	}

	numPages := stat.Size() / int64(page.PageSize)

	fd := &FileDescriptor{
		FileID:     id,
		FilePath:   filePath,
		File:       f,
		NextPageID: numPages,
	}
	dm.files[id] = fd

	for local := int64(0); local < numPages; local++ {
		dm.registerPageLocked(id, local)
	}

	return &File{ID: id}, nil
}

// GetFirstPage returns the local page number of the file's header page.
// Header pages are always the first page allocated in a file (local page
// 0), so this is a direct answer rather than a stored value.
func (f *File) GetFirstPage() int64 {
	return 0
}

// ReadPage reads a page from disk by global page ID.
func (dm *DiskManager) ReadPage(globalPageID int64) (*page.Page, error) {
	dm.mu.RLock()
	fileID, exists := dm.globalPageMap[globalPageID]
	dm.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("page %d not found in global page map", globalPageID)
	}

	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return nil, fmt.Errorf("file %d is closed", fileID)
	}

	localPageID := dm.getLocalPageID(globalPageID)
	offset := localPageID * int64(page.PageSize)

	pg := NewPage(globalPageID, fileID)
	n, err := fd.File.ReadAt(pg.Data, offset)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("failed to read page %d from file %d: %w", localPageID, fileID, err)
	}
	for i := n; i < page.PageSize; i++ {
		pg.Data[i] = 0
	}

	return pg, nil
}

// WritePage writes a page to disk.
func (dm *DiskManager) WritePage(pg *page.Page) error {
	dm.mu.RLock()
	fd, exists := dm.files[pg.FileID]
	dm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("file %d not found", pg.FileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return fmt.Errorf("file %d is closed", pg.FileID)
	}
	if len(pg.Data) != page.PageSize {
		return fmt.Errorf("page data size %d does not match page size %d", len(pg.Data), page.PageSize)
	}

	localPageID := dm.getLocalPageID(pg.ID)
	offset := localPageID * int64(page.PageSize)

	if _, err := fd.File.WriteAt(pg.Data, offset); err != nil {
		return fmt.Errorf("failed to write page %d to file %d: %w", localPageID, pg.FileID, err)
	}

	if localPageID >= fd.NextPageID {
		fd.NextPageID = localPageID + 1
	}

	pg.IsDirty = false
	return nil
}

// AllocatePage reserves the next available local page number for a file
// and returns its global page ID. It does not write anything to disk —
// that is the buffer pool's job when it later flushes the dirty page.
func (dm *DiskManager) AllocatePage(fileID uint32) (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return 0, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return 0, fmt.Errorf("file %d is closed", fileID)
	}

	local := fd.NextPageID
	fd.NextPageID++

	globalPageID := int64(fileID)<<32 | local
	dm.globalPageMap[globalPageID] = fileID
	dm.localToGlobal[PageKey{FileID: fileID, LocalNum: local}] = globalPageID

	return globalPageID, nil
}

func (dm *DiskManager) getLocalPageID(globalPageID int64) int64 {
	return globalPageID & 0xFFFFFFFF
}

// GlobalPageID resolves a (fileID, localPageNum) pair to a global page ID,
// registering the mapping if this is the first time it is seen (e.g. a
// page number obtained by following a next-page link written by an
// earlier process).
func (dm *DiskManager) GlobalPageID(fileID uint32, localPageNum int64) int64 {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.globalPageIDLocked(fileID, localPageNum)
}

func (dm *DiskManager) globalPageIDLocked(fileID uint32, localPageNum int64) int64 {
	key := PageKey{FileID: fileID, LocalNum: localPageNum}
	if gid, ok := dm.localToGlobal[key]; ok {
		return gid
	}
	gid := int64(fileID)<<32 | localPageNum
	dm.localToGlobal[key] = gid
	dm.globalPageMap[gid] = fileID
	return gid
}

func (dm *DiskManager) registerPageLocked(fileID uint32, localPageNum int64) {
	dm.globalPageIDLocked(fileID, localPageNum)
}

// Sync flushes all open file descriptors to stable storage.
func (dm *DiskManager) Sync() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	for _, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				fd.mu.Unlock()
				return fmt.Errorf("failed to sync file %d: %w", fd.FileID, err)
			}
		}
		fd.mu.Unlock()
	}
	return nil
}

// CloseFile closes a specific file.
func (dm *DiskManager) CloseFile(f *File) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[f.ID]
	if !exists {
		return fmt.Errorf("file %d not found", f.ID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return nil
	}
	if err := fd.File.Sync(); err != nil {
		return fmt.Errorf("failed to sync before close: %w", err)
	}
	if err := fd.File.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	fd.File = nil
	delete(dm.files, f.ID)
	return nil
}

// CloseAll closes every open file, returning the last error encountered.
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				lastErr = err
			}
			if err := fd.File.Close(); err != nil {
				lastErr = err
			}
			fd.File = nil
		}
		fd.mu.Unlock()
		delete(dm.files, fileID)
	}
	return lastErr
}

// TotalPages returns the number of local pages allocated for one file.
func (dm *DiskManager) TotalPages(f *File) (int64, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	fd, exists := dm.files[f.ID]
	if !exists {
		return 0, fmt.Errorf("file %d not found", f.ID)
	}
	return fd.NextPageID, nil
}
