package diskmanager

import (
	"os"
	"sync"
)

// ############################################# FILE DESCRIPTOR ###########################################

type PageKey struct {
	FileID   uint32
	LocalNum int64
}

// FileDescriptor represents an open file managed by the disk manager
type FileDescriptor struct {
	FileID     uint32
	FilePath   string
	File       *os.File
	NextPageID int64 // Next available local page number within this file
	mu         sync.RWMutex
}

// File is the handle returned to callers by OpenFile: an opaque
// reference to one open on-disk file, keyed by the FileID the DiskManager
// assigned it.
type File struct {
	ID uint32
}

// ############################################# DISK MANAGER #############################################

// DiskManager manages all disk I/O operations and file handles
type DiskManager struct {
	files         map[uint32]*FileDescriptor // fileID -> file descriptor
	globalPageMap map[int64]uint32           // globalPageID -> fileID mapping
	localToGlobal map[PageKey]int64          // (fileID, localNum) -> globalPageID
	mu            sync.RWMutex
}
