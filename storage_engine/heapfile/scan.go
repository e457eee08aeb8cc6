package heapfile

import (
	"fmt"

	"heaplayer/storage_engine/reccache"
)

// Scan is a filtered, forward-only, resumable iteration over a heap
// file's records. It borrows the handle's cursor rather than owning a
// second one — only one Scan or Insert view should be active over a
// given HeapFile at a time.
type Scan struct {
	*HeapFile
	filter filterSpec

	markedPageNo int64
	markedRec    RID
}

// NewScan starts a scan view over an already-open handle.
func NewScan(hf *HeapFile) *Scan {
	return &Scan{HeapFile: hf}
}

// StartScan installs the filter subsequent ScanNext calls apply. A nil
// filter clears the predicate: the scan then yields every record.
func (s *Scan) StartScan(offset, length int, typ AttrType, filter []byte, op Op) error {
	if filter == nil {
		s.filter = filterSpec{}
		return nil
	}
	if !validateFilterParms(offset, length, typ, op) {
		return ErrBadScanParm
	}
	s.filter = filterSpec{
		offset: offset,
		length: length,
		typ:    typ,
		value:  filter,
		op:     op,
		active: true,
	}
	return nil
}

// ScanNext advances to and returns the next record satisfying the
// filter, starting from the record most recently returned (or the
// beginning of the file, if the scan has not yet produced one). Returns
// ErrFileEOF once the chain is exhausted.
func (s *Scan) ScanNext() (RID, error) {
	var slot uint16
	var err error

	if s.curPage == nil {
		s.curPageNo = GetFirstPage(s.headerPage)
		pg, pinErr := s.pin(s.curPageNo)
		if pinErr != nil {
			return NullRID, fmt.Errorf("scan next: %w", pinErr)
		}
		s.curPage = pg
		s.curDirty = false
		s.curRec = NullRID
	}

	// A fresh scan (curRec still null, whether because ScanNext has never
	// advanced or because Open pre-pinned this page without visiting any
	// record on it) starts from the page's first record; otherwise resume
	// just after the last one returned.
	if s.curRec.IsNull() {
		slot, err = FirstRecord(s.curPage)
	} else {
		slot, err = NextRecord(s.curPage, s.curRec.SlotNo)
	}

	for {
		for err == nil {
			rec, gerr := GetRecord(s.curPage, slot)
			if gerr != nil {
				return NullRID, gerr
			}
			if s.filter.matchRec(rec) {
				s.curRec = RID{PageNo: s.curPageNo, SlotNo: slot}
				return s.curRec, nil
			}
			slot, err = NextRecord(s.curPage, slot)
		}

		// Current page exhausted. Check the sentinel before attempting
		// to pin the next page — following a SentinelEnd link would
		// otherwise ask the buffer manager for an invalid page number.
		nextPageNo := GetNextPage(s.curPage)
		if nextPageNo == SentinelEnd {
			s.curRec = NullRID
			return NullRID, ErrFileEOF
		}

		if unpinErr := s.unpin(s.curPageNo, s.curDirty); unpinErr != nil {
			return NullRID, fmt.Errorf("scan next: unpin exhausted page: %w", unpinErr)
		}
		s.curPage = nil

		pg, pinErr := s.pin(nextPageNo)
		if pinErr != nil {
			return NullRID, fmt.Errorf("scan next: %w", pinErr)
		}
		s.curPage = pg
		s.curPageNo = nextPageNo
		s.curDirty = false
		slot, err = FirstRecord(pg)
	}
}

// GetRecord returns the record currently identified by curRec, leaving
// the cursor page pinned.
func (s *Scan) GetRecord() ([]byte, error) {
	return GetRecord(s.curPage, s.curRec.SlotNo)
}

// DeleteRecord deletes the current record and updates the file's record
// count.
func (s *Scan) DeleteRecord() error {
	if err := DeleteRecord(s.curPage, s.curRec.SlotNo); err != nil {
		return err
	}
	s.curDirty = true
	SetRecCnt(s.headerPage, GetRecCnt(s.headerPage)-1)
	s.hdrDirty = true
	s.cache.Invalidate(reccache.Key{FileID: s.fileID, PageNo: s.curPageNo, SlotNo: s.curRec.SlotNo})
	return nil
}

// MarkDirty flags the cursor page as modified, for callers that mutate
// record bytes through a pointer obtained from GetRecord.
func (s *Scan) MarkDirty() {
	s.curDirty = true
}

// MarkScan snapshots the current cursor position for a later ResetScan.
func (s *Scan) MarkScan() {
	s.markedPageNo = s.curPageNo
	s.markedRec = s.curRec
}

// ResetScan restores the cursor to the position captured by the last
// MarkScan. If the mark was on a different page than the current
// cursor, the current page is unpinned and the marked page re-pinned;
// the repinned page is treated as clean, so callers that mutated it
// after marking must call MarkDirty again once they resume.
func (s *Scan) ResetScan() error {
	if s.markedPageNo != s.curPageNo {
		if s.curPage != nil {
			if err := s.unpin(s.curPageNo, s.curDirty); err != nil {
				return fmt.Errorf("reset scan: %w", err)
			}
		}
		s.curPageNo = s.markedPageNo
		s.curRec = s.markedRec
		pg, err := s.pin(s.curPageNo)
		if err != nil {
			return fmt.Errorf("reset scan: %w", err)
		}
		s.curPage = pg
		s.curDirty = false
		return nil
	}
	s.curRec = s.markedRec
	return nil
}

// EndScan unpins the cursor page if one is pinned and clears cursor
// state. Idempotent.
func (s *Scan) EndScan() error {
	if s.curPage == nil {
		return nil
	}
	err := s.unpin(s.curPageNo, s.curDirty)
	s.curPage = nil
	s.curPageNo = 0
	s.curDirty = false
	s.curRec = NullRID
	return err
}
