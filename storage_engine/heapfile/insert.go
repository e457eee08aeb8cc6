package heapfile

import (
	"errors"
	"fmt"
)

// Insert is the append-only insert view: it targets the tail page of
// the chain, extending the chain with a fresh page when the tail is
// full. It borrows the handle's cursor, same as Scan.
type Insert struct {
	*HeapFile
}

// NewInsert starts an insert view over an already-open handle.
func NewInsert(hf *HeapFile) *Insert {
	return &Insert{HeapFile: hf}
}

// InsertRecord appends data to the file, extending the page chain if the
// current tail page has no room. Fails with ErrInvalidRecLen if data can
// never fit on any page regardless of its current occupancy.
func (ins *Insert) InsertRecord(data []byte) (RID, error) {
	if len(data) > MaxRecordSize {
		return NullRID, ErrInvalidRecLen
	}

	lastLocal := GetLastPage(ins.headerPage)
	if ins.curPage != nil && ins.curPageNo != lastLocal {
		if err := ins.unpin(ins.curPageNo, ins.curDirty); err != nil {
			return NullRID, fmt.Errorf("insert record: %w", err)
		}
		ins.curPage = nil
	}
	if ins.curPage == nil {
		pg, err := ins.pin(lastLocal)
		if err != nil {
			return NullRID, fmt.Errorf("insert record: %w", err)
		}
		ins.curPage = pg
		ins.curPageNo = lastLocal
		ins.curDirty = false
	}

	slot, err := InsertRecord(ins.curPage, data)
	if errors.Is(err, ErrNoSpace) {
		slot, err = ins.growAndRetry(data)
	}
	if err != nil {
		return NullRID, fmt.Errorf("insert record: %w", err)
	}

	SetRecCnt(ins.headerPage, GetRecCnt(ins.headerPage)+1)
	ins.hdrDirty = true
	ins.curDirty = true

	rid := RID{PageNo: ins.curPageNo, SlotNo: slot}
	fmt.Printf("[Heap] INSERT fileID=%d page=%d slot=%d\n", ins.fileID, ins.curPageNo, slot)
	return rid, nil
}

// growAndRetry extends the chain with a new tail page and retries the
// insert that failed with ErrNoSpace. Two data pages — the new tail and
// the old tail — are briefly pinned at once while the forward link is
// written, in that order, and both of those pins are released; the new
// tail is then pinned again as the cursor, which stays pinned on return.
func (ins *Insert) growAndRetry(data []byte) (uint16, error) {
	oldTailNo := ins.curPageNo
	if err := ins.unpin(oldTailNo, ins.curDirty); err != nil {
		return 0, fmt.Errorf("unpin full tail page: %w", err)
	}
	ins.curPage = nil

	newLocal, newPage, err := ins.alloc()
	if err != nil {
		return 0, fmt.Errorf("allocate new tail page: %w", err)
	}
	InitDataPage(newPage, uint32(newLocal))

	oldTail, err := ins.pin(oldTailNo)
	if err != nil {
		return 0, fmt.Errorf("re-pin old tail to link: %w", err)
	}
	SetNextPage(oldTail, newLocal)
	if err := ins.unpin(oldTailNo, true); err != nil {
		return 0, fmt.Errorf("unpin linked old tail: %w", err)
	}

	SetLastPage(ins.headerPage, newLocal)
	SetPageCnt(ins.headerPage, GetPageCnt(ins.headerPage)+1)
	ins.hdrDirty = true

	if err := ins.unpin(newLocal, true); err != nil {
		return 0, fmt.Errorf("unpin fresh tail allocation: %w", err)
	}
	curPage, err := ins.pin(newLocal)
	if err != nil {
		return 0, fmt.Errorf("pin new tail as cursor: %w", err)
	}
	ins.curPage = curPage
	ins.curPageNo = newLocal
	ins.curDirty = false

	slot, err := InsertRecord(ins.curPage, data)
	if err != nil {
		return 0, fmt.Errorf("retry on new tail: %w", err)
	}
	return slot, nil
}
