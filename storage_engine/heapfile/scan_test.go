package heapfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

func encRecord(id int32, name string) []byte {
	rec := make([]byte, 4+len(name))
	binary.LittleEndian.PutUint32(rec[:4], uint32(id))
	copy(rec[4:], name)
	return rec
}

func TestStartScanRejectsBadParms(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	scan := NewScan(hf)
	defer scan.EndScan()

	if err := scan.StartScan(0, 5, INTEGER, int32Bytes(1), EQ); !errors.Is(err, ErrBadScanParm) {
		t.Fatalf("expected ErrBadScanParm for a 5-byte INTEGER filter, got %v", err)
	}
	if err := scan.StartScan(0, 4, INTEGER, nil, EQ); err != nil {
		t.Fatalf("a nil filter should always be accepted, got %v", err)
	}
}

func TestScanNextFindsFirstRecordOnPrePinnedPage(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	ins := NewInsert(hf)

	rid0, err := ins.InsertRecord(encRecord(0, "first"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	// Open already left the cursor pinned on this page with curRec null;
	// the very first ScanNext must still land on slot 0, not skip it.
	scan := NewScan(hf)
	defer scan.EndScan()
	if err := scan.StartScan(0, 0, INTEGER, nil, EQ); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	fmt.Println("checking the first ScanNext call returns the very first insert...")
	got, err := scan.ScanNext()
	if err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	if got != rid0 {
		t.Fatalf("expected the first ScanNext to return %v, got %v", rid0, got)
	}
	fmt.Println("  ✓ slot 0 was not skipped")
}

func TestScanNextUnfilteredVisitsEveryRecord(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	ins := NewInsert(hf)

	names := []string{"alice", "bob", "carol"}
	for i, n := range names {
		if _, err := ins.InsertRecord(encRecord(int32(i), n)); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	scan := NewScan(hf)
	defer scan.EndScan()
	if err := scan.StartScan(0, 0, INTEGER, nil, EQ); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	seen := 0
	for {
		_, err := scan.ScanNext()
		if errors.Is(err, ErrFileEOF) {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}
		seen++
	}
	if seen != len(names) {
		t.Fatalf("expected to visit %d records, saw %d", len(names), seen)
	}
}

func TestScanNextFilteredInteger(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	ins := NewInsert(hf)

	for i := int32(0); i < 5; i++ {
		if _, err := ins.InsertRecord(encRecord(i, "row")); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	scan := NewScan(hf)
	defer scan.EndScan()
	fmt.Println("scanning for id == 3...")
	if err := scan.StartScan(0, 4, INTEGER, int32Bytes(3), EQ); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	rid, err := scan.ScanNext()
	if err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	rec, err := scan.GetRecord()
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got := int32(binary.LittleEndian.Uint32(rec[:4])); got != 3 {
		t.Fatalf("expected the matching record to have id 3, got %d", got)
	}

	if _, err := scan.ScanNext(); !errors.Is(err, ErrFileEOF) {
		t.Fatalf("expected exactly one EQ match then EOF, got rid=%v err=%v", rid, err)
	}
	fmt.Println("  ✓ exactly one match")
}

func TestScanNextFilteredString(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	ins := NewInsert(hf)

	ins.InsertRecord(encRecord(0, "apple"))
	ins.InsertRecord(encRecord(1, "banana"))
	ins.InsertRecord(encRecord(2, "cherry"))

	scan := NewScan(hf)
	defer scan.EndScan()
	// Compare only the first letter (length=1): "apple" and "banana" both
	// come before "cherry", "cherry" itself does not satisfy strict LT.
	if err := scan.StartScan(4, 1, STRING, []byte("c"), LT); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	count := 0
	for {
		rid, err := scan.ScanNext()
		if errors.Is(err, ErrFileEOF) {
			break
		}
		if err != nil {
			t.Fatalf("ScanNext: %v", err)
		}
		rec, err := scan.GetRecord()
		if err != nil {
			t.Fatalf("GetRecord: %v", err)
		}
		_ = rid
		if string(rec[4:]) == "cherry" {
			t.Fatalf("cherry should not satisfy LT c")
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected apple and banana to match LT c, got %d matches", count)
	}
}

func TestMarkAndResetScan(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	ins := NewInsert(hf)

	for i := int32(0); i < 3; i++ {
		ins.InsertRecord(encRecord(i, "row"))
	}

	scan := NewScan(hf)
	defer scan.EndScan()
	scan.StartScan(0, 0, INTEGER, nil, EQ)

	first, err := scan.ScanNext()
	if err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	scan.MarkScan()

	if _, err := scan.ScanNext(); err != nil {
		t.Fatalf("ScanNext: %v", err)
	}
	if _, err := scan.ScanNext(); err != nil {
		t.Fatalf("ScanNext: %v", err)
	}

	fmt.Println("resetting scan back to the mark...")
	if err := scan.ResetScan(); err != nil {
		t.Fatalf("ResetScan: %v", err)
	}
	if scan.curRec != first {
		t.Fatalf("expected cursor record restored to %v, got %v", first, scan.curRec)
	}
	fmt.Println("  ✓ restored")
}

func TestDeleteRecordUpdatesRecCntAndCache(t *testing.T) {
	hf := newOpenHeapFile(t, 8)
	hf.SetCache(newTestCache(t))
	ins := NewInsert(hf)

	rid, err := ins.InsertRecord(encRecord(0, "gone"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	// Warm the cache and position the shared cursor on this record.
	if _, err := hf.GetRecord(rid); err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	scan := NewScan(hf)
	defer scan.EndScan()

	before := hf.RecCnt()
	if err := scan.DeleteRecord(); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if hf.RecCnt() != before-1 {
		t.Fatalf("expected RecCnt to decrement, got %d want %d", hf.RecCnt(), before-1)
	}

	if _, err := hf.GetRecord(rid); !errors.Is(err, ErrInvalidSlotNo) {
		t.Fatalf("expected a deleted record to be unreadable and its cache entry invalidated, got %v", err)
	}
}
