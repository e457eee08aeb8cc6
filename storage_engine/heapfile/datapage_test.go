package heapfile

import (
	"errors"
	"testing"

	"heaplayer/storage_engine/page"
)

func newDataPage(t *testing.T, pageNo uint32) *page.Page {
	t.Helper()
	pg := &page.Page{ID: int64(pageNo), Data: make([]byte, page.PageSize)}
	InitDataPage(pg, pageNo)
	return pg
}

func TestInitDataPageIsEmpty(t *testing.T) {
	pg := newDataPage(t, 3)

	if GetPageNo(pg) != 3 {
		t.Errorf("expected page number 3, got %d", GetPageNo(pg))
	}
	if GetNextPage(pg) != SentinelEnd {
		t.Errorf("a fresh page should chain to nothing")
	}
	if GetNumRows(pg) != 0 || GetSlotCount(pg) != 0 {
		t.Errorf("a fresh page should have no rows and no slots")
	}
	if _, err := FirstRecord(pg); !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords on an empty page, got %v", err)
	}
}

func TestInsertGetDeleteRoundTrip(t *testing.T) {
	pg := newDataPage(t, 0)

	slot, err := InsertRecord(pg, []byte("row-one"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if slot != 0 {
		t.Fatalf("first insert should land on slot 0, got %d", slot)
	}

	rec, err := GetRecord(pg, slot)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if string(rec) != "row-one" {
		t.Fatalf("expected %q, got %q", "row-one", rec)
	}

	if err := DeleteRecord(pg, slot); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := GetRecord(pg, slot); !errors.Is(err, ErrInvalidSlotNo) {
		t.Fatalf("expected ErrInvalidSlotNo reading a tombstoned slot, got %v", err)
	}
	if IsSlotLive(pg, slot) {
		t.Fatalf("tombstoned slot must not report live")
	}
}

func TestDeletePreservesSurvivingSlotNumbers(t *testing.T) {
	pg := newDataPage(t, 0)

	s0, _ := InsertRecord(pg, []byte("a"))
	s1, _ := InsertRecord(pg, []byte("b"))
	s2, _ := InsertRecord(pg, []byte("c"))

	if err := DeleteRecord(pg, s1); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	// s0 and s2 must still resolve to their original bytes: deleting a
	// slot must never renumber the slots around it.
	rec0, err := GetRecord(pg, s0)
	if err != nil || string(rec0) != "a" {
		t.Fatalf("expected slot 0 unaffected, got %q, err=%v", rec0, err)
	}
	rec2, err := GetRecord(pg, s2)
	if err != nil || string(rec2) != "c" {
		t.Fatalf("expected slot 2 unaffected, got %q, err=%v", rec2, err)
	}
}

func TestInsertReusesTombstonedSlot(t *testing.T) {
	pg := newDataPage(t, 0)

	s0, _ := InsertRecord(pg, []byte("a"))
	InsertRecord(pg, []byte("b"))

	if err := DeleteRecord(pg, s0); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	before := GetSlotCount(pg)

	reused, err := InsertRecord(pg, []byte("z"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if reused != s0 {
		t.Fatalf("expected the tombstoned slot %d to be reused, got %d", s0, reused)
	}
	if GetSlotCount(pg) != before {
		t.Fatalf("reusing a tombstone must not grow the slot directory")
	}
}

func TestInsertRecordNoSpace(t *testing.T) {
	pg := newDataPage(t, 0)

	big := make([]byte, MaxRecordSize)
	if _, err := InsertRecord(pg, big); err != nil {
		t.Fatalf("a record of exactly MaxRecordSize must fit on an empty page: %v", err)
	}

	if _, err := InsertRecord(pg, []byte("no room left")); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace once the page is full, got %v", err)
	}
}

func TestFirstNextRecordSkipsTombstones(t *testing.T) {
	pg := newDataPage(t, 0)

	s0, _ := InsertRecord(pg, []byte("a"))
	s1, _ := InsertRecord(pg, []byte("b"))
	s2, _ := InsertRecord(pg, []byte("c"))
	DeleteRecord(pg, s1)

	first, err := FirstRecord(pg)
	if err != nil || first != s0 {
		t.Fatalf("expected first live slot %d, got %d, err=%v", s0, first, err)
	}

	next, err := NextRecord(pg, first)
	if err != nil || next != s2 {
		t.Fatalf("expected NextRecord to skip the tombstone and land on %d, got %d, err=%v", s2, next, err)
	}

	if _, err := NextRecord(pg, next); !errors.Is(err, ErrEndOfPage) {
		t.Fatalf("expected ErrEndOfPage after the last live slot, got %v", err)
	}
}

func TestGetDeleteInvalidSlotNo(t *testing.T) {
	pg := newDataPage(t, 0)

	if _, err := GetRecord(pg, 0); !errors.Is(err, ErrInvalidSlotNo) {
		t.Errorf("expected ErrInvalidSlotNo on an empty page, got %v", err)
	}
	if err := DeleteRecord(pg, 5); !errors.Is(err, ErrInvalidSlotNo) {
		t.Errorf("expected ErrInvalidSlotNo deleting an out-of-range slot, got %v", err)
	}
}

func TestSetNextPageMarksDirty(t *testing.T) {
	pg := newDataPage(t, 0)
	pg.IsDirty = false

	SetNextPage(pg, 42)
	if !pg.IsDirty {
		t.Errorf("SetNextPage must mark the page dirty")
	}
	if GetNextPage(pg) != 42 {
		t.Errorf("expected NextPage 42, got %d", GetNextPage(pg))
	}
}
