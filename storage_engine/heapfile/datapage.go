package heapfile

import (
	"encoding/binary"

	"heaplayer/storage_engine/page"
)

/*
This file contains standalone functions operating on *page.Page for data
pages. Functions take *page.Page as their first argument since methods
cannot be defined on types from an external package.

Data page binary layout (all values little-endian):

	Offset  Size  Field
	──────────────────────────────────────────────────────
	0       8     NextPage        int64   — SentinelEnd at chain tail
	8       4     PageNo          uint32  — this page's local number
	12      2     RecordEndPtr    uint16  — first free byte after last record
	14      2     SlotRegionStart uint16  — first byte of the slot directory
	16      2     NumRows         uint16  — live records
	18      2     NumRowsFree     uint16  — tombstoned slots
	20      2     SlotCount       uint16  — total slot entries (live + tombstone)
	──────────────────────────────────────────────────────
	22            HeapHeaderSize

Standard slotted-page layout:

	[ header 22B ][ records → ][ free space ][ ← slot dir ]
	0            22            ^             ^             4096
	                           RecordEndPtr  SlotRegionStart

	Records grow FORWARD from HeapHeaderSize.
	Slot directory grows BACKWARD from PageSize.
	Free space is the gap between RecordEndPtr and SlotRegionStart.

A slot entry is 4 bytes: [ Offset uint16 ][ Length uint16 ]. Offset is the
absolute byte offset of the record data; Length 0 marks a tombstone.
Slot i lives at PageSize - (i+1)*SlotSize, so slot 0 is the last 4 bytes
of the page, slot 1 the 4 before it, and so on. Slot numbers never move:
there is no compaction, so a deleted slot is only left as a tombstone
that a later InsertRecord may reuse, without breaking rids that still
reference the surviving slots.
*/
const (
	dpOffNextPage        = 0  // int64  (8)
	dpOffPageNo          = 8  // uint32 (4)
	dpOffRecordEndPtr    = 12 // uint16 (2)
	dpOffSlotRegionStart = 14 // uint16 (2)
	dpOffNumRows         = 16 // uint16 (2)
	dpOffNumRowsFree     = 18 // uint16 (2)
	dpOffSlotCount       = 20 // uint16 (2)

	// HeapHeaderSize is the fixed data-page header size in bytes.
	HeapHeaderSize = 22

	// SlotSize is the byte size of one slot directory entry.
	SlotSize = 4

	// MaxRecordSize is the largest record InsertRecord can ever place on
	// a freshly initialized page: the whole page minus the header and
	// the one slot entry the record itself would consume.
	MaxRecordSize = page.PageSize - HeapHeaderSize - SlotSize
)

// InitDataPage stamps a fresh, empty data-page header into pg.Data. This
// is the page-layer collaborator's init(pageNo) operation.
func InitDataPage(pg *page.Page, pageNo uint32) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	nextPage := int64(SentinelEnd)
	binary.LittleEndian.PutUint64(pg.Data[dpOffNextPage:], uint64(nextPage))
	binary.LittleEndian.PutUint32(pg.Data[dpOffPageNo:], pageNo)
	binary.LittleEndian.PutUint16(pg.Data[dpOffRecordEndPtr:], HeapHeaderSize)
	binary.LittleEndian.PutUint16(pg.Data[dpOffSlotRegionStart:], page.PageSize)
	binary.LittleEndian.PutUint16(pg.Data[dpOffNumRows:], 0)
	binary.LittleEndian.PutUint16(pg.Data[dpOffNumRowsFree:], 0)
	binary.LittleEndian.PutUint16(pg.Data[dpOffSlotCount:], 0)
	pg.IsDirty = true
}

// ─────────────────────────────────────────────────────────────────────────
// Header accessors
// ─────────────────────────────────────────────────────────────────────────

func GetNextPage(pg *page.Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg.Data[dpOffNextPage:]))
}

func SetNextPage(pg *page.Page, pageNo int64) {
	binary.LittleEndian.PutUint64(pg.Data[dpOffNextPage:], uint64(pageNo))
	pg.IsDirty = true
}

func GetPageNo(pg *page.Page) uint32 {
	return binary.LittleEndian.Uint32(pg.Data[dpOffPageNo:])
}

func GetRecordEndPtr(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[dpOffRecordEndPtr:])
}

func setRecordEndPtr(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[dpOffRecordEndPtr:], v)
}

func GetSlotRegionStart(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[dpOffSlotRegionStart:])
}

func setSlotRegionStart(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[dpOffSlotRegionStart:], v)
}

func GetNumRows(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[dpOffNumRows:])
}

func setNumRows(pg *page.Page, n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[dpOffNumRows:], n)
}

func GetNumRowsFree(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[dpOffNumRowsFree:])
}

func setNumRowsFree(pg *page.Page, n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[dpOffNumRowsFree:], n)
}

func GetSlotCount(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[dpOffSlotCount:])
}

func setSlotCount(pg *page.Page, n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[dpOffSlotCount:], n)
}

// FreeSpace returns the bytes available for a new record, including the
// slot entry it would consume.
func FreeSpace(pg *page.Page) int {
	available := int(GetSlotRegionStart(pg)) - int(GetRecordEndPtr(pg)) - SlotSize
	if available < 0 {
		return 0
	}
	return available
}

// ─────────────────────────────────────────────────────────────────────────
// Slot directory
// ─────────────────────────────────────────────────────────────────────────

func slotByteOffset(i uint16) int {
	return page.PageSize - (int(i)+1)*SlotSize
}

func readSlot(pg *page.Page, i uint16) (offset, length uint16) {
	base := slotByteOffset(i)
	return binary.LittleEndian.Uint16(pg.Data[base:]),
		binary.LittleEndian.Uint16(pg.Data[base+2:])
}

func writeSlot(pg *page.Page, i uint16, offset, length uint16) {
	base := slotByteOffset(i)
	binary.LittleEndian.PutUint16(pg.Data[base:], offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:], length)
}

// IsSlotLive reports whether slot i holds a record rather than a
// tombstone or being out of range.
func IsSlotLive(pg *page.Page, i uint16) bool {
	if i >= GetSlotCount(pg) {
		return false
	}
	_, length := readSlot(pg, i)
	return length != 0
}

// ─────────────────────────────────────────────────────────────────────────
// Record operations — the page-layer collaborator contract
// ─────────────────────────────────────────────────────────────────────────

// InsertRecord writes data into the page and returns the slot it landed
// in. Returns ErrNoSpace if there is insufficient room; the caller (the
// insert view) is responsible for allocating a new page and retrying.
func InsertRecord(pg *page.Page, data []byte) (uint16, error) {
	recordLen := uint16(len(data))
	if FreeSpace(pg) < int(recordLen) {
		return 0, ErrNoSpace
	}

	// Reuse a tombstoned slot if one exists, so the slot directory does
	// not grow every time a deleted record is replaced.
	slotIdx := GetSlotCount(pg)
	for i := uint16(0); i < GetSlotCount(pg); i++ {
		if _, l := readSlot(pg, i); l == 0 {
			slotIdx = i
			break
		}
	}

	recordOffset := GetRecordEndPtr(pg)
	copy(pg.Data[recordOffset:], data)
	setRecordEndPtr(pg, recordOffset+recordLen)
	writeSlot(pg, slotIdx, recordOffset, recordLen)

	if slotIdx == GetSlotCount(pg) {
		setSlotRegionStart(pg, GetSlotRegionStart(pg)-SlotSize)
		setSlotCount(pg, GetSlotCount(pg)+1)
	} else {
		setNumRowsFree(pg, GetNumRowsFree(pg)-1)
	}
	setNumRows(pg, GetNumRows(pg)+1)
	pg.IsDirty = true

	return slotIdx, nil
}

// GetRecord returns a copy of the record at slotIdx.
func GetRecord(pg *page.Page, slotIdx uint16) ([]byte, error) {
	if slotIdx >= GetSlotCount(pg) {
		return nil, ErrInvalidSlotNo
	}
	offset, length := readSlot(pg, slotIdx)
	if length == 0 {
		return nil, ErrInvalidSlotNo
	}
	out := make([]byte, length)
	copy(out, pg.Data[offset:offset+length])
	return out, nil
}

// DeleteRecord tombstones slotIdx. The record's bytes stay in place and
// their space is never reclaimed — a later insert may reuse the slot
// entry but writes its bytes at RecordEndPtr — and the slot entry itself
// survives so other rids on the page keep their identifiers.
func DeleteRecord(pg *page.Page, slotIdx uint16) error {
	if slotIdx >= GetSlotCount(pg) {
		return ErrInvalidSlotNo
	}
	if _, length := readSlot(pg, slotIdx); length == 0 {
		return ErrInvalidSlotNo
	}
	writeSlot(pg, slotIdx, 0, 0)
	setNumRows(pg, GetNumRows(pg)-1)
	setNumRowsFree(pg, GetNumRowsFree(pg)+1)
	pg.IsDirty = true
	return nil
}

// FirstRecord returns the slot of the first live record on the page.
func FirstRecord(pg *page.Page) (uint16, error) {
	count := GetSlotCount(pg)
	for i := uint16(0); i < count; i++ {
		if IsSlotLive(pg, i) {
			return i, nil
		}
	}
	return 0, ErrNoRecords
}

// NextRecord returns the slot of the next live record following prev.
func NextRecord(pg *page.Page, prev uint16) (uint16, error) {
	count := GetSlotCount(pg)
	for i := prev + 1; i < count; i++ {
		if IsSlotLive(pg, i) {
			return i, nil
		}
	}
	return 0, ErrEndOfPage
}
