package heapfile

import (
	"encoding/binary"

	"heaplayer/storage_engine/page"
)

/*
Header page binary layout (all values little-endian). Exactly one per
file, always local page 0.

	Offset  Size  Field
	───────────────────────────────────────
	0       64    FileName  — null-padded, informational only
	64      8     FirstPage int64
	72      8     LastPage  int64
	80      8     PageCnt   int64
	88      8     RecCnt    int64
	───────────────────────────────────────
	96            HeaderFixedSize
*/
const (
	hdrOffFileName  = 0
	hdrFileNameSize = 64
	hdrOffFirstPage = 64
	hdrOffLastPage  = 72
	hdrOffPageCnt   = 80
	hdrOffRecCnt    = 88

	HeaderFixedSize = 96
)

// InitHeaderPage stamps a fresh header into pg.Data. Callers set
// FirstPage/LastPage/PageCnt/RecCnt afterward once the initial data page
// has been allocated.
func InitHeaderPage(pg *page.Page, fileName string) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	n := copy(pg.Data[hdrOffFileName:hdrOffFileName+hdrFileNameSize], fileName)
	_ = n
	SetFirstPage(pg, SentinelEnd)
	SetLastPage(pg, SentinelEnd)
	SetPageCnt(pg, 0)
	SetRecCnt(pg, 0)
	pg.IsDirty = true
}

func GetFileName(pg *page.Page) string {
	raw := pg.Data[hdrOffFileName : hdrOffFileName+hdrFileNameSize]
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	return string(raw[:end])
}

func GetFirstPage(pg *page.Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg.Data[hdrOffFirstPage:]))
}

func SetFirstPage(pg *page.Page, pageNo int64) {
	binary.LittleEndian.PutUint64(pg.Data[hdrOffFirstPage:], uint64(pageNo))
}

func GetLastPage(pg *page.Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg.Data[hdrOffLastPage:]))
}

func SetLastPage(pg *page.Page, pageNo int64) {
	binary.LittleEndian.PutUint64(pg.Data[hdrOffLastPage:], uint64(pageNo))
}

func GetPageCnt(pg *page.Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg.Data[hdrOffPageCnt:]))
}

func SetPageCnt(pg *page.Page, n int64) {
	binary.LittleEndian.PutUint64(pg.Data[hdrOffPageCnt:], uint64(n))
}

func GetRecCnt(pg *page.Page) int64 {
	return int64(binary.LittleEndian.Uint64(pg.Data[hdrOffRecCnt:]))
}

func SetRecCnt(pg *page.Page, n int64) {
	binary.LittleEndian.PutUint64(pg.Data[hdrOffRecCnt:], uint64(n))
}
