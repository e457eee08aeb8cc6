package page

import "testing"

func TestPageLocking(t *testing.T) {
	p := &Page{ID: 7, FileID: 1, Data: make([]byte, PageSize)}

	p.Lock()
	p.PinCount++
	p.Unlock()

	p.RLock()
	if p.PinCount != 1 {
		t.Errorf("expected PinCount 1, got %d", p.PinCount)
	}
	p.RUnlock()

	if len(p.Data) != PageSize {
		t.Fatalf("expected Data length %d, got %d", PageSize, len(p.Data))
	}
	if p.IsDirty {
		t.Errorf("freshly constructed page should not be dirty")
	}
}

func TestPageSizeConstant(t *testing.T) {
	if PageSize != 4096 {
		t.Fatalf("PageSize changed to %d, callers throughout heapfile assume 4096", PageSize)
	}
}
