package heapfile

import "errors"

// Sentinel errors surfaced by this layer. Callers distinguish them with
// errors.Is; lower-layer failures are wrapped with %w so identity checks
// still succeed through the wrapping.
var (
	// ErrFileExists is returned by Create when a file of that name
	// already exists.
	ErrFileExists = errors.New("heapfile: file already exists")

	// ErrBadScanParm is returned by StartScan for an invalid filter
	// configuration.
	ErrBadScanParm = errors.New("heapfile: invalid scan parameters")

	// ErrInvalidRecLen is returned by InsertRecord when the record can
	// never fit on any page.
	ErrInvalidRecLen = errors.New("heapfile: record too large for a page")

	// ErrFileEOF is returned by ScanNext once the chain is exhausted.
	ErrFileEOF = errors.New("heapfile: scan exhausted")

	// ErrNoRecords is returned by the page layer when a page has no live
	// records to start iteration from.
	ErrNoRecords = errors.New("heapfile: page has no records")

	// ErrInvalidSlotNo is returned by the page layer for an out-of-range
	// or tombstoned slot.
	ErrInvalidSlotNo = errors.New("heapfile: invalid slot number")

	// ErrNoSpace is returned by the page layer when a record does not
	// fit in the remaining free space of a page.
	ErrNoSpace = errors.New("heapfile: page has no space")

	// ErrEndOfPage is returned by the page layer when iteration reaches
	// the last slot.
	ErrEndOfPage = errors.New("heapfile: end of page")
)
