package heapfile

import (
	"bytes"
	"encoding/binary"
	"math"
)

// AttrType names the wire type a scan's filter attribute is interpreted
// as.
type AttrType int

const (
	INTEGER AttrType = iota
	FLOAT
	STRING
)

func (t AttrType) String() string {
	switch t {
	case INTEGER:
		return "INTEGER"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Op is a relational operator a scan's filter compares the record
// attribute against.
type Op int

const (
	LT Op = iota
	LTE
	EQ
	GTE
	GT
	NE
)

func (o Op) String() string {
	switch o {
	case LT:
		return "LT"
	case LTE:
		return "LTE"
	case EQ:
		return "EQ"
	case GTE:
		return "GTE"
	case GT:
		return "GT"
	case NE:
		return "NE"
	default:
		return "UNKNOWN"
	}
}

// filterSpec is the validated, active predicate of a Scan. A nil filter
// (via StartScan with filter == nil) matches every record.
type filterSpec struct {
	offset int
	length int
	typ    AttrType
	value  []byte
	op     Op
	active bool
}

// validateFilterParms applies the parameter checks StartScan must perform
// before accepting a filter.
func validateFilterParms(offset, length int, typ AttrType, op Op) bool {
	if offset < 0 || length < 1 {
		return false
	}
	if typ != STRING && typ != INTEGER && typ != FLOAT {
		return false
	}
	if typ == INTEGER && length != 4 {
		return false
	}
	if typ == FLOAT && length != 4 {
		return false
	}
	switch op {
	case LT, LTE, EQ, GTE, GT, NE:
	default:
		return false
	}
	return true
}

// matchRec evaluates the filter against a record's bytes. An inactive
// filter matches everything.
func (f filterSpec) matchRec(rec []byte) bool {
	if !f.active {
		return true
	}
	if f.offset+f.length > len(rec) {
		return false
	}

	attr := rec[f.offset : f.offset+f.length]
	var diff float64

	switch f.typ {
	case INTEGER:
		a := int32(binary.LittleEndian.Uint32(attr))
		v := int32(binary.LittleEndian.Uint32(f.value))
		diff = float64(int64(a) - int64(v))
	case FLOAT:
		a := math.Float32frombits(binary.LittleEndian.Uint32(attr))
		v := math.Float32frombits(binary.LittleEndian.Uint32(f.value))
		diff = float64(a - v)
	case STRING:
		diff = float64(bytes.Compare(attr, f.value))
	}

	switch f.op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	}
	return false
}
