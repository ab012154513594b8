package debugger

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// TypeID is a runtime type id of the inspected object model. 0 means none.
type TypeID uint32

// TypeRecord is one entry of the inspected process's type table
type TypeRecord struct {
	ID     TypeID
	Name   string
	Parent TypeID
}

// TypeTable maps type ids to their metadata
type TypeTable interface {
	Lookup(id TypeID) (TypeRecord, bool)
	LookupName(name string) (TypeRecord, bool)
	Len() int
}

// MapTypeTable is an in-memory TypeTable
type MapTypeTable struct {
	byID   map[TypeID]TypeRecord
	byName map[string]TypeID
}

// NewMapTypeTable builds a table. Records with id 0 are rejected since 0
// terminates parent chains.
func NewMapTypeTable(records []TypeRecord) (*MapTypeTable, error) {
	t := &MapTypeTable{
		byID:   make(map[TypeID]TypeRecord, len(records)),
		byName: make(map[string]TypeID, len(records)),
	}

	for _, r := range records {
		if r.ID == 0 {
			return nil, goerr.New("type id 0 is reserved", goerr.V("name", r.Name))
		}
		if prev, ok := t.byID[r.ID]; ok {
			return nil, goerr.New("duplicate type id",
				goerr.V("id", r.ID),
				goerr.V("first", prev.Name),
				goerr.V("second", r.Name))
		}
		t.byID[r.ID] = r
		if r.Name != "" {
			t.byName[r.Name] = r.ID
		}
	}
	return t, nil
}

// Lookup implements TypeTable
func (t *MapTypeTable) Lookup(id TypeID) (TypeRecord, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// LookupName implements TypeTable
func (t *MapTypeTable) LookupName(name string) (TypeRecord, bool) {
	id, ok := t.byName[name]
	if !ok {
		return TypeRecord{}, false
	}
	return t.byID[id], true
}

// Len implements TypeTable
func (t *MapTypeTable) Len() int {
	return len(t.byID)
}

// IsAssignableFrom reports whether a value of type id can be used where
// target is expected, i.e. id equals target or target is one of its
// ancestors. The walk ends at id 0 or at an id missing from the table, and
// gives up after table.Len()+1 hops so a corrupted, cyclic table cannot hang
// the caller.
func IsAssignableFrom(table TypeTable, id, target TypeID) bool {
	if id == target {
		return true
	}

	limit := table.Len() + 1
	for hops := 0; id != 0 && hops < limit; hops++ {
		r, ok := table.Lookup(id)
		if !ok {
			return false
		}
		id = r.Parent
		if id == target && id != 0 {
			return true
		}
	}
	return false
}

// Ancestors returns the parent chain of id, starting with id itself
func Ancestors(table TypeTable, id TypeID) ([]TypeRecord, error) {
	var chain []TypeRecord
	limit := table.Len() + 1
	for id != 0 {
		if len(chain) >= limit {
			return chain, goerr.New("type hierarchy contains a cycle", goerr.V("id", id))
		}
		r, ok := table.Lookup(id)
		if !ok {
			return chain, goerr.New("unknown type id", goerr.V("id", id))
		}
		chain = append(chain, r)
		id = r.Parent
	}
	return chain, nil
}

const (
	// TypeRecordSize is the size of one record in the inspected process's type
	// array: id u32, parent u32, name char*
	TypeRecordSize = 16

	// MaxTypeRecords caps the record count accepted by ReadTypeTable
	MaxTypeRecords = 1 << 16
)

// ReadTypeTable reads count records of the fixed-size type array at base.
// count usually comes from the inspected process itself, so it is checked
// against MaxTypeRecords before anything is read.
func ReadTypeTable(mem Memory, base uint64, count int) (*MapTypeTable, error) {
	if count < 0 || count > MaxTypeRecords {
		return nil, goerr.New("type record count out of range",
			goerr.V("count", count),
			goerr.V("max", MaxTypeRecords))
	}

	var records []TypeRecord
	for i := 0; i < count; i++ {
		addr := base + uint64(i)*TypeRecordSize

		id, err := readU32(mem, addr)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read type id", goerr.V("index", i))
		}
		if id == 0 {
			// unused slot
			continue
		}
		parent, err := readU32(mem, addr+4)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read parent id", goerr.V("index", i))
		}
		namePtr, err := readU64(mem, addr+8)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read name pointer", goerr.V("index", i))
		}

		name := fmt.Sprintf("type#%d", id)
		if namePtr != 0 {
			name, err = ReadCString(mem, namePtr, MaxCString)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read type name", goerr.V("index", i))
			}
		}

		records = append(records, TypeRecord{ID: TypeID(id), Name: name, Parent: TypeID(parent)})
	}

	return NewMapTypeTable(records)
}
