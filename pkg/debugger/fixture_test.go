package debugger_test

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/moontools/pkg/debugger"
)

const (
	idEventObject         debugger.TypeID = 200
	idDependencyObject    debugger.TypeID = 15
	idUIElement           debugger.TypeID = 16
	idFrameworkElement    debugger.TypeID = 52
	idCollection          debugger.TypeID = 95
	idTransformCollection debugger.TypeID = 107
)

func newTypeTable(t *testing.T) *debugger.MapTypeTable {
	t.Helper()
	table, err := debugger.NewMapTypeTable([]debugger.TypeRecord{
		{ID: idEventObject, Name: "EventObject"},
		{ID: idDependencyObject, Name: "DependencyObject", Parent: idEventObject},
		{ID: idUIElement, Name: "UIElement", Parent: idDependencyObject},
		{ID: idFrameworkElement, Name: "FrameworkElement", Parent: idUIElement},
		{ID: idCollection, Name: "Collection", Parent: idDependencyObject},
		{ID: idTransformCollection, Name: "TransformCollection", Parent: idCollection},
	})
	if err != nil {
		t.Fatalf("failed to build type table: %v", err)
	}
	return table
}

// block is a little-endian byte buffer for laying out fake process memory
type block []byte

func newBlock(size int) block { return make(block, size) }

func (b block) u32(off int, v uint32) block {
	binary.LittleEndian.PutUint32(b[off:], v)
	return b
}

func (b block) u64(off int, v uint64) block {
	binary.LittleEndian.PutUint64(b[off:], v)
	return b
}

func (b block) f64(off int, v float64) block {
	return b.u64(off, math.Float64bits(v))
}

func cstring(s string) block {
	return append(block(s), 0)
}

func value(kind debugger.Kind, null bool, payload uint64) block {
	b := newBlock(debugger.ValueSize).u32(0, uint32(kind)).u64(8, payload)
	if null {
		b.u32(4, 1)
	}
	return b
}

// Addresses of the fixture objects
const (
	addrElement    = 0x1000
	addrCollection = 0x2000
	addrHello      = 0x3000
	addrOpacity    = 0x3100
	addrProperty   = 0x6000
	addrWeakRef    = 0x7000
	addrColor      = 0x8000
	addrPoint      = 0x8100
	addrRect       = 0x8200
	addrDuration   = 0x8300
	addrKeyTime    = 0x8400
	addrRepeat     = 0x8500
	addrDoubles    = 0x8600
	addrPoints     = 0x8700
)

func newMemory() *debugger.SparseMemory {
	mem := debugger.NewSparseMemory()
	layout := debugger.DefaultLayout()

	mem.Map(addrElement, newBlock(64).u32(int(layout.ObjectTypeID), uint32(idFrameworkElement)))
	mem.Map(addrCollection, newBlock(64).
		u32(int(layout.ObjectTypeID), uint32(idTransformCollection)).
		u32(int(layout.CollectionCount), 3))
	mem.Map(addrHello, cstring("hello"))
	mem.Map(addrOpacity, cstring("Opacity"))
	mem.Map(addrProperty, newBlock(32).
		u32(int(layout.PropertyOwner), uint32(idUIElement)).
		u64(int(layout.PropertyName), addrOpacity))
	mem.Map(addrWeakRef, newBlock(8).u64(0, addrElement))

	mem.Map(addrColor, newBlock(32).f64(0, 1).f64(8, 0.5).f64(16, 0).f64(24, 1))
	mem.Map(addrPoint, newBlock(16).f64(0, 3).f64(8, -4.5))
	mem.Map(addrRect, newBlock(32).f64(0, 0).f64(8, 0).f64(16, 100).f64(24, 50))
	mem.Map(addrDuration, newBlock(16).u32(0, 0).u64(8, 15_000_000))
	mem.Map(addrKeyTime, newBlock(24).u32(0, 0).f64(8, 0.25))
	mem.Map(addrRepeat, newBlock(24).u32(0, 2))
	mem.Map(addrDoubles, newBlock(32).u32(0, 3).f64(8, 1).f64(16, 2).f64(24, 3.5))
	mem.Map(addrPoints, newBlock(40).u32(0, 2).f64(8, 1).f64(16, 2).f64(24, 3).f64(32, 4))
	return mem
}

// fakeSession is a Session over SparseMemory that records bindings and
// executed commands
type fakeSession struct {
	mem      debugger.Memory
	exprs    map[string]uint64
	bindings []uint64
	executed []string
	execErr  error
}

func (s *fakeSession) Evaluate(ctx context.Context, expr string) (uint64, error) {
	addr, ok := s.exprs[expr]
	if !ok {
		return 0, errors.New("No symbol in current context")
	}
	return addr, nil
}

func (s *fakeSession) ReadPointer(ctx context.Context, addr uint64) (uint64, error) {
	b, err := s.mem.ReadAt(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s *fakeSession) SetConvenienceVariable(ctx context.Context, name string, addr uint64) error {
	s.bindings = append(s.bindings, addr)
	return nil
}

func (s *fakeSession) Execute(ctx context.Context, command string) error {
	s.executed = append(s.executed, command)
	return s.execErr
}
