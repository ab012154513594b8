package debugger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrUnmapped is returned when an address is not readable
	ErrUnmapped = errors.New("address is not mapped")
	// ErrNullPointer is returned when a required pointer is NULL
	ErrNullPointer = errors.New("null pointer")
	// ErrUnterminated is returned when a C string exceeds the read limit
	ErrUnterminated = errors.New("string is not terminated within limit")
)

// Memory reads bytes out of the inspected process
type Memory interface {
	ReadAt(addr uint64, n int) ([]byte, error)
}

// MaxCString bounds C string reads so garbage pointers cannot stall a printer
const MaxCString = 4096

func readU32(mem Memory, addr uint64) (uint32, error) {
	b, err := mem.ReadAt(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readI32(mem Memory, addr uint64) (int32, error) {
	v, err := readU32(mem, addr)
	return int32(v), err
}

func readU64(mem Memory, addr uint64) (uint64, error) {
	b, err := mem.ReadAt(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func readF64(mem Memory, addr uint64) (float64, error) {
	v, err := readU64(mem, addr)
	return math.Float64frombits(v), err
}

func readF64s(mem Memory, addr uint64, n int) ([]float64, error) {
	b, err := mem.ReadAt(addr, n*8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

// ReadCString reads a NUL-terminated string of at most max bytes
func ReadCString(mem Memory, addr uint64, max int) (string, error) {
	if addr == 0 {
		return "", ErrNullPointer
	}

	buf := make([]byte, 0, 32)
	for i := 0; i < max; i++ {
		b, err := mem.ReadAt(addr+uint64(i), 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return "", ErrUnterminated
}

type region struct {
	base uint64
	data []byte
}

// SparseMemory is a Memory made of disjoint mapped regions, as found in a
// core file or a captured snapshot
type SparseMemory struct {
	regions []region
}

// NewSparseMemory returns an empty memory image
func NewSparseMemory() *SparseMemory {
	return &SparseMemory{}
}

// Map places data at base. Regions must not overlap.
func (m *SparseMemory) Map(base uint64, data []byte) {
	m.regions = append(m.regions, region{base: base, data: data})
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].base < m.regions[j].base
	})
}

// ReadAt implements Memory. A read must fall entirely inside one region.
func (m *SparseMemory) ReadAt(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read size %d", n)
	}

	i := sort.Search(len(m.regions), func(i int) bool {
		return m.regions[i].base > addr
	}) - 1
	if i < 0 {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr)
	}

	r := m.regions[i]
	off := addr - r.base
	if off+uint64(n) > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: 0x%x+%d", ErrUnmapped, addr, n)
	}
	return r.data[off : off+uint64(n)], nil
}
