package debugger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/utils/safe"
)

const (
	// RootTypeName is the base class of every reference-counted object
	RootTypeName = "EventObject"
	// CollectionTypeName is the base class of the collection types
	CollectionTypeName = "Collection"

	valueTypeName    = "Value"
	propertyTypeName = "DependencyProperty"
)

var weakRefPattern = regexp.MustCompile(`^WeakRef<.+>$`)

// Layout holds field offsets of the inspected build. The defaults match an
// x86-64 build of the plugin.
type Layout struct {
	ObjectTypeID    uint64 // EventObject: runtime type id (u32)
	CollectionCount uint64 // Collection: element count (i32)
	WeakRefTarget   uint64 // WeakRef<T>: target pointer
	PropertyOwner   uint64 // DependencyProperty: owner type id (u32)
	PropertyName    uint64 // DependencyProperty: name (char*)
	ListFirst       uint64 // List: first node pointer
	NodeNext        uint64 // List::Node: next node pointer
}

// DefaultLayout returns the offsets of the stock x86-64 build
func DefaultLayout() Layout {
	return Layout{
		ObjectTypeID:    16,
		CollectionCount: 48,
		WeakRefTarget:   0,
		PropertyOwner:   8,
		PropertyName:    16,
		ListFirst:       0,
		NodeNext:        0,
	}
}

// Handle is an opaque reference to a value in the inspected process, as
// handed over by the host debugger
type Handle interface {
	// Address is where the value (or, for pointers, the pointee) lives
	Address() uint64
	// TypeTag is the static type name the debugger reports
	TypeTag() string
	// FirstFieldType is the first declared field's type after resolving
	// typedefs, or "" when the type has no fields
	FirstFieldType() string
}

// Symbol is a plain Handle
type Symbol struct {
	Addr       uint64
	Tag        string
	FirstField string
}

func (s Symbol) Address() uint64        { return s.Addr }
func (s Symbol) TypeTag() string        { return s.Tag }
func (s Symbol) FirstFieldType() string { return s.FirstField }

// Shape is the classification of a handle
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeObject
	ShapeWeakRef
	ShapeValue
	ShapeProperty
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeWeakRef:
		return "weakref"
	case ShapeValue:
		return "value"
	case ShapeProperty:
		return "property"
	default:
		return "unknown"
	}
}

// normalizeTag strips qualifiers, pointer markers and the namespace so
// "const Moonlight::Value *" and "Value" compare equal
func normalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "const ")
	tag = strings.TrimRight(tag, " *&")
	tag = strings.TrimPrefix(tag, "Moonlight::")
	return tag
}

// Classify decides which printer applies to h
func Classify(h Handle) Shape {
	if normalizeTag(h.FirstFieldType()) == RootTypeName {
		return ShapeObject
	}

	tag := normalizeTag(h.TypeTag())
	switch {
	case weakRefPattern.MatchString(tag):
		return ShapeWeakRef
	case tag == valueTypeName:
		return ShapeValue
	case tag == propertyTypeName:
		return ShapeProperty
	default:
		return ShapeUnknown
	}
}

// Printer renders one value for display
type Printer interface {
	String() (string, error)
}

type printerFunc func() (string, error)

func (f printerFunc) String() (string, error) { return f() }

// Inspector reads and formats values of the inspected process
type Inspector struct {
	mem    Memory
	types  TypeTable
	layout Layout
}

// InspectorOption is a functional option for Inspector
type InspectorOption func(*Inspector)

// WithLayout overrides the default field offsets
func WithLayout(layout Layout) InspectorOption {
	return func(in *Inspector) {
		in.layout = layout
	}
}

// NewInspector creates an Inspector over mem with the given type table
func NewInspector(mem Memory, types TypeTable, opts ...InspectorOption) *Inspector {
	in := &Inspector{
		mem:    mem,
		types:  types,
		layout: DefaultLayout(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Layout returns the offsets in use
func (in *Inspector) Layout() Layout {
	return in.layout
}

// ObjectType reads the runtime type id of the object at addr
func (in *Inspector) ObjectType(addr uint64) (TypeID, error) {
	if addr == 0 {
		return 0, ErrNullPointer
	}
	id, err := readU32(in.mem, addr+in.layout.ObjectTypeID)
	if err != nil {
		return 0, err
	}
	return TypeID(id), nil
}

// IsA reports whether the object at addr derives from the named type
func (in *Inspector) IsA(addr uint64, typeName string) (bool, error) {
	target, ok := in.types.LookupName(typeName)
	if !ok {
		return false, goerr.New("unknown type name", goerr.V("name", typeName))
	}
	id, err := in.ObjectType(addr)
	if err != nil {
		return false, err
	}
	return IsAssignableFrom(in.types, id, target.ID), nil
}

func (in *Inspector) typeName(id TypeID) string {
	if r, ok := in.types.Lookup(id); ok {
		return r.Name
	}
	return fmt.Sprintf("type#%d", id)
}

// FormatObject renders the EventObject-derived object at addr
func (in *Inspector) FormatObject(addr uint64) (string, error) {
	if addr == 0 {
		return "NULL", nil
	}

	id, err := in.ObjectType(addr)
	if err != nil {
		return "", err
	}
	name := in.typeName(id)

	if coll, ok := in.types.LookupName(CollectionTypeName); ok && IsAssignableFrom(in.types, id, coll.ID) {
		count, err := readI32(in.mem, addr+in.layout.CollectionCount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s@0x%x count=%d", name, addr, count), nil
	}

	return fmt.Sprintf("%s@0x%x", name, addr), nil
}

func (in *Inspector) formatWeakRef(addr uint64) (string, error) {
	target, err := readU64(in.mem, addr+in.layout.WeakRefTarget)
	if err != nil {
		return "", err
	}
	s, err := in.FormatObject(target)
	if err != nil {
		return "", err
	}
	return "weak " + s, nil
}

func (in *Inspector) formatProperty(addr uint64) (string, error) {
	owner, err := readU32(in.mem, addr+in.layout.PropertyOwner)
	if err != nil {
		return "", err
	}
	namePtr, err := readU64(in.mem, addr+in.layout.PropertyName)
	if err != nil {
		return "", err
	}
	name, err := ReadCString(in.mem, namePtr, MaxCString)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DependencyProperty(%s.%s)", in.typeName(TypeID(owner)), name), nil
}

// PrinterFor returns a printer for h, or nil when h is not recognized
func (in *Inspector) PrinterFor(h Handle) Printer {
	addr := h.Address()
	switch Classify(h) {
	case ShapeObject:
		return printerFunc(func() (string, error) { return in.FormatObject(addr) })
	case ShapeWeakRef:
		return printerFunc(func() (string, error) { return in.formatWeakRef(addr) })
	case ShapeValue:
		return printerFunc(func() (string, error) {
			v, err := in.ReadValue(addr)
			if err != nil {
				return "", err
			}
			return in.FormatValue(v)
		})
	case ShapeProperty:
		return printerFunc(func() (string, error) { return in.formatProperty(addr) })
	default:
		return nil
	}
}

// Render formats h. The second result is false when no printer applies or
// the printer failed; callers then fall back to the debugger's raw display.
func (in *Inspector) Render(ctx context.Context, h Handle) (string, bool) {
	p := in.PrinterFor(h)
	if p == nil {
		return "", false
	}
	return safe.Try(ctx, p.String)
}
