package debugger

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the discriminant of a tagged Value. Kinds from KindDependencyObject
// upward double as type ids of the object model.
type Kind int32

const (
	KindInvalid Kind = iota
	KindBool
	KindDouble
	KindUInt64
	KindInt32
	KindString
	KindColor
	KindPoint
	KindRect
	KindRepeatBehavior
	KindDuration
	KindInt64
	KindDoubleArray
	KindPointArray
	KindKeyTime
	KindDependencyObject
)

var kindNames = [...]string{
	KindInvalid:          "INVALID",
	KindBool:             "BOOL",
	KindDouble:           "DOUBLE",
	KindUInt64:           "UINT64",
	KindInt32:            "INT32",
	KindString:           "STRING",
	KindColor:            "COLOR",
	KindPoint:            "POINT",
	KindRect:             "RECT",
	KindRepeatBehavior:   "REPEATBEHAVIOR",
	KindDuration:         "DURATION",
	KindInt64:            "INT64",
	KindDoubleArray:      "DOUBLE_ARRAY",
	KindPointArray:       "POINT_ARRAY",
	KindKeyTime:          "KEYTIME",
	KindDependencyObject: "DEPENDENCY_OBJECT",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind#" + strconv.Itoa(int(k))
}

const (
	// ValueSize is sizeof(Value): kind i32, flags u32, 8 byte payload
	ValueSize = 16

	valueFlagNull = 1 << 0

	// maxArrayItems caps how many array elements are shown
	maxArrayItems = 8
)

// Value is a decoded tagged union. Payload holds either an inline scalar or a
// pointer to an out-of-line struct, depending on Kind.
type Value struct {
	Kind    Kind
	Null    bool
	Payload [8]byte
}

// DecodeValue decodes the in-memory representation of a Value
func DecodeValue(b []byte) (Value, error) {
	if len(b) < ValueSize {
		return Value{}, fmt.Errorf("value needs %d bytes, got %d", ValueSize, len(b))
	}

	v := Value{
		Kind: Kind(int32(binary.LittleEndian.Uint32(b[0:4]))),
		Null: binary.LittleEndian.Uint32(b[4:8])&valueFlagNull != 0,
	}
	copy(v.Payload[:], b[8:16])
	return v, nil
}

func (v Value) u64() uint64  { return binary.LittleEndian.Uint64(v.Payload[:]) }
func (v Value) i32() int32   { return int32(binary.LittleEndian.Uint32(v.Payload[:4])) }
func (v Value) ptr() uint64  { return v.u64() }
func (v Value) f64() float64 { return math.Float64frombits(v.u64()) }

type valueFormatter func(in *Inspector, v Value) (string, error)

var valueFormatters = map[Kind]valueFormatter{
	KindBool:           formatBool,
	KindDouble:         func(_ *Inspector, v Value) (string, error) { return formatFloat(v.f64()), nil },
	KindUInt64:         func(_ *Inspector, v Value) (string, error) { return strconv.FormatUint(v.u64(), 10), nil },
	KindInt32:          func(_ *Inspector, v Value) (string, error) { return strconv.Itoa(int(v.i32())), nil },
	KindInt64:          func(_ *Inspector, v Value) (string, error) { return strconv.FormatInt(int64(v.u64()), 10), nil },
	KindString:         formatString,
	KindColor:          formatColor,
	KindPoint:          formatPoint,
	KindRect:           formatRect,
	KindDuration:       formatDuration,
	KindRepeatBehavior: formatRepeatBehavior,
	KindKeyTime:        formatKeyTime,
	KindDoubleArray:    formatDoubleArray,
	KindPointArray:     formatPointArray,
}

// FormatValue renders v. Kinds without a formatter fall back to their raw tag.
func (in *Inspector) FormatValue(v Value) (string, error) {
	if v.Null {
		return v.Kind.String() + " null", nil
	}

	if f, ok := valueFormatters[v.Kind]; ok {
		s, err := f(in, v)
		if err != nil {
			return "", err
		}
		return v.Kind.String() + " " + s, nil
	}

	// object kinds are type ids
	if _, ok := in.types.Lookup(TypeID(v.Kind)); ok && v.Kind >= KindDependencyObject {
		return in.FormatObject(v.ptr())
	}

	return fmt.Sprintf("<kind %d>", int32(v.Kind)), nil
}

// ReadValue decodes the Value stored at addr
func (in *Inspector) ReadValue(addr uint64) (Value, error) {
	b, err := in.mem.ReadAt(addr, ValueSize)
	if err != nil {
		return Value{}, err
	}
	return DecodeValue(b)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatFloats(fs ...float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ", ")
}

// timeSpan is in 100ns ticks
func formatTimeSpan(ticks int64) string {
	return (time.Duration(ticks) * 100).String()
}

func formatBool(_ *Inspector, v Value) (string, error) {
	return strconv.FormatBool(v.i32() != 0), nil
}

func formatString(in *Inspector, v Value) (string, error) {
	if v.ptr() == 0 {
		return "(null)", nil
	}
	s, err := ReadCString(in.mem, v.ptr(), MaxCString)
	if err != nil {
		return "", err
	}
	return strconv.Quote(s), nil
}

func formatColor(in *Inspector, v Value) (string, error) {
	c, err := readF64s(in.mem, v.ptr(), 4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Color(r=%s, g=%s, b=%s, a=%s)",
		formatFloat(c[0]), formatFloat(c[1]), formatFloat(c[2]), formatFloat(c[3])), nil
}

func formatPoint(in *Inspector, v Value) (string, error) {
	p, err := readF64s(in.mem, v.ptr(), 2)
	if err != nil {
		return "", err
	}
	return "Point(" + formatFloats(p...) + ")", nil
}

func formatRect(in *Inspector, v Value) (string, error) {
	r, err := readF64s(in.mem, v.ptr(), 4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Rect(x=%s, y=%s, w=%s, h=%s)",
		formatFloat(r[0]), formatFloat(r[1]), formatFloat(r[2]), formatFloat(r[3])), nil
}

// Duration: kind i32, timespan i64 at +8
func formatDuration(in *Inspector, v Value) (string, error) {
	k, err := readI32(in.mem, v.ptr())
	if err != nil {
		return "", err
	}
	switch k {
	case 0:
		ts, err := readU64(in.mem, v.ptr()+8)
		if err != nil {
			return "", err
		}
		return "Duration(" + formatTimeSpan(int64(ts)) + ")", nil
	case 1:
		return "Duration(Automatic)", nil
	case 2:
		return "Duration(Forever)", nil
	default:
		return fmt.Sprintf("Duration(<kind %d>)", k), nil
	}
}

// RepeatBehavior: kind i32, count f64 at +8, duration i64 at +16
func formatRepeatBehavior(in *Inspector, v Value) (string, error) {
	k, err := readI32(in.mem, v.ptr())
	if err != nil {
		return "", err
	}
	switch k {
	case 0:
		count, err := readF64(in.mem, v.ptr()+8)
		if err != nil {
			return "", err
		}
		return "RepeatBehavior(" + formatFloat(count) + "x)", nil
	case 1:
		ts, err := readU64(in.mem, v.ptr()+16)
		if err != nil {
			return "", err
		}
		return "RepeatBehavior(" + formatTimeSpan(int64(ts)) + ")", nil
	case 2:
		return "RepeatBehavior(Forever)", nil
	default:
		return fmt.Sprintf("RepeatBehavior(<kind %d>)", k), nil
	}
}

// KeyTime: kind i32, percent f64 at +8, timespan i64 at +16
func formatKeyTime(in *Inspector, v Value) (string, error) {
	k, err := readI32(in.mem, v.ptr())
	if err != nil {
		return "", err
	}
	switch k {
	case 0:
		pct, err := readF64(in.mem, v.ptr()+8)
		if err != nil {
			return "", err
		}
		return "KeyTime(" + formatFloat(pct*100) + "%)", nil
	case 1:
		ts, err := readU64(in.mem, v.ptr()+16)
		if err != nil {
			return "", err
		}
		return "KeyTime(" + formatTimeSpan(int64(ts)) + ")", nil
	case 2:
		return "KeyTime(Uniform)", nil
	case 3:
		return "KeyTime(Paced)", nil
	default:
		return fmt.Sprintf("KeyTime(<kind %d>)", k), nil
	}
}

// arrays: count i32, refcount i32, elements at +8
func readArray(in *Inspector, addr uint64, width int) (int, []float64, error) {
	count, err := readI32(in.mem, addr)
	if err != nil {
		return 0, nil, err
	}
	if count < 0 {
		return 0, nil, fmt.Errorf("negative array count %d", count)
	}
	shown := int(count)
	if shown > maxArrayItems {
		shown = maxArrayItems
	}
	vals, err := readF64s(in.mem, addr+8, shown*width)
	if err != nil {
		return 0, nil, err
	}
	return int(count), vals, nil
}

func formatDoubleArray(in *Inspector, v Value) (string, error) {
	count, vals, err := readArray(in, v.ptr(), 1)
	if err != nil {
		return "", err
	}
	s := fmt.Sprintf("[%d]{%s", count, formatFloats(vals...))
	if count > len(vals) {
		s += ", ..."
	}
	return s + "}", nil
}

func formatPointArray(in *Inspector, v Value) (string, error) {
	count, vals, err := readArray(in, v.ptr(), 2)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(vals)/2)
	for i := 0; i+1 < len(vals); i += 2 {
		parts = append(parts, "("+formatFloats(vals[i], vals[i+1])+")")
	}
	s := fmt.Sprintf("[%d]{%s", count, strings.Join(parts, ", "))
	if count > len(parts) {
		s += ", ..."
	}
	return s + "}", nil
}
