package debugger_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/moontools/pkg/debugger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		h    debugger.Symbol
		want debugger.Shape
	}{
		{
			name: "object via first field",
			h:    debugger.Symbol{Tag: "Moonlight::UIElement *", FirstField: "Moonlight::EventObject"},
			want: debugger.ShapeObject,
		},
		{
			name: "weak reference",
			h:    debugger.Symbol{Tag: "Moonlight::WeakRef<Moonlight::Surface>", FirstField: "Moonlight::Surface *"},
			want: debugger.ShapeWeakRef,
		},
		{
			name: "tagged value",
			h:    debugger.Symbol{Tag: "const Moonlight::Value *", FirstField: "Moonlight::Type::Kind"},
			want: debugger.ShapeValue,
		},
		{
			name: "property descriptor",
			h:    debugger.Symbol{Tag: "DependencyProperty", FirstField: "int"},
			want: debugger.ShapeProperty,
		},
		{
			name: "unrelated",
			h:    debugger.Symbol{Tag: "GList *", FirstField: "gpointer"},
			want: debugger.ShapeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, debugger.Classify(tt.h), tt.want)
		})
	}
}

func TestInspector_Render(t *testing.T) {
	ctx := context.Background()
	in := debugger.NewInspector(newMemory(), newTypeTable(t))

	tests := []struct {
		name string
		h    debugger.Symbol
		want string
	}{
		{
			name: "plain object",
			h:    debugger.Symbol{Addr: addrElement, Tag: "FrameworkElement *", FirstField: "EventObject"},
			want: "FrameworkElement@0x1000",
		},
		{
			name: "collection",
			h:    debugger.Symbol{Addr: addrCollection, Tag: "Collection *", FirstField: "EventObject"},
			want: "TransformCollection@0x2000 count=3",
		},
		{
			name: "weak reference",
			h:    debugger.Symbol{Addr: addrWeakRef, Tag: "WeakRef<FrameworkElement>"},
			want: "weak FrameworkElement@0x1000",
		},
		{
			name: "property",
			h:    debugger.Symbol{Addr: addrProperty, Tag: "DependencyProperty *"},
			want: "DependencyProperty(UIElement.Opacity)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := in.Render(ctx, tt.h)
			gt.True(t, ok)
			gt.Equal(t, got, tt.want)
		})
	}

	t.Run("unknown shape has no printer", func(t *testing.T) {
		_, ok := in.Render(ctx, debugger.Symbol{Addr: addrElement, Tag: "int"})
		gt.False(t, ok)
	})

	t.Run("unreadable memory degrades", func(t *testing.T) {
		_, ok := in.Render(ctx, debugger.Symbol{Addr: 0xdead0000, Tag: "UIElement *", FirstField: "EventObject"})
		gt.False(t, ok)
	})
}

func TestInspector_FormatValue(t *testing.T) {
	in := debugger.NewInspector(newMemory(), newTypeTable(t))

	tests := []struct {
		name string
		v    debugger.Value
		want string
	}{
		{"bool", mustValue(t, debugger.KindBool, false, 1), "BOOL true"},
		{"double", mustValue(t, debugger.KindDouble, false, 0x3ff8000000000000), "DOUBLE 1.5"},
		{"int32", mustValue(t, debugger.KindInt32, false, 0xffffffff), "INT32 -1"},
		{"int64", mustValue(t, debugger.KindInt64, false, 1<<40), "INT64 1099511627776"},
		{"uint64", mustValue(t, debugger.KindUInt64, false, 42), "UINT64 42"},
		{"string", mustValue(t, debugger.KindString, false, addrHello), `STRING "hello"`},
		{"null string pointer", mustValue(t, debugger.KindString, false, 0), "STRING (null)"},
		{"null flag", mustValue(t, debugger.KindString, true, addrHello), "STRING null"},
		{"color", mustValue(t, debugger.KindColor, false, addrColor), "COLOR Color(r=1, g=0.5, b=0, a=1)"},
		{"point", mustValue(t, debugger.KindPoint, false, addrPoint), "POINT Point(3, -4.5)"},
		{"rect", mustValue(t, debugger.KindRect, false, addrRect), "RECT Rect(x=0, y=0, w=100, h=50)"},
		{"duration", mustValue(t, debugger.KindDuration, false, addrDuration), "DURATION Duration(1.5s)"},
		{"keytime", mustValue(t, debugger.KindKeyTime, false, addrKeyTime), "KEYTIME KeyTime(25%)"},
		{"repeat", mustValue(t, debugger.KindRepeatBehavior, false, addrRepeat), "REPEATBEHAVIOR RepeatBehavior(Forever)"},
		{"double array", mustValue(t, debugger.KindDoubleArray, false, addrDoubles), "DOUBLE_ARRAY [3]{1, 2, 3.5}"},
		{"point array", mustValue(t, debugger.KindPointArray, false, addrPoints), "POINT_ARRAY [2]{(1, 2), (3, 4)}"},
		{"object kind", mustValue(t, debugger.Kind(idFrameworkElement), false, addrElement), "FrameworkElement@0x1000"},
		{"unhandled kind", mustValue(t, debugger.Kind(4242), false, 0), "<kind 4242>"},
		{"invalid kind", mustValue(t, debugger.KindInvalid, false, 0), "<kind 0>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := in.FormatValue(tt.v)
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
		})
	}

	t.Run("dangling pointer is an error", func(t *testing.T) {
		_, err := in.FormatValue(mustValue(t, debugger.KindColor, false, 0xbad000))
		gt.Error(t, err)
	})
}

func TestInspector_RenderValueInMemory(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	mem.Map(0x9000, value(debugger.KindString, false, addrHello))
	in := debugger.NewInspector(mem, newTypeTable(t))

	got, ok := in.Render(ctx, debugger.Symbol{Addr: 0x9000, Tag: "Value"})
	gt.True(t, ok)
	gt.Equal(t, got, `STRING "hello"`)
}

func TestInspector_IsA(t *testing.T) {
	in := debugger.NewInspector(newMemory(), newTypeTable(t))

	ok, err := in.IsA(addrCollection, "Collection")
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = in.IsA(addrElement, "Collection")
	gt.NoError(t, err)
	gt.False(t, ok)

	_, err = in.IsA(addrElement, "NoSuchType")
	gt.Error(t, err)
}

func mustValue(t *testing.T, kind debugger.Kind, null bool, payload uint64) debugger.Value {
	t.Helper()
	v, err := debugger.DecodeValue(value(kind, null, payload))
	if err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	return v
}
