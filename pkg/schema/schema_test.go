package schema_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/modelkit/toolcall/pkg/schema"
)

func TestTagOfLeaves(t *testing.T) {
	if got := schema.For[string](); got != schema.String {
		t.Fatalf("string tag = %q, want %q", got, schema.String)
	}
	if got := schema.For[bool](); got != schema.Boolean {
		t.Fatalf("bool tag = %q, want %q", got, schema.Boolean)
	}
	for _, typ := range []reflect.Type{
		reflect.TypeOf(int(0)),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int64(0)),
		reflect.TypeOf(uint(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
	} {
		got, err := schema.TagOf(typ)
		if err != nil {
			t.Fatalf("TagOf(%s): %v", typ, err)
		}
		if got != schema.Number {
			t.Errorf("TagOf(%s) = %q, want %q", typ, got, schema.Number)
		}
	}
}

func TestTagOfComposites(t *testing.T) {
	cases := []struct {
		typ  reflect.Type
		want schema.Tag
	}{
		{reflect.TypeOf([]string{}), "string[]"},
		{reflect.TypeOf([][]int{}), "number[][]"},
		{reflect.TypeOf([2]bool{}), "boolean[]"},
		{reflect.TypeOf([]byte{}), "string"},
		{reflect.TypeOf(map[string]int{}), "Map<string, number>"},
		{reflect.TypeOf(map[string][]string{}), "Map<string, string[]>"},
		{reflect.TypeOf(map[int]map[string]bool{}), "Map<number, Map<string, boolean>>"},
		{reflect.TypeOf((*float64)(nil)), "number"},
		{reflect.TypeOf((*[]string)(nil)), "string[]"},
	}
	for _, tc := range cases {
		got, err := schema.TagOf(tc.typ)
		if err != nil {
			t.Fatalf("TagOf(%s): %v", tc.typ, err)
		}
		if got != tc.want {
			t.Errorf("TagOf(%s) = %q, want %q", tc.typ, got, tc.want)
		}
	}
}

type celsius float64

func (celsius) SchemaTag() schema.Tag { return "number" }

type coords struct{ Lat, Lon float64 }

func (*coords) SchemaTag() schema.Tag { return "string" }

func TestTagger(t *testing.T) {
	if got := schema.For[celsius](); got != "number" {
		t.Fatalf("celsius tag = %q, want %q", got, "number")
	}
	// Pointer-receiver implementors derive both directly and through
	// composites.
	if got := schema.For[coords](); got != "string" {
		t.Fatalf("coords tag = %q, want %q", got, "string")
	}
	if got := schema.For[[]coords](); got != "string[]" {
		t.Fatalf("[]coords tag = %q, want %q", got, "string[]")
	}
}

func TestTagOfUnsupported(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(make(chan int)),
		reflect.TypeOf(func() {}),
		reflect.TypeOf(complex128(0)),
		reflect.TypeOf(uintptr(0)),
		reflect.TypeOf(struct{ A int }{}),
	} {
		_, err := schema.TagOf(typ)
		if err == nil {
			t.Fatalf("TagOf(%s): expected error", typ)
		}
		var ute *schema.UnsupportedTypeError
		if !errors.As(err, &ute) {
			t.Fatalf("TagOf(%s): error %v is not *UnsupportedTypeError", typ, err)
		}
		if ute.Type != typ {
			t.Errorf("UnsupportedTypeError.Type = %s, want %s", ute.Type, typ)
		}
	}
}

func TestForPanicsOnUnsupported(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("For[chan int] did not panic")
		}
	}()
	schema.For[chan int]()
}
