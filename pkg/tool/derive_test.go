package tool_test

import (
	"reflect"
	"testing"

	"github.com/modelkit/toolcall/pkg/tool"
)

type forecastArgs struct {
	City  string  `json:"city" description:"City name."`
	Days  *int    `json:"days" description:"Days ahead, defaults to 1."`
	Units string  `json:"units" enum:"metric,imperial"`
	Wind  *string `json:"wind" enum:"kmh,ms"`
}

func TestDerive(t *testing.T) {
	def, err := tool.Derive[forecastArgs]("forecast", "Weather forecast.")
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	p := def.Function.Parameters
	want := map[string]tool.Parameter{
		"city":  {Type: "string", Description: "City name."},
		"days":  {Type: "number", Description: "Days ahead, defaults to 1."},
		"units": {Type: "string", Enum: []string{"metric", "imperial"}},
		"wind":  {Type: "string", Enum: []string{"kmh", "ms"}},
	}
	if !reflect.DeepEqual(p.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", p.Properties, want)
	}
	// Value fields in declaration order; pointer fields stay optional.
	if !reflect.DeepEqual(p.Required, []string{"city", "units"}) {
		t.Fatalf("required = %v, want [city units]", p.Required)
	}
}

func TestDeriveRejectsNestedRecords(t *testing.T) {
	type inner struct{ A string }
	type args struct {
		Inner inner `json:"inner"`
	}
	if _, err := tool.Derive[args]("x", "y"); err == nil {
		t.Fatal("expected error for nested record field")
	}
}

func TestDeriveRejectsNonStruct(t *testing.T) {
	if _, err := tool.Derive[int]("x", "y"); err == nil {
		t.Fatal("expected error for non-struct type")
	}
}

func TestDeriveRejectsEnumOnNonString(t *testing.T) {
	type args struct {
		N int `json:"n" enum:"1,2"`
	}
	if _, err := tool.Derive[args]("x", "y"); err == nil {
		t.Fatal("expected error for enum tag on a number field")
	}
}
