package tool_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/modelkit/toolcall/pkg/tool"
)

func TestBuildRequiresNameThenDescription(t *testing.T) {
	if _, err := tool.New().Build(); !errors.Is(err, tool.ErrNameNotSet) {
		t.Fatalf("no name: err = %v, want ErrNameNotSet", err)
	}
	// Name missing wins even when description is also missing.
	if _, err := tool.New().Description("d").Build(); !errors.Is(err, tool.ErrNameNotSet) {
		t.Fatalf("no name with description: err = %v, want ErrNameNotSet", err)
	}
	if _, err := tool.New().Name("n").Build(); !errors.Is(err, tool.ErrDescriptionNotSet) {
		t.Fatalf("no description: err = %v, want ErrDescriptionNotSet", err)
	}
}

func TestBuildZeroParameters(t *testing.T) {
	def, err := tool.New().Name("ping").Description("Liveness probe.").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	raw, err := json.Marshal(def.Function.Parameters)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `{"type":"object","properties":{},"required":[]}`; got != want {
		t.Fatalf("parameters = %s, want %s", got, want)
	}
}

func TestBuilderMixedParameters(t *testing.T) {
	def, err := tool.New().
		Name("demo").
		Description("Mixed parameters.").
		Required("x", "", "number").
		OptionalEnum("y", "", "a", "b").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := def.Function.Parameters
	want := map[string]tool.Parameter{
		"x": {Type: "number"},
		"y": {Type: "string", Enum: []string{"a", "b"}},
	}
	if !reflect.DeepEqual(p.Properties, want) {
		t.Fatalf("properties = %#v, want %#v", p.Properties, want)
	}
	if !reflect.DeepEqual(p.Required, []string{"x"}) {
		t.Fatalf("required = %v, want [x]", p.Required)
	}
}

func TestBuilderRequiredDedupe(t *testing.T) {
	def, err := tool.New().
		Name("demo").
		Description("Re-declared parameter.").
		Required("x", "first", "string").
		Required("x", "second", "number").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := def.Function.Parameters
	if !reflect.DeepEqual(p.Required, []string{"x"}) {
		t.Fatalf("required = %v, want a single x", p.Required)
	}
	if got := p.Properties["x"]; got.Type != "number" || got.Description != "second" {
		t.Fatalf("re-declaration did not overwrite the parameter: %#v", got)
	}
}

func TestBuildCopiesState(t *testing.T) {
	b := tool.New().Name("demo").Description("Snapshot semantics.").Required("x", "", "string")
	first, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b.Required("y", "", "string")
	if _, leaked := first.Function.Parameters.Properties["y"]; leaked {
		t.Fatal("later builder mutation leaked into a built tool")
	}
	if len(first.Function.Parameters.Required) != 1 {
		t.Fatalf("required = %v, want [x]", first.Function.Parameters.Required)
	}
}
