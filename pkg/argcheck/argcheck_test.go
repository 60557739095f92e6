package argcheck_test

import (
	"testing"

	"github.com/modelkit/toolcall/pkg/argcheck"
	"github.com/modelkit/toolcall/pkg/tool"
)

func weatherParams(t *testing.T) tool.Parameters {
	t.Helper()
	def, err := tool.New().
		Name("get_weather").
		Description("Current weather.").
		Required("city", "City name.", "string").
		Optional("days", "Days ahead.", "number").
		RequiredEnum("units", "", "metric", "imperial").
		Optional("tags", "", "string[]").
		Optional("labels", "", "Map<string, number>").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return def.Function.Parameters
}

func TestValidateAccepts(t *testing.T) {
	v, err := argcheck.Compile(weatherParams(t))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ok := map[string]any{
		"city":   "Oslo",
		"days":   2,
		"units":  "metric",
		"tags":   []string{"a", "b"},
		"labels": map[string]float64{"x": 1},
	}
	if err := v.Validate(ok); err != nil {
		t.Fatalf("valid arguments rejected: %v", err)
	}
	// Stray keys pass; the projection does not close the object.
	withExtra := map[string]any{"city": "Oslo", "units": "metric", "debug": true}
	if err := v.Validate(withExtra); err != nil {
		t.Fatalf("extra property rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	v, err := argcheck.Compile(weatherParams(t))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	cases := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{"units": "metric"}},
		{"wrong type", map[string]any{"city": 7, "units": "metric"}},
		{"enum violation", map[string]any{"city": "Oslo", "units": "kelvin"}},
		{"array item type", map[string]any{"city": "Oslo", "units": "metric", "tags": []any{1}}},
		{"map value type", map[string]any{"city": "Oslo", "units": "metric", "labels": map[string]any{"x": "y"}}},
	}
	for _, tc := range cases {
		if err := v.Validate(tc.args); err == nil {
			t.Errorf("%s: accepted %v", tc.name, tc.args)
		}
	}
}

func TestForRegistry(t *testing.T) {
	ping, err := tool.New().Name("ping").Description("Liveness.").Build()
	if err != nil {
		t.Fatal(err)
	}
	m, err := argcheck.ForRegistry([]tool.Tool{ping})
	if err != nil {
		t.Fatalf("ForRegistry: %v", err)
	}
	if _, ok := m["ping"]; !ok {
		t.Fatalf("validator missing for ping: %v", m)
	}
	if err := m["ping"].Validate(map[string]any{}); err != nil {
		t.Fatalf("empty arguments rejected for parameterless tool: %v", err)
	}
}
