package catalog

import (
	"testing"

	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"
)

func weatherSpec(t *testing.T, cityDesc string) tool.Tool {
	t.Helper()
	spec, err := tool.New().
		Name("get_weather").
		Description("Look up the current weather for a city.").
		Required("city", cityDesc, schema.String).
		OptionalEnum("units", "Unit system to report in.", "celsius", "fahrenheit").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestStore_VersioningAndLint(t *testing.T) {
	s := NewStore()

	// lint failure: empty description
	bad := weatherSpec(t, "City name.")
	bad.Function.Description = ""
	if _, issues, err := s.Save(Definition{Spec: bad}); err == nil {
		t.Fatal("expected lint failure for missing description")
	} else if len(issues) == 0 {
		t.Fatal("expected issues")
	}

	v1, issues, err := s.Save(Definition{Spec: weatherSpec(t, "City name.")})
	if err != nil {
		t.Fatalf("save v1: %v (%v)", err, issues)
	}
	if v1.Name != "get_weather" || v1.Version != 1 {
		t.Fatalf("v1=%+v", v1)
	}

	v2, _, err := s.Save(Definition{Spec: weatherSpec(t, "City name, e.g. Paris.")})
	if err != nil {
		t.Fatal(err)
	}
	if v2.Version != 2 {
		t.Fatalf("v2 version=%d", v2.Version)
	}

	got, ok := s.Get("get_weather", 0)
	if !ok || got.Version != 2 {
		t.Fatalf("get latest=%+v ok=%v", got, ok)
	}
	got1, ok := s.Get("get_weather", 1)
	if !ok || got1.Version != 1 {
		t.Fatalf("get v1=%+v ok=%v", got1, ok)
	}
	if _, ok := s.Get("get_weather", 9); ok {
		t.Fatal("version 9 should not exist")
	}

	all := s.List("get_weather")
	if len(all) != 2 || all[0].Version != 1 || all[1].Version != 2 {
		t.Fatalf("list=%+v", all)
	}
}

func TestLintRules(t *testing.T) {
	spec := weatherSpec(t, "City name.")
	spec.Function.Parameters.Properties["mode"] = tool.Parameter{Type: schema.String, Enum: []string{}}
	spec.Function.Parameters.Required = append(spec.Function.Parameters.Required, "ghost")
	d := Definition{Name: "other_name", Spec: spec}

	issues := Lint(d)
	rules := make(map[string]string, len(issues))
	for _, is := range issues {
		rules[is.Rule] = is.Param
	}
	if _, ok := rules["name.mismatch"]; !ok {
		t.Fatalf("missing name.mismatch: %+v", issues)
	}
	if p := rules["param.enum.values"]; p != "mode" {
		t.Fatalf("param.enum.values param=%q: %+v", p, issues)
	}
	if p := rules["required.unknown"]; p != "ghost" {
		t.Fatalf("required.unknown param=%q: %+v", p, issues)
	}

	leaky := weatherSpec(t, "City name. aws_secret_access_key=AKIA...")
	found := false
	for _, is := range Lint(Definition{Spec: leaky}) {
		if is.Rule == "security.secrets" && is.Param == "city" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected security.secrets on city")
	}
}
