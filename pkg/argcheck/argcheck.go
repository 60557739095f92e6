// Package argcheck validates tool-call arguments before dispatch. It
// projects the compact parameter tags into standard JSON Schema and compiles
// the result once per tool, so a dispatcher can reject malformed arguments
// without invoking the handler.
package argcheck

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"
)

// Project translates a tool's parameter object into a JSON Schema. The
// projection checks types, required names, and enum membership; it does not
// forbid extra properties, models routinely send stray keys.
func Project(p tool.Parameters) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(p.Properties))
	for name, param := range p.Properties {
		s := projectTag(param.Type)
		s.Description = param.Description
		if len(param.Enum) > 0 {
			s.Enum = make([]any, len(param.Enum))
			for i, v := range param.Enum {
				s.Enum[i] = v
			}
		}
		props[name] = s
	}
	out := &jsonschema.Schema{Type: "object", Properties: props}
	if len(p.Required) > 0 {
		out.Required = p.Required
	}
	return out
}

func projectTag(t schema.Tag) *jsonschema.Schema {
	switch t {
	case schema.String:
		return &jsonschema.Schema{Type: "string"}
	case schema.Number:
		return &jsonschema.Schema{Type: "number"}
	case schema.Boolean:
		return &jsonschema.Schema{Type: "boolean"}
	}
	s := string(t)
	if elem, ok := strings.CutSuffix(s, "[]"); ok {
		return &jsonschema.Schema{Type: "array", Items: projectTag(schema.Tag(elem))}
	}
	if inner, ok := strings.CutPrefix(s, "Map<"); ok && strings.HasSuffix(inner, ">") {
		// Keys of a JSON object are strings either way; only the value
		// schema constrains anything.
		_, value := splitMapTag(strings.TrimSuffix(inner, ">"))
		return &jsonschema.Schema{Type: "object", AdditionalProperties: projectTag(schema.Tag(value))}
	}
	// Unknown tags project to the empty schema and accept anything.
	return &jsonschema.Schema{}
}

// splitMapTag splits "K, V" at the top-level comma, tolerating nested
// Map<...> in the value position.
func splitMapTag(s string) (key, value string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return s[:i], strings.TrimPrefix(s[i+1:], " ")
			}
		}
	}
	return s, ""
}

// Validator checks decoded argument payloads against one tool's compiled
// schema.
type Validator struct {
	sch *jsv.Schema
}

// Compile projects and compiles the parameter schema for repeated use.
func Compile(p tool.Parameters) (*Validator, error) {
	raw, err := json.Marshal(Project(p))
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	c := jsv.NewCompiler()
	if err := c.AddResource("mem://arguments.json", doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile("mem://arguments.json")
	if err != nil {
		return nil, err
	}
	return &Validator{sch: sch}, nil
}

// Validate checks data, which may be any Go value; it is genericized through
// JSON before validation.
func (v *Validator) Validate(data any) error {
	if v == nil || v.sch == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	return v.sch.Validate(generic)
}

// Map holds compiled validators keyed by tool name.
type Map map[string]*Validator

// ForRegistry compiles a validator for every definition.
func ForRegistry(defs []tool.Tool) (Map, error) {
	m := make(Map, len(defs))
	for _, def := range defs {
		v, err := Compile(def.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("argcheck: compile %q: %w", def.Function.Name, err)
		}
		m[def.Function.Name] = v
	}
	return m, nil
}
