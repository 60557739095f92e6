package tool

import (
	"fmt"

	"github.com/modelkit/toolcall/pkg/schema"
)

// Derive builds a complete Tool from struct type T: each field becomes a
// parameter named by its json tag, value fields required and pointer fields
// optional, with description and enum struct tags carried through. It is the
// registration-time companion to HandlerOf-style typed handlers, so argument
// schema and argument decoding come from the same type.
func Derive[T any](name, description string) (Tool, error) {
	fields, err := schema.FieldsFor[T]()
	if err != nil {
		return Tool{}, fmt.Errorf("tool: derive %q: %w", name, err)
	}
	b := New().Name(name).Description(description)
	for _, f := range fields {
		switch {
		case f.Enum != nil && f.Optional:
			b.OptionalEnum(f.Name, f.Description, f.Enum...)
		case f.Enum != nil:
			b.RequiredEnum(f.Name, f.Description, f.Enum...)
		case f.Optional:
			b.Optional(f.Name, f.Description, f.Tag)
		default:
			b.Required(f.Name, f.Description, f.Tag)
		}
	}
	return b.Build()
}

// MustDerive is Derive for package-level tool definitions; it panics on
// types that do not derive.
func MustDerive[T any](name, description string) Tool {
	t, err := Derive[T](name, description)
	if err != nil {
		panic(err)
	}
	return t
}
