package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Field is one struct field as a flat parameter list consumes it: wire name,
// derived tag, and the modifiers read from struct tags. Pointer fields are
// optional; value fields are required.
type Field struct {
	Name        string
	Tag         Tag
	Description string
	Enum        []string
	Optional    bool
}

// FieldsFor enumerates the derivable fields of struct type T.
func FieldsFor[T any]() ([]Field, error) {
	return Fields(reflect.TypeOf((*T)(nil)).Elem())
}

// Fields enumerates a struct type's fields in declaration order, embedded
// structs flattened after the fields of the level that embeds them. Naming
// and skipping follow ObjectOf. The enum struct tag (comma-separated values)
// is only meaningful on fields whose tag derives to "string"; any field the
// tag protocol cannot express as a leaf is an error, nested records do not
// flatten into parameters.
func Fields(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, &UnsupportedTypeError{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &UnsupportedTypeError{Type: t}
	}
	return appendFieldList(nil, t, map[string]bool{})
}

func appendFieldList(dst []Field, t reflect.Type, seen map[string]bool) ([]Field, error) {
	var embedded []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Tag.Get("json") == "" {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !isTagger(ft) {
				embedded = append(embedded, ft)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		name := fieldName(f)
		if name == "" || seen[name] {
			continue
		}
		tag, err := TagOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: field %s.%s: %w", t.Name(), f.Name, err)
		}
		fld := Field{
			Name:        name,
			Tag:         tag,
			Description: f.Tag.Get("description"),
			Optional:    f.Type.Kind() == reflect.Pointer,
		}
		if enum, ok := f.Tag.Lookup("enum"); ok {
			if tag != String {
				return nil, fmt.Errorf("schema: field %s.%s: enum tag on %q field", t.Name(), f.Name, tag)
			}
			fld.Enum = strings.Split(enum, ",")
		}
		seen[name] = true
		dst = append(dst, fld)
	}
	for _, ft := range embedded {
		var err error
		dst, err = appendFieldList(dst, ft, seen)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func isTagger(t reflect.Type) bool {
	return t.Implements(taggerType) || reflect.PointerTo(t).Implements(taggerType)
}
