package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Property describes one field of an object: either a leaf tag with an
// optional description, or a nested object for fields that are records
// themselves.
type Property struct {
	Type        Tag
	Description string
	Fields      Object
}

// MarshalJSON emits {"type":...,"description"?} for leaves and the plain
// field map for nested objects.
func (p Property) MarshalJSON() ([]byte, error) {
	if p.Fields != nil {
		return json.Marshal(p.Fields)
	}
	type leaf struct {
		Type        Tag    `json:"type"`
		Description string `json:"description,omitempty"`
	}
	return json.Marshal(leaf{Type: p.Type, Description: p.Description})
}

// Object maps field names to their properties.
type Object map[string]Property

// ObjectFor derives the Object for struct type T.
func ObjectFor[T any]() (Object, error) {
	return ObjectOf(reflect.TypeOf((*T)(nil)).Elem())
}

// MustObjectFor is ObjectFor for registration-time use; it panics on types
// that do not derive.
func MustObjectFor[T any]() Object {
	obj, err := ObjectFor[T]()
	if err != nil {
		panic(err)
	}
	return obj
}

// ObjectOf derives an Object from a struct type. Field names come from the
// json tag when present (first comma segment) and the Go field name
// otherwise; json:"-" and unexported fields are skipped. Descriptions come
// from the description struct tag. Anonymous embedded structs flatten into
// the parent, with the parent's own fields taking precedence on collision.
func ObjectOf(t reflect.Type) (Object, error) {
	if t == nil {
		return nil, &UnsupportedTypeError{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &UnsupportedTypeError{Type: t}
	}
	obj := Object{}
	if err := addFields(obj, t); err != nil {
		return nil, err
	}
	return obj, nil
}

func addFields(dst Object, t reflect.Type) error {
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
		if name == "" {
			continue
		}
		prop, err := propertyOf(t, f)
		if err != nil {
			return err
		}
		dst[name] = prop
	}
	for _, ft := range embedded {
		sub := Object{}
		if err := addFields(sub, ft); err != nil {
			return err
		}
		for name, prop := range sub {
			if _, taken := dst[name]; !taken {
				dst[name] = prop
			}
		}
	}
	return nil
}

func propertyOf(owner reflect.Type, f reflect.StructField) (Property, error) {
	tag, err := TagOf(f.Type)
	if err == nil {
		return Property{Type: tag, Description: f.Tag.Get("description")}, nil
	}

	ft := f.Type
	for ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft.Kind() == reflect.Struct {
		fields, ferr := ObjectOf(ft)
		if ferr == nil {
			return Property{Fields: fields}, nil
		}
	}
	return Property{}, fmt.Errorf("schema: field %s.%s: %w", owner.Name(), f.Name, err)
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
