// Package schema derives compact type tags for tool parameters.
//
// The tag vocabulary is deliberately small and is not JSON Schema:
//
//	"string"      strings and []byte
//	"number"      every integer and float kind
//	"boolean"     bools
//	"T[]"         slices and arrays, where T is the element tag
//	"Map<K, V>"   maps, where K and V are the key and value tags
//
// Record types derive to an Object (field name to property), see ObjectOf.
// A type that wants a tag the kind rules cannot produce implements Tagger.
// Absence of a tag is a wiring mistake surfaced at registration time, not a
// runtime condition: the generic helpers panic, the reflect-typed functions
// return *UnsupportedTypeError.
package schema

import "reflect"

// Tag is a compact type label understood by chat-completion function schemas.
type Tag string

// Leaf tags.
const (
	String  Tag = "string"
	Number  Tag = "number"
	Boolean Tag = "boolean"
)

// Array returns the tag for a sequence of elem.
func Array(elem Tag) Tag { return elem + "[]" }

// MapOf returns the tag for a map from key to value tags. The single space
// after the comma is part of the wire format.
func MapOf(key, value Tag) Tag { return "Map<" + key + ", " + value + ">" }

// Tagger lets a type supply its own tag. It is consulted before the
// kind-based rules, so a named struct can participate in derivation.
type Tagger interface {
	SchemaTag() Tag
}

// UnsupportedTypeError reports a type the tag protocol cannot express.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == nil {
		return "schema: no type tag for <nil>"
	}
	return "schema: no type tag for " + e.Type.String()
}

var taggerType = reflect.TypeOf((*Tagger)(nil)).Elem()

// For returns the tag for T. It panics when T has no derivable tag; use it at
// registration time, where an unsupported type is a programming error.
func For[T any]() Tag {
	tag, err := TagOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return tag
}

// TagOf derives the tag for t.
//
// Pointers derive as their element type. []byte derives as "string" because
// encoding/json represents it as a base64 string, so that is the value shape a
// model must produce for the field to decode.
func TagOf(t reflect.Type) (Tag, error) {
	if t == nil {
		return "", &UnsupportedTypeError{}
	}
	if t.Implements(taggerType) {
		return reflect.Zero(t).Interface().(Tagger).SchemaTag(), nil
	}
	if reflect.PointerTo(t).Implements(taggerType) {
		return reflect.Zero(reflect.PointerTo(t)).Interface().(Tagger).SchemaTag(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Bool:
		return Boolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number, nil
	case reflect.Pointer:
		return TagOf(t.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return String, nil
		}
		elem, err := TagOf(t.Elem())
		if err != nil {
			return "", err
		}
		return Array(elem), nil
	case reflect.Array:
		elem, err := TagOf(t.Elem())
		if err != nil {
			return "", err
		}
		return Array(elem), nil
	case reflect.Map:
		key, err := TagOf(t.Key())
		if err != nil {
			return "", err
		}
		value, err := TagOf(t.Elem())
		if err != nil {
			return "", err
		}
		return MapOf(key, value), nil
	default:
		return "", &UnsupportedTypeError{Type: t}
	}
}
