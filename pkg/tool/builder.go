package tool

import (
	"errors"
	"maps"
	"slices"

	"github.com/modelkit/toolcall/pkg/schema"
)

// Build failures. Name is checked before description.
var (
	ErrNameNotSet        = errors.New("tool: name not set")
	ErrDescriptionNotSet = errors.New("tool: description not set")
)

// Builder accumulates a tool definition parameter by parameter. Methods
// chain; the zero value is not usable, start with New. A Builder is for a
// single goroutine.
type Builder struct {
	name        string
	description string
	properties  map[string]Parameter
	required    []string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{properties: map[string]Parameter{}}
}

// Name sets the tool name. Repeat calls overwrite.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Description sets the tool description. Repeat calls overwrite.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Required adds a parameter and marks it required. Re-adding a name
// overwrites its spec without duplicating the required entry.
func (b *Builder) Required(name, description string, tag schema.Tag) *Builder {
	b.properties[name] = Parameter{Type: tag, Description: description}
	b.markRequired(name)
	return b
}

// Optional adds a parameter without marking it required.
func (b *Builder) Optional(name, description string, tag schema.Tag) *Builder {
	b.properties[name] = Parameter{Type: tag, Description: description}
	return b
}

// RequiredEnum adds a required string parameter constrained to values.
func (b *Builder) RequiredEnum(name, description string, values ...string) *Builder {
	b.properties[name] = Parameter{Type: schema.String, Description: description, Enum: slices.Clone(values)}
	b.markRequired(name)
	return b
}

// OptionalEnum adds an optional string parameter constrained to values.
func (b *Builder) OptionalEnum(name, description string, values ...string) *Builder {
	b.properties[name] = Parameter{Type: schema.String, Description: description, Enum: slices.Clone(values)}
	return b
}

func (b *Builder) markRequired(name string) {
	if slices.Contains(b.required, name) {
		return
	}
	b.required = append(b.required, name)
}

// Build finalizes the definition. The returned Tool owns copies of the
// accumulated state, so the Builder can keep accumulating afterwards.
func (b *Builder) Build() (Tool, error) {
	if b.name == "" {
		return Tool{}, ErrNameNotSet
	}
	if b.description == "" {
		return Tool{}, ErrDescriptionNotSet
	}
	props := maps.Clone(b.properties)
	if props == nil {
		props = map[string]Parameter{}
	}
	required := slices.Clone(b.required)
	if required == nil {
		required = []string{}
	}
	return Tool{
		Type: TypeFunction,
		Function: Function{
			Name:        b.name,
			Description: b.description,
			Parameters: Parameters{
				Type:       ObjectType,
				Properties: props,
				Required:   required,
			},
		},
	}, nil
}
