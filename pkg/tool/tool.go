// Package tool defines the chat-completions function-calling wire shapes:
// the tool schema sent to the model, the tool calls it returns, and the
// results sent back. The shapes are the external contract; field names and
// presence rules are exact.
package tool

import (
	"encoding/json"

	"github.com/modelkit/toolcall/pkg/schema"
)

// Wire constants.
const (
	TypeFunction = "function"
	ObjectType   = "object"
)

// Tool is one entry in the "tools" array of a chat-completions request.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function carries a tool's name, description, and parameter schema.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the object schema for a tool's arguments. Properties and
// Required are always present on the wire, {} and [] when empty.
type Parameters struct {
	Type       string               `json:"type"`
	Properties map[string]Parameter `json:"properties"`
	Required   []string             `json:"required"`
}

// MarshalJSON upholds the presence rules for values assembled by hand:
// type defaults to "object", nil properties and required collapse to their
// empty forms.
func (p Parameters) MarshalJSON() ([]byte, error) {
	type wire Parameters
	w := wire(p)
	if w.Type == "" {
		w.Type = ObjectType
	}
	if w.Properties == nil {
		w.Properties = map[string]Parameter{}
	}
	if w.Required == nil {
		w.Required = []string{}
	}
	return json.Marshal(w)
}

// Parameter describes a single named argument. Enum forces the value set;
// enum parameters are always string-typed.
type Parameter struct {
	Type        schema.Tag `json:"type"`
	Description string     `json:"description,omitempty"`
	Enum        []string   `json:"enum,omitempty"`
}
