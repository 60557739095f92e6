package tool

// Call is a tool invocation as returned by the model. Arguments is the raw
// JSON argument object as a string, kept verbatim.
type Call struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function CallFunction `json:"function"`
}

// CallFunction names the tool and carries its serialized arguments.
type CallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewCall assembles a Call with the function type set.
func NewCall(id, name, arguments string) Call {
	return Call{
		ID:   id,
		Type: TypeFunction,
		Function: CallFunction{
			Name:      name,
			Arguments: arguments,
		},
	}
}

// Result is the outcome of one tool call, keyed back to the call by id.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}
