// Package registry binds tool definitions to handlers and dispatches
// batches of tool calls against them. A Registry is constructed explicitly
// and passed to whatever needs it; there is no process-global instance.
package registry

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelkit/toolcall/pkg/errmodel"
	"github.com/modelkit/toolcall/pkg/tool"
)

// Handler executes one tool call. Call produces the call's Result itself,
// success or tool-level error text; the error return is reserved for
// argument decode failures and infrastructure faults, which a dispatcher
// turns into an error-content Result for that call.
type Handler interface {
	Definition() tool.Tool
	Call(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error)
}

type funcHandler struct {
	def tool.Tool
	fn  func(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error)
}

func (h funcHandler) Definition() tool.Tool { return h.def }

func (h funcHandler) Call(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error) {
	return h.fn(ctx, callID, args)
}

// HandlerFunc binds a definition to a raw handler function.
func HandlerFunc(def tool.Tool, fn func(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error)) Handler {
	return funcHandler{def: def, fn: fn}
}

// HandlerOf binds a definition to a typed function: the raw argument payload
// decodes into T before fn runs, and fn's string return becomes the result
// content. An empty payload decodes to the zero T.
func HandlerOf[T any](def tool.Tool, fn func(ctx context.Context, callID string, in T) (string, error)) Handler {
	name := def.Function.Name
	return funcHandler{def: def, fn: func(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error) {
		var in T
		if s := strings.TrimSpace(string(args)); s != "" {
			if err := json.Unmarshal([]byte(s), &in); err != nil {
				return tool.Result{}, errmodel.New(errmodel.CategoryValidation, "decode_failed",
					"arguments do not decode", map[string]any{"tool": name, "call_id": callID}, err)
			}
		}
		content, err := fn(ctx, callID, in)
		if err != nil {
			return tool.Result{}, err
		}
		return tool.Result{ToolCallID: callID, Content: content}, nil
	}}
}
