// Package model defines the chat-completion caller contract used to expose
// registered tools to a provider and get tool calls back, plus a factory
// registry for provider construction by name.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelkit/toolcall/pkg/tool"
)

// Turn is one conversation turn. Assistant turns may carry the tool calls
// the model requested; tool turns carry the results being sent back.
type Turn struct {
	Role    string // "system", "user", "assistant", or "tool"
	Content string
	Calls   []tool.Call
	Results []tool.Result
}

// System returns a system turn.
func System(content string) Turn { return Turn{Role: "system", Content: content} }

// User returns a user turn.
func User(content string) Turn { return Turn{Role: "user", Content: content} }

// Assistant returns an assistant turn, echoing back any calls the model made.
func Assistant(content string, calls ...tool.Call) Turn {
	return Turn{Role: "assistant", Content: content, Calls: calls}
}

// ToolResults returns a tool turn carrying dispatch results.
func ToolResults(results ...tool.Result) Turn { return Turn{Role: "tool", Results: results} }

// Usage is the provider-reported token accounting, zero when unavailable.
type Usage struct {
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// Reply is one assistant response. Calls is non-empty when the model wants
// tools dispatched before the conversation continues.
type Reply struct {
	Content string
	Calls   []tool.Call
	Usage   Usage
	Model   string
}

// Caller generates one assistant reply for a conversation. The tools slice
// is offered to the model for function calling; nil disables it.
type Caller interface {
	// Name returns provider name (e.g., "openai").
	Name() string
	Call(ctx context.Context, turns []Turn, tools []tool.Tool, opts map[string]any) (Reply, error)
}

// Factory constructs a Caller from provider-specific config.
type Factory func(ctx context.Context, cfg map[string]any) (Caller, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a Caller factory under a provider name.
func Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("model: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("model: nil factory for %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("model: provider %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Resolve gets a registered factory by name.
func Resolve(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Range iterates all registered factories.
func Range(fn func(name string, f Factory)) {
	regMu.RLock()
	defer regMu.RUnlock()
	for n, f := range factories {
		fn(n, f)
	}
}
