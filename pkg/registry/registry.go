package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelkit/toolcall/pkg/tool"
)

type entry struct {
	name    string
	handler Handler
	schema  json.RawMessage
}

// Registry maps tool names to handlers and caches each tool's marshaled
// schema at registration time. Registration is a construction-time activity;
// reads are safe for concurrent use during dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{index: map[string]int{}}
}

// Add registers h under its definition's name and returns the Registry for
// chaining. Registering a name again overwrites the handler and cached
// schema but keeps the original position, so the schema manifest stays
// stable. Add panics when the definition does not marshal or has no name;
// both are wiring mistakes.
func (r *Registry) Add(h Handler) *Registry {
	if h == nil {
		return r
	}
	def := h.Definition()
	if def.Function.Name == "" {
		panic("registry: handler definition has no name")
	}
	raw, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("registry: marshal schema for %q: %v", def.Function.Name, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[def.Function.Name]; ok {
		r.entries[i] = entry{name: def.Function.Name, handler: h, schema: raw}
		return r
	}
	r.entries = append(r.entries, entry{name: def.Function.Name, handler: h, schema: raw})
	r.index[def.Function.Name] = len(r.entries) - 1
	return r
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].handler, true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.Tool, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.handler.Definition()
	}
	return out
}

// Schemas returns the cached schema values in registration order. The
// returned slice is the caller's; the byte values are shared and must not be
// mutated.
func (r *Registry) Schemas() []json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]json.RawMessage, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.schema
	}
	return out
}

// MarshalJSON emits the JSON array of cached schemas, the "tools" fragment
// of a chat-completions request.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Schemas())
}
