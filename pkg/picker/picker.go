// Package picker ranks registered tools against a prompt so oversized
// registries can expose only the most relevant schemas per request.
package picker

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelkit/toolcall/pkg/adapters/embedding"
	"github.com/modelkit/toolcall/pkg/registry"
)

// Card is one indexed tool. The embedded text is CardText(name, description).
type Card struct {
	// Name is the tool name; it is the card's identity within a scope.
	Name string
	// Scope groups cards logically (e.g., by registry or tenant).
	Scope string
	// Vector is the dense embedding of the card text.
	Vector embedding.Vector
	// Meta carries arbitrary attributes for filtering.
	Meta map[string]any
}

// Hit is a search result with similarity score.
type Hit struct {
	Card  Card
	Score float32 // higher is more similar
}

// Filter constrains query results.
type Filter struct {
	Scope string
	// Equals matches exact key/value pairs in card metadata (AND semantics across keys).
	Equals map[string]any
}

// Index stores tool cards and answers similarity queries.
type Index interface {
	// Upsert inserts or replaces cards by name within a scope.
	Upsert(ctx context.Context, cards []Card) error
	// Query returns the top-k cards most similar to the query vector.
	Query(ctx context.Context, query embedding.Vector, k int, filter Filter) ([]Hit, error)
}

// Factory constructs an Index from a provider-specific configuration map.
type Factory func(ctx context.Context, cfg map[string]any) (Index, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers an Index factory under a provider name.
func Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("picker: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("picker: nil factory for %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("picker: provider %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Resolve retrieves a registered factory by name.
func Resolve(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Range calls fn for each registered provider name and factory.
func Range(fn func(name string, f Factory)) {
	regMu.RLock()
	defer regMu.RUnlock()
	for n, f := range factories {
		fn(n, f)
	}
}

// CardText is the text embedded for a tool.
func CardText(name, description string) string { return name + ": " + description }

// Picker embeds tool cards into an Index and selects the most relevant
// tool names for a prompt.
type Picker struct {
	emb   embedding.Embedder
	index Index
	scope string
}

// Option configures a Picker.
type Option func(*Picker)

// WithScope keys the picker's cards under scope, isolating registries that
// share one index.
func WithScope(scope string) Option {
	return func(p *Picker) {
		if scope != "" {
			p.scope = scope
		}
	}
}

// New returns a Picker that writes to and queries index with vectors from emb.
func New(emb embedding.Embedder, index Index, opts ...Option) *Picker {
	p := &Picker{emb: emb, index: index, scope: "default"}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IndexTools embeds one card per registry entry and upserts them.
func (p *Picker) IndexTools(ctx context.Context, reg *registry.Registry) error {
	defs := reg.Definitions()
	if len(defs) == 0 {
		return nil
	}
	texts := make([]string, len(defs))
	for i, def := range defs {
		texts[i] = CardText(def.Function.Name, def.Function.Description)
	}
	vecs, err := p.emb.Embed(ctx, texts, nil)
	if err != nil {
		return err
	}
	if len(vecs) != len(defs) {
		return fmt.Errorf("picker: embedder returned %d vectors for %d tools", len(vecs), len(defs))
	}
	cards := make([]Card, len(defs))
	for i, def := range defs {
		cards[i] = Card{Name: def.Function.Name, Scope: p.scope, Vector: vecs[i]}
	}
	return p.index.Upsert(ctx, cards)
}

// Pick returns up to k tool names ranked most similar to prompt.
func (p *Picker) Pick(ctx context.Context, prompt string, k int) ([]string, error) {
	vecs, err := p.emb.Embed(ctx, []string{prompt}, nil)
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("picker: embedder returned %d vectors for one prompt", len(vecs))
	}
	hits, err := p.index.Query(ctx, vecs[0], k, Filter{Scope: p.scope})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Card.Name
	}
	return names, nil
}
