// Package budget selects which tool schemas fit a model's token budget.
// Selection is deterministic: pinned tools first, then the rest, both in
// name order, greedily taken while they fit.
package budget

import (
	"encoding/json"
	"sort"
)

// Item is one candidate schema: the tool name and its marshaled schema JSON.
type Item struct {
	Name   string
	Schema string
}

// ItemsOf zips parallel name/schema slices, as a registry hands them out.
// Shorter input wins when the lengths disagree.
func ItemsOf(names []string, schemas []json.RawMessage) []Item {
	n := len(names)
	if len(schemas) < n {
		n = len(schemas)
	}
	out := make([]Item, n)
	for i := 0; i < n; i++ {
		out[i] = Item{Name: names[i], Schema: string(schemas[i])}
	}
	return out
}

// Report summarizes a selection.
type Report struct {
	TotalTokens    int // token cost of every candidate after dedup
	IncludedTokens int // token cost of the selected items
	DroppedCount   int // items excluded by the budget (duplicates are not counted)
}

// TokenEstimator estimates the token cost of text.
type TokenEstimator func(text string) int

// Selector applies pins, dedup, and a token budget to candidate schemas.
type Selector struct {
	estimate  TokenEstimator
	maxTokens int
}

// Option configures the Selector.
type Option func(*Selector)

// WithTokenEstimator sets the token estimator. Defaults to rune length.
func WithTokenEstimator(est TokenEstimator) Option {
	return func(s *Selector) {
		if est != nil {
			s.estimate = est
		}
	}
}

// WithMaxTokens sets the token budget. Defaults to a large value (1e9).
func WithMaxTokens(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// New creates a Selector.
func New(opts ...Option) *Selector {
	s := &Selector{
		estimate:  func(text string) int { return len([]rune(text)) },
		maxTokens: 1_000_000_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the schemas to expose given pinned tool names and the
// budget. Duplicate names keep their first occurrence. Pinned items are
// considered first, in name order; the remainder follows, also in name
// order. An item that does not fit is dropped, later smaller items may still
// fit.
func (s *Selector) Select(items []Item, pins []string) ([]Item, Report) {
	seen := make(map[string]Item, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Name]; ok {
			continue
		}
		seen[it.Name] = it
		order = append(order, it.Name)
	}
	pinned := make(map[string]bool, len(pins))
	for _, p := range pins {
		pinned[p] = true
	}

	pinnedItems := make([]Item, 0, len(pins))
	otherItems := make([]Item, 0, len(order))
	for _, name := range order {
		if pinned[name] {
			pinnedItems = append(pinnedItems, seen[name])
		} else {
			otherItems = append(otherItems, seen[name])
		}
	}
	sort.Slice(pinnedItems, func(i, j int) bool { return pinnedItems[i].Name < pinnedItems[j].Name })
	sort.Slice(otherItems, func(i, j int) bool { return otherItems[i].Name < otherItems[j].Name })

	budget := s.maxTokens
	result := make([]Item, 0, len(order))
	rep := Report{}
	take := func(it Item) {
		cost := s.estimate(it.Schema)
		rep.TotalTokens += cost
		if cost > budget {
			rep.DroppedCount++
			return
		}
		budget -= cost
		rep.IncludedTokens += cost
		result = append(result, it)
	}
	for _, it := range pinnedItems {
		take(it)
	}
	for _, it := range otherItems {
		take(it)
	}
	return result, rep
}
