package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/modelkit/toolcall/pkg/adapters/embedding"
	"github.com/modelkit/toolcall/pkg/picker"
)

// Index is an in-memory picker.Index intended for tests, examples, and
// single-process deployments.
type Index struct {
	mu      sync.RWMutex
	byScope map[string]map[string]picker.Card // scope -> name -> card
}

// New creates a new in-memory index.
func New() *Index {
	return &Index{byScope: make(map[string]map[string]picker.Card)}
}

// Upsert inserts or replaces cards by name.
func (s *Index) Upsert(ctx context.Context, cards []picker.Card) error {
	if len(cards) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cards {
		if c.Name == "" {
			return errors.New("memory index: empty card name")
		}
		if len(c.Vector) == 0 {
			return errors.New("memory index: empty vector")
		}
		scope := c.Scope
		if scope == "" {
			scope = "default"
		}
		bucket, ok := s.byScope[scope]
		if !ok {
			bucket = make(map[string]picker.Card)
			s.byScope[scope] = bucket
		}
		bucket[c.Name] = c
	}
	return nil
}

// Query performs cosine similarity search with optional scope and metadata
// equality filter.
func (s *Index) Query(ctx context.Context, query embedding.Vector, k int, filter picker.Filter) ([]picker.Hit, error) {
	s.mu.RLock()
	snapshot := make(map[string]map[string]picker.Card, len(s.byScope))
	for scope, bucket := range s.byScope {
		dup := make(map[string]picker.Card, len(bucket))
		for name, c := range bucket {
			dup[name] = c
		}
		snapshot[scope] = dup
	}
	s.mu.RUnlock()

	scope := filter.Scope
	if scope == "" {
		scope = "default"
	}
	bucket := snapshot[scope]
	if bucket == nil {
		return nil, nil
	}

	qnorm := dot(query, query)
	if qnorm == 0 {
		return nil, errors.New("memory index: zero-norm query vector")
	}
	qnorm = math.Sqrt(qnorm)

	hits := make([]picker.Hit, 0, len(bucket))
	for _, c := range bucket {
		if !metaEquals(c.Meta, filter.Equals) {
			continue
		}
		if len(c.Vector) != len(query) {
			// Skip dimension mismatch
			continue
		}
		hits = append(hits, picker.Hit{Card: c, Score: cosine(query, c.Vector, qnorm)})
	}

	// Sort by score desc, then name for determinism, and truncate to k.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Card.Name < hits[j].Card.Name
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func metaEquals(have map[string]any, want map[string]any) bool {
	if len(want) == 0 {
		return true
	}
	if have == nil {
		return false
	}
	for k, v := range want {
		if hv, ok := have[k]; !ok || hv != v {
			return false
		}
	}
	return true
}

func cosine(a, b embedding.Vector, qnorm float64) float32 {
	denom := qnorm * math.Sqrt(dot(b, b))
	if denom == 0 {
		return 0
	}
	return float32(dot(a, b) / denom)
}

func dot(a, b embedding.Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Factory builds an in-memory index; cfg is unused.
func Factory(ctx context.Context, cfg map[string]any) (picker.Index, error) {
	_ = ctx
	_ = cfg
	return New(), nil
}

func init() {
	_ = picker.Register("memory", Factory)
}
