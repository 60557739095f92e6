// Package hash provides a deterministic, dependency-free embedder. Vectors
// derive from SHA-256 of the input text, so picker tests and offline runs
// get stable rankings without a provider key.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/modelkit/toolcall/pkg/adapters/embedding"
)

const defaultDim = 64

// Embedder produces fixed-size vectors with values derived from SHA-256 of
// the input string.
type Embedder struct {
	dim int
}

// New returns a hash embedder with the given dimension (>= 4).
func New(dim int) *Embedder {
	if dim < 4 {
		dim = 4
	}
	return &Embedder{dim: dim}
}

func (e *Embedder) Name() string { return "hash" }

func (e *Embedder) Embed(ctx context.Context, inputs []string, opts map[string]any) ([]embedding.Vector, error) {
	// Keep output stable regardless of map iteration order in opts
	// by folding opts keys into an extra seed, sorted by key.
	var optSeed uint64
	if len(opts) > 0 {
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h := sha256.Sum256([]byte(k))
			optSeed ^= binary.LittleEndian.Uint64(h[:8])
		}
	}

	out := make([]embedding.Vector, len(inputs))
	for i, s := range inputs {
		vec := make(embedding.Vector, e.dim)
		h := sha256.Sum256([]byte(s))
		for j := 0; j < e.dim; j++ {
			off := (j * 4) % len(h)
			u := binary.LittleEndian.Uint32(h[off : off+4])
			u ^= uint32(optSeed)
			// Scale to [0,1) then shift to [-0.5, 0.5)
			vec[j] = (float32(u&0x7FFFFFFF) / float32(1<<31)) - 0.5
		}
		out[i] = vec
	}
	return out, nil
}

// Factory builds a hash embedder; cfg key: dim.
func Factory(ctx context.Context, cfg map[string]any) (embedding.Embedder, error) {
	_ = ctx
	dim := defaultDim
	switch v := cfg["dim"].(type) {
	case int:
		dim = v
	case float64:
		dim = int(v)
	}
	return New(dim), nil
}

func init() {
	_ = embedding.Register("hash", Factory)
}
