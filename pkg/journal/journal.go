// Package journal persists dispatched tool calls and registry manifests so
// batches can be audited and replayed.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("journal: not found")

// Entry is one dispatched call: the request arguments and the result content,
// ordered within its batch by Seq.
type Entry struct {
	EntryID   string          `json:"entry_id"`
	BatchID   string          `json:"batch_id"`
	Seq       int64           `json:"seq"`
	Tool      string          `json:"tool"`
	CallID    string          `json:"call_id"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

// Manifest is a point-in-time snapshot of a registry's schema list, versioned
// per scope.
type Manifest struct {
	ManifestID string          `json:"manifest_id"`
	Scope      string          `json:"scope"`
	Version    int64           `json:"version"`
	Schemas    json.RawMessage `json:"schemas"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EntryLog records dispatched calls in batch order.
type EntryLog interface {
	// AppendEntry persists e. A zero Seq is assigned the next sequence in the
	// batch. Appending an EntryID that already exists is a no-op returning
	// the stored entry.
	AppendEntry(ctx context.Context, e Entry) (Entry, error)
	// GetEntryByID returns the entry with the given id, ErrNotFound when
	// absent.
	GetEntryByID(ctx context.Context, entryID string) (Entry, error)
	// ListByBatch returns a batch's entries with Seq greater than afterSeq in
	// ascending order, up to limit (0 means no limit).
	ListByBatch(ctx context.Context, batchID string, afterSeq int64, limit int) ([]Entry, error)
	// LastSeq returns the highest Seq recorded for a batch, 0 for an unknown
	// batch.
	LastSeq(ctx context.Context, batchID string) (int64, error)
}

// ManifestStore keeps registry schema snapshots.
type ManifestStore interface {
	// SaveManifest persists m. A zero Version is assigned the next version
	// for the scope; saving an existing (scope, version) pair returns the
	// stored manifest unchanged.
	SaveManifest(ctx context.Context, m Manifest) (Manifest, error)
	// LoadLatestManifest returns the highest-version manifest for scope,
	// ErrNotFound when the scope has none.
	LoadLatestManifest(ctx context.Context, scope string) (Manifest, error)
}

// Journal is the full persistence surface consumed by dispatchers and the
// gateway.
type Journal interface {
	EntryLog
	ManifestStore
}
