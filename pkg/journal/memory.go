package journal

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Journal for tests, examples, and gateways running
// without a database. Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	entries   []Entry
	byID      map[string]int
	manifests map[string][]Manifest
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{
		byID:      map[string]int{},
		manifests: map[string][]Manifest{},
	}
}

func (m *Memory) AppendEntry(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[e.EntryID]; ok && e.EntryID != "" {
		return m.entries[i], nil
	}
	if e.Seq == 0 {
		e.Seq = m.lastSeqLocked(e.BatchID) + 1
	}
	m.entries = append(m.entries, e)
	if e.EntryID != "" {
		m.byID[e.EntryID] = len(m.entries) - 1
	}
	return e, nil
}

func (m *Memory) GetEntryByID(_ context.Context, entryID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.byID[entryID]; ok {
		return m.entries[i], nil
	}
	return Entry{}, ErrNotFound
}

func (m *Memory) ListByBatch(_ context.Context, batchID string, afterSeq int64, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if e.BatchID == batchID && e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) LastSeq(_ context.Context, batchID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSeqLocked(batchID), nil
}

func (m *Memory) lastSeqLocked(batchID string) int64 {
	var last int64
	for _, e := range m.entries {
		if e.BatchID == batchID && e.Seq > last {
			last = e.Seq
		}
	}
	return last
}

func (m *Memory) SaveManifest(_ context.Context, mf Manifest) (Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.manifests[mf.Scope]
	if mf.Version == 0 {
		var last int64
		for _, s := range existing {
			if s.Version > last {
				last = s.Version
			}
		}
		mf.Version = last + 1
	} else {
		for _, s := range existing {
			if s.Version == mf.Version {
				return s, nil
			}
		}
	}
	m.manifests[mf.Scope] = append(existing, mf)
	return mf, nil
}

func (m *Memory) LoadLatestManifest(_ context.Context, scope string) (Manifest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  Manifest
		found bool
	)
	for _, s := range m.manifests[scope] {
		if !found || s.Version > best.Version {
			best, found = s, true
		}
	}
	if !found {
		return Manifest{}, ErrNotFound
	}
	return best, nil
}

var _ Journal = (*Memory)(nil)
