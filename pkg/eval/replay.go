package eval

import (
	"context"
	"fmt"

	"github.com/modelkit/toolcall/pkg/journal"
	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/tool"
)

// Capture represents a recorded batch: the calls that were dispatched and
// the results they produced.
type Capture struct {
	BatchID string        `json:"batch_id"`
	Calls   []tool.Call   `json:"calls"`
	Results []tool.Result `json:"results"`
}

// CaptureBatch reads a completed batch back out of the journal.
func CaptureBatch(ctx context.Context, jn journal.Journal, batchID string) (Capture, error) {
	entries, err := jn.ListByBatch(ctx, batchID, 0, 0)
	if err != nil {
		return Capture{}, err
	}
	if len(entries) == 0 {
		return Capture{}, fmt.Errorf("eval: batch %q: %w", batchID, journal.ErrNotFound)
	}
	cap := Capture{BatchID: batchID}
	for _, e := range entries {
		cap.Calls = append(cap.Calls, tool.NewCall(e.CallID, e.Tool, string(e.Arguments)))
		cap.Results = append(cap.Results, tool.Result{ToolCallID: e.CallID, Content: e.Content})
	}
	return cap, nil
}

// Drift is one replayed call whose content no longer matches the capture.
type Drift struct {
	CallID string
	Tool   string
	Want   string
	Got    string
}

// ReplayBatch re-dispatches a capture's calls against the current registry
// and reports the calls whose result content changed.
func ReplayBatch(ctx context.Context, d *registry.Dispatcher, cap Capture) ([]Drift, error) {
	results, err := d.Dispatch(ctx, cap.Calls)
	if err != nil {
		return nil, err
	}
	var drifts []Drift
	for i, r := range results {
		want := ""
		if i < len(cap.Results) {
			want = cap.Results[i].Content
		}
		if r.Content != want {
			drifts = append(drifts, Drift{
				CallID: r.ToolCallID,
				Tool:   cap.Calls[i].Function.Name,
				Want:   want,
				Got:    r.Content,
			})
		}
	}
	return drifts, nil
}
