package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelkit/toolcall/pkg/argcheck"
	"github.com/modelkit/toolcall/pkg/errmodel"
	"github.com/modelkit/toolcall/pkg/journal"
	"github.com/modelkit/toolcall/pkg/tool"
)

// Dispatcher executes batches of tool calls against a Registry. Every call
// gets exactly one Result and the output order equals the input order. A
// failed call never aborts the batch: unknown tools, argument violations,
// and handler errors all surface as error-content Results for that call.
type Dispatcher struct {
	reg      *Registry
	parallel int
	checks   argcheck.Map
	jn       journal.Journal
}

// DispatcherOption configures a Dispatcher at construction time.
type DispatcherOption func(*Dispatcher)

// WithParallelism runs up to n handlers concurrently. Output order is still
// input order. Values below 2 keep dispatch sequential.
func WithParallelism(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 1 {
			d.parallel = n
		}
	}
}

// WithArgChecks validates call arguments against compiled schemas before the
// handler runs; violations become error-content Results.
func WithArgChecks(m argcheck.Map) DispatcherOption {
	return func(d *Dispatcher) {
		if len(m) > 0 {
			d.checks = m
		}
	}
}

// WithJournal records completed batches. Recording is best effort and never
// changes dispatch results.
func WithJournal(j journal.Journal) DispatcherOption {
	return func(d *Dispatcher) { d.jn = j }
}

// NewDispatcher constructs a Dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reg: reg}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes calls under a fresh batch id.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []tool.Call) ([]tool.Result, error) {
	return d.DispatchBatch(ctx, uuid.NewString(), calls)
}

// DispatchBatch executes calls under a caller-chosen batch id, which keys
// the journal entries for later retrieval.
func (d *Dispatcher) DispatchBatch(ctx context.Context, batchID string, calls []tool.Call) ([]tool.Result, error) {
	tr := otel.Tracer("registry/dispatcher")
	ctx, span := tr.Start(ctx, "Dispatcher.Dispatch", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.calls", len(calls)),
	))
	defer span.End()

	results := make([]tool.Result, len(calls))
	if d.parallel > 1 {
		if err := d.runParallel(ctx, calls, results); err != nil {
			span.RecordError(err)
			return nil, err
		}
	} else {
		for i, call := range calls {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				return nil, err
			}
			results[i] = d.dispatchOne(ctx, call)
		}
	}

	d.record(ctx, span, batchID, calls, results)
	return results, nil
}

func (d *Dispatcher) runParallel(ctx context.Context, calls []tool.Call, results []tool.Result) error {
	sem := make(chan struct{}, d.parallel)
	var wg sync.WaitGroup
	for i, call := range calls {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, call tool.Call) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = d.dispatchOne(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return ctx.Err()
}

// dispatchOne never returns an error; anything that goes wrong becomes the
// call's result content.
func (d *Dispatcher) dispatchOne(ctx context.Context, call tool.Call) tool.Result {
	tr := otel.Tracer("registry/dispatcher")
	ctx, span := tr.Start(ctx, "Dispatcher.Call", trace.WithAttributes(
		attribute.String("tool.name", call.Function.Name),
		attribute.String("call.id", call.ID),
	))
	defer span.End()

	h, ok := d.reg.Lookup(call.Function.Name)
	if !ok {
		span.RecordError(errmodel.Validation("tool_not_found", call.Function.Name, nil))
		return tool.Result{ToolCallID: call.ID, Content: "Tool not found"}
	}

	args := json.RawMessage(call.Function.Arguments)
	if err := d.checkArgs(call, args); err != nil {
		span.RecordError(err)
		return tool.Result{ToolCallID: call.ID, Content: errmodel.From(err).Error()}
	}

	res, err := h.Call(ctx, call.ID, args)
	if err != nil {
		span.RecordError(err)
		return tool.Result{ToolCallID: call.ID, Content: errmodel.From(err).Error()}
	}
	if res.ToolCallID == "" {
		res.ToolCallID = call.ID
	}
	return res
}

func (d *Dispatcher) checkArgs(call tool.Call, args json.RawMessage) error {
	if d.checks == nil {
		return nil
	}
	v, ok := d.checks[call.Function.Name]
	if !ok || len(args) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return errmodel.New(errmodel.CategoryValidation, "decode_failed",
			"arguments are not valid JSON", map[string]any{"tool": call.Function.Name, "call_id": call.ID}, err)
	}
	if err := v.Validate(decoded); err != nil {
		return errmodel.New(errmodel.CategoryValidation, "invalid_arguments",
			err.Error(), map[string]any{"tool": call.Function.Name, "call_id": call.ID})
	}
	return nil
}

// record journals a completed batch in input order. Failures are traced and
// dropped.
func (d *Dispatcher) record(ctx context.Context, span trace.Span, batchID string, calls []tool.Call, results []tool.Result) {
	if d.jn == nil || len(calls) == 0 {
		return
	}
	now := time.Now().UTC()
	for i, call := range calls {
		args := json.RawMessage(call.Function.Arguments)
		if len(args) > 0 && !json.Valid(args) {
			// Keep malformed argument strings journalable as JSON strings.
			args, _ = json.Marshal(call.Function.Arguments)
		}
		_, err := d.jn.AppendEntry(ctx, journal.Entry{
			EntryID:   uuid.NewString(),
			BatchID:   batchID,
			Seq:       int64(i + 1),
			Tool:      call.Function.Name,
			CallID:    call.ID,
			Arguments: args,
			Content:   results[i].Content,
			CreatedAt: now,
		})
		if err != nil {
			span.RecordError(errmodel.System("storage_error", "journal append failed",
				map[string]any{"batch_id": batchID, "seq": i + 1}, err))
			return
		}
	}
}
