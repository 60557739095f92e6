package picker_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelkit/toolcall/pkg/adapters/embedding/hash"
	"github.com/modelkit/toolcall/pkg/picker"
	"github.com/modelkit/toolcall/pkg/picker/memory"
	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"
)

func toolDef(t *testing.T, name, description string) tool.Tool {
	t.Helper()
	def, err := tool.New().
		Name(name).
		Description(description).
		Required("input", "Main input.", schema.String).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func noopHandler(def tool.Tool) registry.Handler {
	return registry.HandlerFunc(def, func(ctx context.Context, callID string, args json.RawMessage) (tool.Result, error) {
		return tool.Result{ToolCallID: callID, Content: "ok"}, nil
	})
}

func TestPickRanksExactCardFirst(t *testing.T) {
	ctx := context.Background()
	const weatherDesc = "Look up the current weather for a city."
	reg := registry.New().
		Add(noopHandler(toolDef(t, "get_weather", weatherDesc))).
		Add(noopHandler(toolDef(t, "fs.read", "Read a file from the sandbox root.")))

	p := picker.New(hash.New(32), memory.New())
	if err := p.IndexTools(ctx, reg); err != nil {
		t.Fatal(err)
	}

	names, err := p.Pick(ctx, picker.CardText("get_weather", weatherDesc), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "get_weather" {
		t.Fatalf("names=%v", names)
	}

	names, err = p.Pick(ctx, picker.CardText("get_weather", weatherDesc), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "get_weather" {
		t.Fatalf("names=%v", names)
	}
}

func TestPickScopeIsolation(t *testing.T) {
	ctx := context.Background()
	reg := registry.New().Add(noopHandler(toolDef(t, "http.get", "Fetch a URL over HTTP GET.")))

	idx := memory.New()
	if err := picker.New(hash.New(32), idx, picker.WithScope("a")).IndexTools(ctx, reg); err != nil {
		t.Fatal(err)
	}
	names, err := picker.New(hash.New(32), idx, picker.WithScope("b")).Pick(ctx, "fetch a url", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("scope b should be empty, got %v", names)
	}
}

func TestIndexFactoryRegistered(t *testing.T) {
	f, ok := picker.Resolve("memory")
	if !ok {
		t.Fatal("memory index factory not registered")
	}
	idx, err := f(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if idx == nil {
		t.Fatal("nil index")
	}
}
