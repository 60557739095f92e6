package model

import (
	"context"
	"testing"

	"github.com/modelkit/toolcall/pkg/tool"
)

type fakeCaller struct{ name string }

func (f *fakeCaller) Name() string { return f.name }

func (f *fakeCaller) Call(_ context.Context, _ []Turn, _ []tool.Tool, _ map[string]any) (Reply, error) {
	return Reply{Content: "ok", Model: f.name}, nil
}

func TestRegistry(t *testing.T) {
	const name = "model-test-fake"
	if _, err := Resolve(context.Background(), name, nil); err == nil {
		t.Fatalf("expected error for unregistered caller")
	}

	err := Register(name, func(_ context.Context, _ map[string]any) (Caller, error) {
		return &fakeCaller{name: name}, nil
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := Register(name, func(_ context.Context, _ map[string]any) (Caller, error) {
		return nil, nil
	}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	c, err := Resolve(context.Background(), name, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if c.Name() != name {
		t.Fatalf("unexpected caller name: %s", c.Name())
	}
}

func TestTurnConstructors(t *testing.T) {
	sys := System("be brief")
	if sys.Role != "system" || sys.Content != "be brief" {
		t.Fatalf("unexpected system turn: %+v", sys)
	}

	usr := User("what is the weather in Paris?")
	if usr.Role != "user" || usr.Content == "" {
		t.Fatalf("unexpected user turn: %+v", usr)
	}

	call := tool.NewCall("call_1", "get_weather", `{"city":"Paris"}`)
	asst := Assistant("", call)
	if asst.Role != "assistant" {
		t.Fatalf("unexpected assistant role: %s", asst.Role)
	}
	if len(asst.Calls) != 1 || asst.Calls[0].Function.Name != "get_weather" {
		t.Fatalf("assistant turn dropped calls: %+v", asst.Calls)
	}

	res := ToolResults(tool.Result{ToolCallID: "call_1", Content: "sunny"})
	if res.Role != "tool" {
		t.Fatalf("unexpected tool role: %s", res.Role)
	}
	if len(res.Results) != 1 || res.Results[0].Content != "sunny" {
		t.Fatalf("tool turn dropped results: %+v", res.Results)
	}
}
