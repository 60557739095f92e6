package tool_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/modelkit/toolcall/pkg/tool"
)

func TestToolJSON(t *testing.T) {
	def, err := tool.New().
		Name("get_weather").
		Description("Current weather for a city.").
		Required("city", "City name.", "string").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := json.Marshal(def)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"function","function":{"name":"get_weather","description":"Current weather for a city.",` +
		`"parameters":{"type":"object","properties":{"city":{"type":"string","description":"City name."}},"required":["city"]}}}`
	if string(got) != want {
		t.Fatalf("tool wire shape:\n got %s\nwant %s", got, want)
	}
}

func TestParametersZeroValueJSON(t *testing.T) {
	got, err := json.Marshal(tool.Parameters{})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"object","properties":{},"required":[]}`
	if string(got) != want {
		t.Fatalf("zero parameters = %s, want %s", got, want)
	}
}

func TestCallRoundTrip(t *testing.T) {
	in := tool.NewCall("call_1", "get_weather", `{"city":"Oslo"}`)
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Oslo\"}"}}`
	if string(raw) != want {
		t.Fatalf("call wire shape:\n got %s\nwant %s", raw, want)
	}
	var out tool.Call
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip changed the call: %#v != %#v", in, out)
	}
}

func TestResultRoundTrip(t *testing.T) {
	in := tool.Result{ToolCallID: "call_1", Content: "sunny, 21C"}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tool_call_id":"call_1","content":"sunny, 21C"}`
	if string(raw) != want {
		t.Fatalf("result wire shape:\n got %s\nwant %s", raw, want)
	}
	var out tool.Result
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip changed the result: %#v != %#v", in, out)
	}
}
