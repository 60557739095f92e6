package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/modelkit/toolcall/pkg/registry"
)

func TestFileRead(t *testing.T) {
	fsys := fstest.MapFS{
		"notes/hello.txt": &fstest.MapFile{Data: []byte("hello sandbox")},
	}
	h := FileRead(fsys)
	if h.Definition().Function.Name != "fs.read" {
		t.Fatalf("unexpected name: %s", h.Definition().Function.Name)
	}

	res, err := h.Call(context.Background(), "c1", json.RawMessage(`{"path":"notes/hello.txt"}`))
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if res.Content != "hello sandbox" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
	if res.ToolCallID != "c1" {
		t.Fatalf("unexpected call id: %q", res.ToolCallID)
	}
}

func TestFileReadRejectsEscapes(t *testing.T) {
	fsys := fstest.MapFS{
		"a.txt": &fstest.MapFile{Data: []byte("x")},
	}
	h := FileRead(fsys)

	bad := []string{
		`{"path":""}`,
		`{"path":"/etc/passwd"}`,
		`{"path":"../a.txt"}`,
		`{"path":"notes/../a.txt"}`,
		`{"path":"./a.txt"}`,
	}
	for _, args := range bad {
		if _, err := h.Call(context.Background(), "c1", json.RawMessage(args)); err == nil {
			t.Fatalf("expected rejection for %s", args)
		}
	}

	if _, err := h.Call(context.Background(), "c1", json.RawMessage(`{"path":"missing.txt"}`)); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestHTTPGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	h := HTTPGet()
	args, _ := json.Marshal(map[string]any{"url": srv.URL, "timeout_ms": 5000})
	res, err := h.Call(context.Background(), "c1", args)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	var out getResult
	if err := json.Unmarshal([]byte(res.Content), &out); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if out.Status != http.StatusOK {
		t.Fatalf("unexpected status: %d", out.Status)
	}
	if out.Body != "pong" {
		t.Fatalf("unexpected body: %q", out.Body)
	}
}

func TestHTTPGetErrors(t *testing.T) {
	h := HTTPGet()
	if _, err := h.Call(context.Background(), "c1", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for missing url")
	}
	if _, err := h.Call(context.Background(), "c1", json.RawMessage(`{"url":"http://127.0.0.1:1/nope","timeout_ms":200}`)); err == nil {
		t.Fatalf("expected error for unreachable host")
	}
}

func TestRegisterAll(t *testing.T) {
	fsys := fstest.MapFS{"a.txt": &fstest.MapFile{Data: []byte("x")}}
	reg := registry.New()
	RegisterAll(reg, fsys)

	if reg.Len() != 2 {
		t.Fatalf("expected 2 tools, got %d", reg.Len())
	}
	names := strings.Join(reg.Names(), ",")
	if !strings.Contains(names, "fs.read") || !strings.Contains(names, "http.get") {
		t.Fatalf("unexpected names: %s", names)
	}

	reg = registry.New()
	RegisterAll(reg, nil)
	if reg.Len() != 1 {
		t.Fatalf("expected http.get only, got %d", reg.Len())
	}
}
