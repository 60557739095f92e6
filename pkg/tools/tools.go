// Package tools ships two ready-made tools that exercise the full typed
// path: a sandboxed file reader and an HTTP GET. Both are plain registry
// handlers; register them into any Registry with RegisterAll.
package tools

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelkit/toolcall/pkg/errmodel"
	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"
)

const (
	defaultTimeoutMS = 10000
	maxTimeoutMS     = 60000
)

// RegisterAll adds the shipped tools to reg. The file reader is sandboxed to
// fsys; pass nil to register http.get only.
func RegisterAll(reg *registry.Registry, fsys fs.FS) {
	if fsys != nil {
		reg.Add(FileRead(fsys))
	}
	reg.Add(HTTPGet())
}

type readArgs struct {
	Path string `json:"path"`
}

// FileRead returns the fs.read handler. Paths resolve inside fsys only;
// absolute paths, unclean paths, and parent references are rejected.
func FileRead(fsys fs.FS) registry.Handler {
	def := mustBuild(tool.New().
		Name("fs.read").
		Description("Reads a text file from the sandboxed filesystem.").
		Required("path", "Relative path inside the sandbox.", schema.String))
	return registry.HandlerOf(def, func(_ context.Context, callID string, args readArgs) (string, error) {
		p := args.Path
		if p == "" {
			return "", errmodel.Validation("invalid_path", "path is required", map[string]any{"call_id": callID})
		}
		if filepath.IsAbs(p) || filepath.Clean(p) != p || strings.Contains(p, "..") {
			return "", errmodel.Validation("invalid_path", "path escapes the sandbox", map[string]any{"path": p})
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return "", errmodel.System("read_failed", "file read failed", map[string]any{"path": p}, err)
		}
		return string(b), nil
	})
}

type getArgs struct {
	URL       string  `json:"url"`
	TimeoutMS float64 `json:"timeout_ms"`
}

type getResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// HTTPGet returns the http.get handler. The result content is a JSON object
// with the response status and body.
func HTTPGet() registry.Handler {
	def := mustBuild(tool.New().
		Name("http.get").
		Description("Performs an HTTP GET request and returns the status and body.").
		Required("url", "Absolute URL to fetch.", schema.String).
		Optional("timeout_ms", "Request timeout in milliseconds, up to 60000.", schema.Number))
	return registry.HandlerOf(def, func(ctx context.Context, _ string, args getArgs) (string, error) {
		if args.URL == "" {
			return "", errmodel.Validation("invalid_url", "url is required", nil)
		}
		to := int(args.TimeoutMS)
		if to <= 0 || to > maxTimeoutMS {
			to = defaultTimeoutMS
		}
		ctx, cancel := context.WithTimeout(ctx, time.Duration(to)*time.Millisecond)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
		if err != nil {
			return "", errmodel.Validation("invalid_url", err.Error(), map[string]any{"url": args.URL})
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", errmodel.System("request_failed", err.Error(), map[string]any{"url": args.URL}, err)
		}
		defer func() { _ = res.Body.Close() }()

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return "", errmodel.System("read_failed", err.Error(), map[string]any{"url": args.URL}, err)
		}
		out, err := json.Marshal(getResult{Status: res.StatusCode, Body: string(b)})
		if err != nil {
			return "", err
		}
		return string(out), nil
	})
}

func mustBuild(b *tool.Builder) tool.Tool {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
