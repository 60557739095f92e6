// Package mcpserver exposes a tool registry over the Model Context Protocol.
// Every registered tool becomes an MCP tool with a standard JSON Schema input
// schema; calls are bridged through the dispatcher so journaling, argument
// checks, and tracing apply to MCP traffic too.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/modelkit/toolcall/pkg/argcheck"
	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/tool"
)

const (
	mcpEndpoint     = "/mcp"
	healthEndpoint  = "/health"
	shutdownTimeout = 10 * time.Second
)

// New assembles an MCP server with tool capabilities enabled.
func New(name, version string) *server.MCPServer {
	return server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)
}

// Export registers every tool in reg on the MCP server. Calls run through d,
// one call per MCP request. Call Export again after changing the registry to
// pick up new or overwritten tools.
func Export(srv *server.MCPServer, reg *registry.Registry, d *registry.Dispatcher) error {
	for _, def := range reg.Definitions() {
		t, err := exportTool(def)
		if err != nil {
			return err
		}
		srv.AddTool(t, callHandler(d, def.Function.Name))
	}
	return nil
}

func exportTool(def tool.Tool) (mcp.Tool, error) {
	raw, err := json.Marshal(argcheck.Project(def.Function.Parameters))
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("mcpserver: schema for %q: %w", def.Function.Name, err)
	}
	t := mcp.NewTool(def.Function.Name, mcp.WithDescription(def.Function.Description))
	// The schema is already built; hand it over raw instead of reassembling
	// it through tool options.
	t.InputSchema = mcp.ToolInputSchema{}
	t.RawInputSchema = raw
	return t, nil
}

func callHandler(d *registry.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode arguments: %s", err)), nil
		}
		results, err := d.Dispatch(ctx, []tool.Call{tool.NewCall(uuid.NewString(), name, string(raw))})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(results) != 1 {
			return mcp.NewToolResultError(fmt.Sprintf("expected one result, got %d", len(results))), nil
		}
		return mcp.NewToolResultText(results[0].Content), nil
	}
}

// Serve runs the MCP server over streamable HTTP until ctx is cancelled. The
// MCP endpoint is /mcp; /health answers liveness probes.
func Serve(ctx context.Context, srv *server.MCPServer, addr string) error {
	mux := http.NewServeMux()
	httpServer := &http.Server{Addr: addr, Handler: mux}

	streamable := server.NewStreamableHTTPServer(srv,
		server.WithStreamableHTTPServer(httpServer),
		server.WithStateLess(true),
	)
	mux.Handle(mcpEndpoint, streamable)
	mux.HandleFunc(healthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
