package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/modelkit/toolcall/pkg/argcheck"
	"github.com/modelkit/toolcall/pkg/errmodel"
	"github.com/modelkit/toolcall/pkg/journal"
	"github.com/modelkit/toolcall/pkg/journal/sqljournal"
	"github.com/modelkit/toolcall/pkg/mcpserver"
	"github.com/modelkit/toolcall/pkg/otel"
	"github.com/modelkit/toolcall/pkg/registry"
	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"
	"github.com/modelkit/toolcall/pkg/tools"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	var showVersion bool
	var addr, mcpAddr string

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&addr, "addr", getEnv("TOOLCALL_ADDR", ":8080"), "http listen address")
	flag.StringVar(&mcpAddr, "mcp-addr", getEnv("TOOLCALL_MCP_ADDR", ""), "mcp listen address (empty disables the MCP endpoint)")
	flag.Parse()

	if showVersion {
		fmt.Printf("toolcall %s (commit=%s, date=%s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := otel.Init(ctx, otel.Config{
		ServiceName:    "toolcall",
		ServiceVersion: version,
		UseStdout:      os.Getenv("OTEL_STDOUT") == "1",
	})
	if err != nil {
		fatalf("otel init: %v", err)
	}
	defer func() { _ = shutdownOtel(context.Background()) }()

	reg, err := buildRegistry()
	if err != nil {
		fatalf("build registry: %v", err)
	}

	var jn journal.Journal
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store, err := sqljournal.Open(ctx, dsn)
		if err != nil {
			fatalf("open journal: %v", err)
		}
		defer func() { _ = store.Close() }()
		if err := store.Migrate(ctx); err != nil {
			fatalf("migrate journal: %v", err)
		}
		jn = store
		saveManifest(ctx, jn, reg)
	}

	checks, err := argcheck.ForRegistry(reg.Definitions())
	if err != nil {
		fatalf("compile argument checks: %v", err)
	}
	opts := []registry.DispatcherOption{registry.WithArgChecks(checks)}
	if jn != nil {
		opts = append(opts, registry.WithJournal(jn))
	}
	d := registry.NewDispatcher(reg, opts...)

	if mcpAddr != "" {
		srv := mcpserver.New("toolcall", version)
		if err := mcpserver.Export(srv, reg, d); err != nil {
			fatalf("export mcp tools: %v", err)
		}
		go func() {
			if err := mcpserver.Serve(ctx, srv, mcpAddr); err != nil {
				fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(buildMux(reg, d, jn), "gateway"),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fatalf("shutdown: %v", err)
	}
}

// buildRegistry assembles the gateway's tool set: the shipped fs.read and
// http.get plus a demo calculator.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	tools.RegisterAll(reg, os.DirFS(getEnv("TOOLCALL_SANDBOX", ".")))

	calc, err := tool.New().
		Name("calc").
		Description("Applies a binary arithmetic operation.").
		RequiredEnum("op", "Operation to apply.", "add", "sub", "mul").
		Required("a", "Left operand.", schema.Number).
		Required("b", "Right operand.", schema.Number).
		Build()
	if err != nil {
		return nil, err
	}
	reg.Add(registry.HandlerOf(calc, func(_ context.Context, _ string, args calcArgs) (string, error) {
		switch args.Op {
		case "add":
			return fmt.Sprintf("%g", args.A+args.B), nil
		case "sub":
			return fmt.Sprintf("%g", args.A-args.B), nil
		case "mul":
			return fmt.Sprintf("%g", args.A*args.B), nil
		default:
			return "", errmodel.Validation("invalid_arguments", "unknown op", map[string]any{"op": args.Op})
		}
	}))
	return reg, nil
}

type calcArgs struct {
	Op string  `json:"op"`
	A  float64 `json:"a"`
	B  float64 `json:"b"`
}

type dispatchRequest struct {
	Calls []tool.Call `json:"calls"`
}

type dispatchResponse struct {
	BatchID string        `json:"batch_id"`
	Results []tool.Result `json:"results"`
}

type batchResponse struct {
	BatchID string          `json:"batch_id"`
	Entries []journal.Entry `json:"entries"`
}

func buildMux(reg *registry.Registry, d *registry.Dispatcher, jn journal.Journal) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /v1/tools", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(reg)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})

	mux.HandleFunc("POST /v1/dispatch", func(w http.ResponseWriter, r *http.Request) {
		var req dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("bad_payload", "request body does not decode", map[string]any{"error": err.Error()}))
			return
		}
		if len(req.Calls) == 0 {
			errmodel.WriteHTTP(w, r, errmodel.Validation("bad_payload", "calls is required", nil))
			return
		}
		batchID := uuid.NewString()
		results, err := d.DispatchBatch(r.Context(), batchID, req.Calls)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dispatchResponse{BatchID: batchID, Results: results})
	})

	mux.HandleFunc("GET /v1/batches/{id}", func(w http.ResponseWriter, r *http.Request) {
		if jn == nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "journal is not configured", nil))
			return
		}
		batchID := r.PathValue("id")
		entries, err := jn.ListByBatch(r.Context(), batchID, 0, 0)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		if len(entries) == 0 {
			errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "batch not found", map[string]any{"batch_id": batchID}))
			return
		}
		writeJSON(w, http.StatusOK, batchResponse{BatchID: batchID, Entries: entries})
	})

	return mux
}

// saveManifest snapshots the registry's schema list so replays can recover
// the exact tool surface a batch ran against. Best effort.
func saveManifest(ctx context.Context, jn journal.Journal, reg *registry.Registry) {
	schemas, err := json.Marshal(reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "manifest snapshot skipped: %v\n", err)
		return
	}
	_, err = jn.SaveManifest(ctx, journal.Manifest{
		ManifestID: uuid.NewString(),
		Scope:      "default",
		Schemas:    schemas,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "manifest snapshot skipped: %v\n", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
