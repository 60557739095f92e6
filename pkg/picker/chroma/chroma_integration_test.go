//go:build integration

package chroma

import (
	"context"
	"fmt"
	"testing"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/modelkit/toolcall/pkg/adapters/embedding"
	"github.com/modelkit/toolcall/pkg/picker"
)

func TestChromaUpsertAndQuery(t *testing.T) {
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "ghcr.io/chroma-core/chroma:latest",
		ExposedPorts: []string{"8000/tcp"},
		WaitingFor:   wait.ForHTTP("/api/v1/heartbeat").WithPort("8000/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("skip: cannot start chromadb: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "8000/tcp")
	if err != nil {
		t.Fatal(err)
	}
	baseURL := fmt.Sprintf("http://%s:%s", host, port.Port())

	idx, err := Factory(ctx, map[string]any{
		"base_url":          baseURL,
		"collection":        "itest",
		"create_if_missing": true,
	})
	if err != nil {
		t.Fatal(err)
	}

	cards := []picker.Card{
		{Name: "fs.read", Scope: "s1", Vector: embedding.Vector{1, 0}, Meta: map[string]any{"kind": "fs"}},
		{Name: "http.get", Scope: "s1", Vector: embedding.Vector{0.8, 0.2}, Meta: map[string]any{"kind": "net"}},
		{Name: "get_weather", Scope: "s2", Vector: embedding.Vector{0, 1}, Meta: map[string]any{"kind": "net"}},
	}
	if err := idx.Upsert(ctx, cards); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := idx.Query(ctx, embedding.Vector{1, 0}, 2, picker.Filter{Scope: "s1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("no hits returned")
	}
	if hits[0].Card.Name != "fs.read" {
		t.Fatalf("top hit=%s want fs.read", hits[0].Card.Name)
	}
}
