package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/asset-pipe/asset-pipe/internal/config"
	"github.com/asset-pipe/asset-pipe/internal/manifest"
	"github.com/asset-pipe/asset-pipe/internal/server"

	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/javascript"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/raw"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/stylesheet"
)

func newDiagnosticsApp(t *testing.T, store *manifest.Store) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		Global: config.GlobalConfig{ListenPort: 5000},
		Mounts: []config.MountConfig{
			{Name: "assets", Prefix: "/assets", Root: "/srv/assets"},
		},
	}
	registry, err := server.NewMountRegistry(cfg)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	app := fiber.New()
	RegisterDiagnosticRoutes(app, registry, store)
	return app
}

func TestProcessorsEndpointListsRegisteredProcessors(t *testing.T) {
	app := newDiagnosticsApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/processors", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Processors []processorPayload    `json:"processors"`
		Mounts     []mountBindingPayload `json:"mounts"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v (body=%s)", err, string(body))
	}

	keys := make(map[string]bool, len(payload.Processors))
	for _, p := range payload.Processors {
		keys[p.Key] = true
	}
	for _, want := range []string{"javascript", "stylesheet", "raw"} {
		if !keys[want] {
			t.Fatalf("expected processor %s in payload, got %s", want, string(body))
		}
	}
	if len(payload.Mounts) != 1 || payload.Mounts[0].MountName != "assets" {
		t.Fatalf("expected assets mount binding, got %s", string(body))
	}
}

func TestProcessorsEndpointSingleKey(t *testing.T) {
	app := newDiagnosticsApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/processors/javascript", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload processorPayload
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Key != "javascript" || payload.ContentType != "application/javascript" {
		t.Fatalf("unexpected payload: %s", string(body))
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/processors/unknown", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", resp.StatusCode)
	}
}

func TestManifestEndpointListsBuilds(t *testing.T) {
	store, err := manifest.Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("manifest open: %v", err)
	}
	defer store.Close()

	err = store.Record(context.Background(), manifest.Entry{
		Mount:       "assets",
		LogicalPath: "js/app.js",
		Digest:      "abc123",
		ContentType: "application/javascript",
		SizeBytes:   42,
	})
	if err != nil {
		t.Fatalf("manifest record: %v", err)
	}

	app := newDiagnosticsApp(t, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/-/manifest/assets", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Mount   string           `json:"mount"`
		Entries []manifest.Entry `json:"entries"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Mount != "assets" || len(payload.Entries) != 1 || payload.Entries[0].Digest != "abc123" {
		t.Fatalf("unexpected manifest payload: %s", string(body))
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/-/manifest/unknown", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown mount, got %d", resp.StatusCode)
	}
}
