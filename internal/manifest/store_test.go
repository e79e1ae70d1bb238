package manifest

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestManifest(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("open manifest error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestManifestRecordAndLookup(t *testing.T) {
	store := newTestManifest(t)
	ctx := context.Background()

	entry := Entry{
		Mount:       "assets",
		LogicalPath: "app.js",
		Digest:      "0aa2105d29558f3eb790d411d7d8fb66",
		ContentType: "application/javascript",
		SizeBytes:   42,
		BuiltAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("record error: %v", err)
	}

	got, err := store.Lookup(ctx, "assets", "app.js")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if got.Digest != entry.Digest || got.SizeBytes != entry.SizeBytes {
		t.Fatalf("entry mismatch: %+v", got)
	}
	if !got.BuiltAt.Equal(entry.BuiltAt) {
		t.Fatalf("built_at mismatch: expected %v got %v", entry.BuiltAt, got.BuiltAt)
	}
}

func TestManifestRecordOverwritesExisting(t *testing.T) {
	store := newTestManifest(t)
	ctx := context.Background()

	first := Entry{Mount: "assets", LogicalPath: "app.js", Digest: "aaaaaaa", ContentType: "application/javascript", SizeBytes: 1}
	second := Entry{Mount: "assets", LogicalPath: "app.js", Digest: "bbbbbbb", ContentType: "application/javascript", SizeBytes: 2}

	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("record error: %v", err)
	}

	got, err := store.Lookup(ctx, "assets", "app.js")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if got.Digest != "bbbbbbb" || got.SizeBytes != 2 {
		t.Fatalf("expected overwrite, got %+v", got)
	}

	entries, err := store.List(ctx, "assets")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected single entry after overwrite, got %d", len(entries))
	}
}

func TestManifestLookupMissing(t *testing.T) {
	store := newTestManifest(t)
	if _, err := store.Lookup(context.Background(), "assets", "missing.js"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
