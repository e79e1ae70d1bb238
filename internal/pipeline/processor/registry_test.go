package processor

import (
	"strings"
	"testing"
)

func TestRegistryRejectsDuplicateKey(t *testing.T) {
	r := newRegistry()
	meta := Metadata{Key: "javascript", Extensions: []string{".js"}}
	if err := r.register(meta); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := r.register(Metadata{Key: "JavaScript"})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestRegistryRejectsDuplicateExtension(t *testing.T) {
	r := newRegistry()
	if err := r.register(Metadata{Key: "javascript", Extensions: []string{".js"}}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := r.register(Metadata{Key: "other", Extensions: []string{"js"}})
	if err == nil || !strings.Contains(err.Error(), "already claimed") {
		t.Fatalf("expected duplicate extension error, got %v", err)
	}
}

func TestResolveExtensionFallsBackToDefault(t *testing.T) {
	r := newRegistry()
	r.mustRegisterForTest(t, Metadata{Key: defaultKey})
	r.mustRegisterForTest(t, Metadata{Key: "javascript", Extensions: []string{".js"}})

	meta, ok := r.resolveExtension(".js")
	if !ok || meta.Key != "javascript" {
		t.Fatalf("expected javascript processor, got %v (%v)", meta.Key, ok)
	}

	meta, ok = r.resolveExtension(".png")
	if !ok || meta.Key != defaultKey {
		t.Fatalf("expected fallback to %s, got %v (%v)", defaultKey, meta.Key, ok)
	}
}

func TestGlobalRegistryHasBuiltins(t *testing.T) {
	// 内置处理器通过各自包的 init() 注册；此处仅验证注册表 API 行为。
	if _, ok := Resolve("definitely-missing"); ok {
		t.Fatalf("missing key should not resolve")
	}
}

func (r *registry) mustRegisterForTest(t *testing.T, meta Metadata) {
	t.Helper()
	if err := r.register(meta); err != nil {
		t.Fatalf("register %s failed: %v", meta.Key, err)
	}
}
