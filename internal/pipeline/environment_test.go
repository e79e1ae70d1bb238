package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asset-pipe/asset-pipe/internal/cache"
	"github.com/asset-pipe/asset-pipe/internal/config"
	"github.com/asset-pipe/asset-pipe/internal/manifest"

	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/javascript"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/raw"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/stylesheet"
)

func newTestEnvironment(t *testing.T, files map[string]string) *Environment {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir error: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write source error: %v", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env, err := NewEnvironment(EnvironmentOptions{
		Mount:  config.MountConfig{Name: "assets", Prefix: "/assets", Root: root},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("environment error: %v", err)
	}
	return env
}

func readAsset(t *testing.T, asset *Asset) string {
	t.Helper()
	reader, err := asset.Open()
	if err != nil {
		t.Fatalf("open asset error: %v", err)
	}
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read asset error: %v", err)
	}
	return string(body)
}

func TestFindMissingReturnsErrNotFound(t *testing.T) {
	env := newTestEnvironment(t, nil)
	if _, err := env.Find(context.Background(), "missing.js", FindOptions{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindRejectsTraversal(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"app.txt": "hi"})
	if _, err := env.Find(context.Background(), "../app.txt", FindOptions{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for traversal, got %v", err)
	}
}

func TestFindDigestDeterministic(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"app.js": "console.log(1);\n"})

	first, err := env.Find(context.Background(), "app.js", FindOptions{})
	if err != nil {
		t.Fatalf("first find error: %v", err)
	}
	second, err := env.Find(context.Background(), "app.js", FindOptions{})
	if err != nil {
		t.Fatalf("second find error: %v", err)
	}

	if first.Digest != second.Digest || first.Length != second.Length || first.ContentType != second.ContentType {
		t.Fatalf("unchanged content must resolve identically: %+v vs %+v", first, second)
	}
	if len(first.Digest) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", first.Digest)
	}
	if first.ContentType != "application/javascript" {
		t.Fatalf("unexpected content type %q", first.ContentType)
	}
}

func TestFindBundlesImportsButSelfDoesNot(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{
		"app.js": "import {answer} from \"./lib.js\";\nconsole.log(answer);\n",
		"lib.js": "export var answer = 42;\n",
	})

	bundled, err := env.Find(context.Background(), "app.js", FindOptions{})
	if err != nil {
		t.Fatalf("bundle find error: %v", err)
	}
	bundledBody := readAsset(t, bundled)
	if !strings.Contains(bundledBody, "42") {
		t.Fatalf("bundled output should inline lib.js, got %q", bundledBody)
	}
	if strings.Contains(bundledBody, "import ") {
		t.Fatalf("bundled output should not keep import statements, got %q", bundledBody)
	}

	raw, err := env.Find(context.Background(), "app.js", FindOptions{Pipeline: PipelineSelf})
	if err != nil {
		t.Fatalf("self find error: %v", err)
	}
	rawBody := readAsset(t, raw)
	if !strings.Contains(rawBody, "import") {
		t.Fatalf("self pipeline should keep the import, got %q", rawBody)
	}
}

func TestFindReturnsBuildErrorForInvalidSource(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"app.js": "var ) = 1;\n"})

	_, err := env.Find(context.Background(), "app.js", FindOptions{})
	if err == nil {
		t.Fatalf("expected build error")
	}
	buildErr := AsBuildError(err)
	if buildErr == nil {
		t.Fatalf("expected *BuildError, got %T: %v", err, err)
	}
	if buildErr.Name != "SyntaxError" || buildErr.Message == "" {
		t.Fatalf("unexpected build error: %+v", buildErr)
	}
	if frame := buildErr.FirstFrame(); !strings.Contains(frame, "app.js") {
		t.Fatalf("expected frame pointing at app.js, got %q", frame)
	}
}

func TestFindRawPassthrough(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"notes/readme.txt": "hello"})

	asset, err := env.Find(context.Background(), "notes/readme.txt", FindOptions{})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	if readAsset(t, asset) != "hello" {
		t.Fatalf("raw processor must pass bytes through")
	}
	if asset.ContentType != "text/plain" || asset.Charset != "utf-8" {
		t.Fatalf("unexpected content type %q charset %q", asset.ContentType, asset.Charset)
	}
	if asset.Processor != "raw" {
		t.Fatalf("expected raw processor, got %q", asset.Processor)
	}
}

func TestFindRebuildsWhenSourceChanges(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"app.txt": "one"})

	first, err := env.Find(context.Background(), "app.txt", FindOptions{})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}

	full := filepath.Join(env.mount.Root, "app.txt")
	if err := os.WriteFile(full, []byte("two"), 0o644); err != nil {
		t.Fatalf("rewrite error: %v", err)
	}
	// 保证 mtime 前进，避免文件系统时间精度吞掉变更。
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(full, future, future); err != nil {
		t.Fatalf("chtimes error: %v", err)
	}

	second, err := env.Find(context.Background(), "app.txt", FindOptions{})
	if err != nil {
		t.Fatalf("second find error: %v", err)
	}
	if first.Digest == second.Digest {
		t.Fatalf("changed content must change the digest")
	}
	if readAsset(t, second) != "two" {
		t.Fatalf("expected rebuilt body")
	}
}

func TestFindPersistsCacheAndManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.NewStore(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	mstore, err := manifest.Open(filepath.Join(dir, "manifest.db"))
	if err != nil {
		t.Fatalf("manifest error: %v", err)
	}
	defer mstore.Close()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write source error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	env, err := NewEnvironment(EnvironmentOptions{
		Mount:    config.MountConfig{Name: "assets", Prefix: "/assets", Root: root},
		Store:    store,
		Manifest: mstore,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("environment error: %v", err)
	}

	asset, err := env.Find(context.Background(), "app.txt", FindOptions{})
	if err != nil {
		t.Fatalf("find error: %v", err)
	}

	recorded, err := mstore.Lookup(context.Background(), "assets", "app.txt")
	if err != nil {
		t.Fatalf("manifest lookup error: %v", err)
	}
	if recorded.Digest != asset.Digest {
		t.Fatalf("manifest digest mismatch: %s vs %s", recorded.Digest, asset.Digest)
	}

	result, err := store.Get(context.Background(), cache.Locator{Mount: "assets", Path: "/app.txt-" + asset.Digest})
	if err != nil {
		t.Fatalf("cache get error: %v", err)
	}
	result.Reader.Close()

	// 第二个环境实例应能凭 manifest + 磁盘缓存复用产物。
	env2, err := NewEnvironment(EnvironmentOptions{
		Mount:    config.MountConfig{Name: "assets", Prefix: "/assets", Root: root},
		Store:    store,
		Manifest: mstore,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("environment error: %v", err)
	}
	reused, err := env2.Find(context.Background(), "app.txt", FindOptions{})
	if err != nil {
		t.Fatalf("reuse find error: %v", err)
	}
	if reused.Digest != asset.Digest || readAsset(t, reused) != "hello" {
		t.Fatalf("expected reused asset, got %+v", reused)
	}
}

func TestWatchStartsAndStops(t *testing.T) {
	env := newTestEnvironment(t, map[string]string{"app.txt": "hi"})
	stop, err := env.Watch(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("watch error: %v", err)
	}
	stop()
}
