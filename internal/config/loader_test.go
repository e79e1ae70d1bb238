package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaultsAndNormalizesPrefix(t *testing.T) {
	cfg := `
LogLevel = "debug"

[[Mount]]
Name = "assets"
Prefix = "assets/"
Root = "./public/assets"
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if loaded.Global.ListenPort != 5000 {
		t.Fatalf("expected default port 5000, got %d", loaded.Global.ListenPort)
	}
	if loaded.Global.WatchDebounce.DurationValue() != 250*time.Millisecond {
		t.Fatalf("expected default debounce 250ms, got %v", loaded.Global.WatchDebounce.DurationValue())
	}
	if loaded.Mounts[0].Prefix != "/assets" {
		t.Fatalf("expected normalized prefix /assets, got %s", loaded.Mounts[0].Prefix)
	}
}

func TestLoadFailsWithoutMounts(t *testing.T) {
	cfg := `
LogLevel = "info"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("缺少 Mount 的配置应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
WatchDebounce = "boom"

[[Mount]]
Name = "assets"
Prefix = "/assets"
Root = "./public/assets"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsIntegerSecondsDuration(t *testing.T) {
	cfg := `
WatchDebounce = 2

[[Mount]]
Name = "assets"
Prefix = "/assets"
Root = "./public/assets"
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if loaded.Global.WatchDebounce.DurationValue() != 2*time.Second {
		t.Fatalf("expected 2s debounce, got %v", loaded.Global.WatchDebounce.DurationValue())
	}
}
