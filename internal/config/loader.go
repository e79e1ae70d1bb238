package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Mounts {
		applyMountDefaults(&cfg.Mounts[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := resolveAbsolutePaths(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CachePath", "./cache")
	v.SetDefault("ManifestPath", "./cache/manifest.db")
	v.SetDefault("Minify", false)
	v.SetDefault("Watch", false)
	v.SetDefault("WatchDebounce", "250ms")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.WatchDebounce.DurationValue() == 0 {
		g.WatchDebounce = Duration(250 * time.Millisecond)
	}
}

func applyMountDefaults(m *MountConfig) {
	prefix := strings.TrimSpace(m.Prefix)
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
	}
	m.Prefix = prefix

	if mode := strings.ToLower(strings.TrimSpace(m.Minify)); mode != "" {
		m.Minify = mode
	}
}

// resolveAbsolutePaths 统一把缓存目录与源目录转为绝对路径，避免工作目录歧义。
func resolveAbsolutePaths(cfg *Config) error {
	absCache, err := filepath.Abs(cfg.Global.CachePath)
	if err != nil {
		return fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.CachePath = absCache

	if cfg.Global.ManifestPath != "" {
		absManifest, err := filepath.Abs(cfg.Global.ManifestPath)
		if err != nil {
			return fmt.Errorf("无法解析 manifest 路径: %w", err)
		}
		cfg.Global.ManifestPath = absManifest
	}

	for i := range cfg.Mounts {
		mount := &cfg.Mounts[i]
		absRoot, err := filepath.Abs(mount.Root)
		if err != nil {
			return fmt.Errorf("无法解析挂载点 %s 的 Root: %w", mount.Name, err)
		}
		mount.Root = absRoot
		for j, extra := range mount.Paths {
			absExtra, err := filepath.Abs(extra)
			if err != nil {
				return fmt.Errorf("无法解析挂载点 %s 的 Paths: %w", mount.Name, err)
			}
			mount.Paths[j] = absExtra
		}
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			var d Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int32:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		default:
			return data, nil
		}
	}
}
