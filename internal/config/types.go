package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "500ms"、"5s" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为，所有挂载点共享同一份参数。
type GlobalConfig struct {
	ListenPort    int      `mapstructure:"ListenPort"`
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	CachePath     string   `mapstructure:"CachePath"`
	ManifestPath  string   `mapstructure:"ManifestPath"`
	Minify        bool     `mapstructure:"Minify"`
	Watch         bool     `mapstructure:"Watch"`
	WatchDebounce Duration `mapstructure:"WatchDebounce"`
}

// MountConfig 决定单个资源挂载点如何定位与编译源文件。
type MountConfig struct {
	Name   string   `mapstructure:"Name"`
	Prefix string   `mapstructure:"Prefix"`
	Root   string   `mapstructure:"Root"`
	Paths  []string `mapstructure:"Paths"`
	Minify string   `mapstructure:"Minify"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig  `mapstructure:",squash"`
	Mounts []MountConfig `mapstructure:"Mount"`
}

// LoadPaths 返回按查找顺序排列的源目录列表（Root 优先）。
func (m MountConfig) LoadPaths() []string {
	paths := make([]string, 0, len(m.Paths)+1)
	if m.Root != "" {
		paths = append(paths, m.Root)
	}
	paths = append(paths, m.Paths...)
	return paths
}

// EffectiveMinify 返回特定挂载点生效的压缩开关，未覆盖时回退至全局值。
func (c *Config) EffectiveMinify(m MountConfig) bool {
	switch strings.ToLower(strings.TrimSpace(m.Minify)) {
	case "on":
		return true
	case "off":
		return false
	}
	return c.Global.Minify
}

// MountNames 返回所有挂载点名称摘要，例如 assets:/assets，供启动日志使用。
func MountNames(mounts []MountConfig) []string {
	if len(mounts) == 0 {
		return nil
	}
	result := make([]string, len(mounts))
	for i, mount := range mounts {
		result[i] = fmt.Sprintf("%s:%s", mount.Name, mount.Prefix)
	}
	return result
}
