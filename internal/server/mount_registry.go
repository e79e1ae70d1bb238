package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asset-pipe/asset-pipe/internal/config"
)

// MountRoute 将挂载点配置与派生属性（生效的压缩开关、监听端口）聚合在一起，
// 供路由/服务层直接复用，避免重复读取配置。
type MountRoute struct {
	// Config 是用户在 config.toml 中声明的 Mount 字段副本，避免外部修改。
	Config config.MountConfig
	// ListenPort 记录当前 CLI 监听端口，方便日志输出。
	ListenPort int
	// Minify 是对当前挂载点生效的压缩开关，若 Mount 未覆盖则等于全局值。
	Minify bool
}

// MountRegistry 提供 URL 前缀到 MountRoute 的查询能力，所有挂载点共享同一个监听端口。
type MountRegistry struct {
	// ordered 按前缀长度降序排列，保证最长前缀优先匹配。
	ordered []*MountRoute
	byName  map[string]*MountRoute
}

// NewMountRegistry 根据配置构建前缀映射。调用方应在启动阶段创建一次并复用。
func NewMountRegistry(cfg *config.Config) (*MountRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	registry := &MountRegistry{
		byName: make(map[string]*MountRoute, len(cfg.Mounts)),
	}

	seen := make(map[string]string, len(cfg.Mounts))
	for _, mount := range cfg.Mounts {
		prefix := normalizePrefix(mount.Prefix)
		if prefix == "" || prefix == "/" {
			return nil, fmt.Errorf("invalid prefix for mount %s", mount.Name)
		}
		if owner, exists := seen[prefix]; exists {
			return nil, fmt.Errorf("duplicate prefix mapping detected for %s (mounts %s and %s)", prefix, owner, mount.Name)
		}
		seen[prefix] = mount.Name

		route := &MountRoute{
			Config:     mount,
			ListenPort: cfg.Global.ListenPort,
			Minify:     cfg.EffectiveMinify(mount),
		}
		registry.ordered = append(registry.ordered, route)
		registry.byName[mount.Name] = route
	}

	sort.SliceStable(registry.ordered, func(i, j int) bool {
		return len(registry.ordered[i].Config.Prefix) > len(registry.ordered[j].Config.Prefix)
	})

	return registry, nil
}

// Lookup 根据请求路径查找最长前缀匹配的 MountRoute，
// 并返回剥离前缀后的剩余路径（始终以 "/" 开头）。
func (r *MountRegistry) Lookup(requestPath string) (*MountRoute, string, bool) {
	if r == nil {
		return nil, "", false
	}

	requestPath = normalizePrefix(requestPath)
	for _, route := range r.ordered {
		prefix := route.Config.Prefix
		if requestPath == prefix {
			return route, "/", true
		}
		if strings.HasPrefix(requestPath, prefix+"/") {
			return route, requestPath[len(prefix):], true
		}
	}
	return nil, "", false
}

// LookupName 根据挂载点名称查找 MountRoute，供诊断接口使用。
func (r *MountRegistry) LookupName(name string) (*MountRoute, bool) {
	if r == nil {
		return nil, false
	}
	route, ok := r.byName[name]
	return route, ok
}

// List 返回当前注册的 MountRoute 列表（按前缀长度降序），用于调试或诊断输出。
func (r *MountRegistry) List() []MountRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}

	result := make([]MountRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}

func normalizePrefix(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
		if raw == "" {
			raw = "/"
		}
	}
	return raw
}
