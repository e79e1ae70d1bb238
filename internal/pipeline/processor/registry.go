package processor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultKey = "raw"

var globalRegistry = newRegistry()

type registry struct {
	mu         sync.RWMutex
	processors map[string]Metadata
	extensions map[string]string
}

func newRegistry() *registry {
	return &registry{
		processors: make(map[string]Metadata),
		extensions: make(map[string]string),
	}
}

// Register 将处理器元数据加入全局注册表，重复键或重复扩展名会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合处理器 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的处理器元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// ResolveExtension 根据文件扩展名（含点，如 ".js"）查找处理器；
// 未注册的扩展名回退到默认透传处理器。
func ResolveExtension(ext string) (Metadata, bool) {
	return globalRegistry.resolveExtension(ext)
}

// List 返回按键排序的处理器元数据列表。
func List() []Metadata {
	return globalRegistry.list()
}

// Keys 返回所有已注册处理器的键值，供调试或诊断使用。
func Keys() []string {
	items := List()
	result := make([]string, len(items))
	for i, meta := range items {
		result[i] = meta.Key
	}
	return result
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta Metadata) error {
	if meta.Key == "" {
		return fmt.Errorf("processor key is required")
	}
	key := r.normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("processor key is required")
	}
	meta.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processors[key]; exists {
		return fmt.Errorf("processor %s already registered", key)
	}
	for _, ext := range meta.Extensions {
		normalized := normalizeExtension(ext)
		if normalized == "" {
			return fmt.Errorf("processor %s: empty extension", key)
		}
		if owner, exists := r.extensions[normalized]; exists {
			return fmt.Errorf("extension %s already claimed by %s", normalized, owner)
		}
	}

	r.processors[key] = meta
	for _, ext := range meta.Extensions {
		r.extensions[normalizeExtension(ext)] = key
	}
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	if key == "" {
		return Metadata{}, false
	}
	normalized := r.normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.processors[normalized]
	return meta, ok
}

func (r *registry) resolveExtension(ext string) (Metadata, bool) {
	normalized := normalizeExtension(ext)

	r.mu.RLock()
	key, ok := r.extensions[normalized]
	if !ok {
		key = defaultKey
	}
	meta, found := r.processors[key]
	r.mu.RUnlock()

	return meta, found
}

func (r *registry) list() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.processors) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.processors))
	for key := range r.processors {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.processors[key])
	}
	return result
}

func normalizeExtension(ext string) string {
	normalized := strings.ToLower(strings.TrimSpace(ext))
	if normalized == "" {
		return ""
	}
	if !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	return normalized
}
