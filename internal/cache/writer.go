package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

// ErrStoreUnavailable 表示当前处理器未注入缓存存储实例。
var ErrStoreUnavailable = errors.New("cache store unavailable")

// ProfileWriter 注入处理器的缓存策略，提供复用决策与写入封装。
type ProfileWriter struct {
	store   Store
	profile processor.CacheProfile
	now     func() time.Time
}

// NewProfileWriter 构造策略感知的写入器，默认使用 time.Now 作为时钟。
func NewProfileWriter(store Store, profile processor.CacheProfile) ProfileWriter {
	return ProfileWriter{
		store:   store,
		profile: profile,
		now:     time.Now,
	}
}

// Enabled 返回当前是否具备缓存写入能力。
func (w ProfileWriter) Enabled() bool {
	return w.store != nil && w.profile.Cacheable
}

// Put 写入编译产物，并保持与 Store 相同的语义。
func (w ProfileWriter) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	if !w.Enabled() {
		return nil, ErrStoreUnavailable
	}
	return w.store.Put(ctx, locator, body, opts)
}

// Get 读取缓存条目；未启用缓存时直接返回 ErrNotFound。
func (w ProfileWriter) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	if !w.Enabled() {
		return nil, ErrNotFound
	}
	return w.store.Get(ctx, locator)
}

// ShouldReuse 判断缓存条目是否仍然新鲜：源文件 mtime 不晚于产物 mtime 即可复用。
func (w ProfileWriter) ShouldReuse(entry Entry, sourceModTime time.Time) bool {
	if !w.profile.Cacheable {
		return false
	}
	return !sourceModTime.After(entry.ModTime)
}
