package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/asset-pipe/asset-pipe/internal/cache"
	"github.com/asset-pipe/asset-pipe/internal/config"
	"github.com/asset-pipe/asset-pipe/internal/manifest"
	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

// PipelineSelf 请求未打包的原始产物：只转换入口文件本身，不内联依赖、不压缩。
const PipelineSelf = "self"

// FindOptions 控制一次资源解析的行为。
type FindOptions struct {
	Pipeline string
}

// EnvironmentOptions 汇总构建 Environment 所需的依赖。
type EnvironmentOptions struct {
	Mount config.MountConfig
	// Minify 是该挂载点生效的压缩开关（config.EffectiveMinify 的结果）。
	Minify bool
	// Store 为 nil 时产物只存活在内存。
	Store cache.Store
	// Manifest 为 nil 时跳过构建清单记录与重启后的磁盘复用。
	Manifest *manifest.Store
	Logger   *logrus.Logger
}

// Environment 负责把逻辑路径解析为编译完成的 Asset。
// 单个实例服务一个挂载点，可被并发调用。
type Environment struct {
	mount     config.MountConfig
	loadPaths []string
	minify    bool
	store     cache.Store
	manifest  *manifest.Store
	logger    *logrus.Logger

	mu   sync.Mutex
	memo map[string]*builtAsset
}

type builtAsset struct {
	asset         *Asset
	sourcePath    string
	sourceModTime time.Time
}

// NewEnvironment 构造挂载点环境；Root 必须已配置。
func NewEnvironment(opts EnvironmentOptions) (*Environment, error) {
	if opts.Mount.Root == "" {
		return nil, errors.New("mount root required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Environment{
		mount:     opts.Mount,
		loadPaths: opts.Mount.LoadPaths(),
		minify:    opts.Minify,
		store:     opts.Store,
		manifest:  opts.Manifest,
		logger:    logger,
		memo:      make(map[string]*builtAsset),
	}, nil
}

// MountName 返回该环境服务的挂载点名称。
func (e *Environment) MountName() string {
	return e.mount.Name
}

// Find 把逻辑路径解析为 Asset。源文件缺失返回 ErrNotFound，
// 编译失败返回 *BuildError，其余错误原样上抛。
func (e *Environment) Find(ctx context.Context, logicalPath string, opts FindOptions) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, ok := cleanLogicalPath(logicalPath)
	if !ok {
		return nil, ErrNotFound
	}

	sourcePath, info, err := e.locate(clean)
	if err != nil {
		return nil, err
	}

	key := memoKey(clean, opts.Pipeline)
	if asset := e.lookupMemo(key, sourcePath, info.ModTime()); asset != nil {
		return asset, nil
	}

	asset, err := e.build(ctx, clean, sourcePath, info, opts)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.memo[key] = &builtAsset{
		asset:         asset,
		sourcePath:    sourcePath,
		sourceModTime: info.ModTime(),
	}
	e.mu.Unlock()

	return asset, nil
}

// Invalidate 丢弃指定逻辑路径的所有 memo 变体；watcher 在源文件变更后调用。
func (e *Environment) Invalidate(logicalPath string) {
	clean, ok := cleanLogicalPath(logicalPath)
	if !ok {
		return
	}
	prefix := clean + "|"

	e.mu.Lock()
	for key := range e.memo {
		if strings.HasPrefix(key, prefix) {
			delete(e.memo, key)
		}
	}
	e.mu.Unlock()
}

// InvalidateAll 清空 memo，下一次请求将全部重新构建。
func (e *Environment) InvalidateAll() {
	e.mu.Lock()
	e.memo = make(map[string]*builtAsset)
	e.mu.Unlock()
}

func (e *Environment) lookupMemo(key, sourcePath string, sourceModTime time.Time) *Asset {
	e.mu.Lock()
	defer e.mu.Unlock()

	built, ok := e.memo[key]
	if !ok || built.sourcePath != sourcePath {
		return nil
	}
	if sourceModTime.After(built.sourceModTime) {
		delete(e.memo, key)
		return nil
	}
	return built.asset
}

func (e *Environment) build(
	ctx context.Context,
	clean string,
	sourcePath string,
	info fs.FileInfo,
	opts FindOptions,
) (*Asset, error) {
	started := time.Now()

	ext := path.Ext(clean)
	meta, _ := processor.ResolveExtension(ext)
	bundle := opts.Pipeline != PipelineSelf
	minify := e.minify && bundle
	writer := cache.NewProfileWriter(e.store, meta.CacheProfile)

	if bundle {
		if asset := e.reuseFromDisk(ctx, clean, info, meta, writer); asset != nil {
			return asset, nil
		}
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", sourcePath, err)
	}

	output := source
	if meta.Transform != nil {
		output, err = meta.Transform(ctx, source, processor.TransformOptions{
			SourcePath:  sourcePath,
			ResolveDirs: e.loadPaths,
			Bundle:      bundle,
			Minify:      minify,
		})
		if err != nil {
			return nil, err
		}
	}

	contentType, charset := e.contentTypeFor(meta, ext)
	asset := &Asset{
		LogicalPath: clean,
		URI:         sourcePath,
		Digest:      digestBytes(output),
		Length:      int64(len(output)),
		ContentType: contentType,
		Charset:     charset,
		Processor:   meta.Key,
		body:        output,
	}

	if bundle {
		e.persist(ctx, asset, info.ModTime(), writer)
	}

	e.logger.WithFields(logrus.Fields{
		"action":     "asset_build",
		"mount":      e.mount.Name,
		"path":       clean,
		"processor":  meta.Key,
		"digest":     asset.Digest,
		"size":       asset.Length,
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Debug("build_complete")

	return asset, nil
}

// reuseFromDisk 尝试复用进程重启前的编译产物：manifest 提供 digest，
// 磁盘条目在源文件未变更时直接读回，跳过重新编译。
func (e *Environment) reuseFromDisk(
	ctx context.Context,
	clean string,
	info fs.FileInfo,
	meta processor.Metadata,
	writer cache.ProfileWriter,
) *Asset {
	if e.manifest == nil || !writer.Enabled() {
		return nil
	}

	recorded, err := e.manifest.Lookup(ctx, e.mount.Name, clean)
	if err != nil {
		return nil
	}

	result, err := writer.Get(ctx, e.locatorFor(clean, recorded.Digest))
	if err != nil {
		return nil
	}
	defer result.Reader.Close()

	if !writer.ShouldReuse(result.Entry, info.ModTime()) {
		return nil
	}

	body, err := io.ReadAll(result.Reader)
	if err != nil {
		return nil
	}

	_, charset := e.contentTypeFor(meta, path.Ext(clean))
	return &Asset{
		LogicalPath: clean,
		URI:         filepath.Join(e.mount.Root, filepath.FromSlash(clean)),
		Digest:      recorded.Digest,
		Length:      int64(len(body)),
		ContentType: recorded.ContentType,
		Charset:     charset,
		Processor:   meta.Key,
		body:        body,
	}
}

func (e *Environment) persist(ctx context.Context, asset *Asset, sourceModTime time.Time, writer cache.ProfileWriter) {
	if writer.Enabled() {
		locator := e.locatorFor(asset.LogicalPath, asset.Digest)
		reader, _ := asset.Open()
		_, err := writer.Put(ctx, locator, reader, cache.PutOptions{ModTime: sourceModTime})
		reader.Close()
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_put",
				"mount":  e.mount.Name,
				"path":   asset.LogicalPath,
			}).Warn("cache_put_failed")
		}
	}

	if e.manifest != nil {
		err := e.manifest.Record(ctx, manifest.Entry{
			Mount:       e.mount.Name,
			LogicalPath: asset.LogicalPath,
			Digest:      asset.Digest,
			ContentType: asset.ContentType,
			SizeBytes:   asset.Length,
			BuiltAt:     time.Now().UTC(),
		})
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"action": "manifest_record",
				"mount":  e.mount.Name,
				"path":   asset.LogicalPath,
			}).Warn("manifest_record_failed")
		}
	}
}

func (e *Environment) contentTypeFor(meta processor.Metadata, ext string) (string, string) {
	if meta.ContentType != "" {
		return meta.ContentType, meta.Charset
	}
	return contentTypeFor(ext)
}

func (e *Environment) locatorFor(clean, digest string) cache.Locator {
	return cache.Locator{
		Mount: e.mount.Name,
		Path:  "/" + clean + "-" + digest,
	}
}

func (e *Environment) locate(clean string) (string, fs.FileInfo, error) {
	for _, dir := range e.loadPaths {
		full := filepath.Join(dir, filepath.FromSlash(clean))
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", nil, err
		}
		if info.IsDir() {
			continue
		}
		return full, info, nil
	}
	return "", nil, ErrNotFound
}

// cleanLogicalPath 规范化逻辑路径；越界或绝对路径返回 false。
// 上层 handler 已经拒绝这类路径，这里是对直接调用方的兜底。
func cleanLogicalPath(logicalPath string) (string, bool) {
	trimmed := strings.TrimPrefix(logicalPath, "/")
	clean := path.Clean(trimmed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", false
	}
	return clean, true
}

func memoKey(clean, pipeline string) string {
	return clean + "|" + pipeline
}
