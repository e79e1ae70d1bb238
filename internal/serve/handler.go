package serve

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/asset-pipe/asset-pipe/internal/logging"
	"github.com/asset-pipe/asset-pipe/internal/pipeline"
	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
	"github.com/asset-pipe/asset-pipe/internal/server"
)

// Resolver 把逻辑路径解析为编译完成的资源。缺失返回 pipeline.ErrNotFound，
// 编译失败返回 *pipeline.BuildError，其余错误原样上抛。
type Resolver interface {
	Find(ctx context.Context, logicalPath string, opts pipeline.FindOptions) (*pipeline.Asset, error)
}

// Handler 实现 server.AssetHandler：校验方法、路径与条件头，从对应
// 挂载点的 Resolver 取回资源并产出精确的缓存语义响应。
// Handler 无共享可变状态，可并发调用。
type Handler struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
	logger    *logrus.Logger
}

// NewHandler 创建 Handler；Resolver 在启动阶段逐个注册。
func NewHandler(logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		resolvers: make(map[string]Resolver),
		logger:    logger,
	}
}

// RegisterResolver 绑定挂载点名称到 Resolver。
func (h *Handler) RegisterResolver(mount string, resolver Resolver) {
	h.mu.Lock()
	h.resolvers[mount] = resolver
	h.mu.Unlock()
}

// Handle 处理一次资源请求。状态推导的优先级是固定的：
// 405 → 403 → 404（缺失或指纹不符）→ 412 → 304 → 200。
func (h *Handler) Handle(c fiber.Ctx, route *server.MountRoute) error {
	started := time.Now()

	if c.Method() != fiber.MethodGet {
		h.logServe(c, route, "", "", false, fiber.StatusMethodNotAllowed, started)
		return respondFixed(c, fiber.StatusMethodNotAllowed, bodyMethodNotAllowed, false)
	}

	rawPath := strings.TrimPrefix(server.LogicalPath(c), "/")
	clean, fingerprint := splitFingerprint(rawPath)
	fingerprinted := fingerprint != ""

	if isForbidden(clean) {
		h.logServe(c, route, clean, "", fingerprinted, fiber.StatusForbidden, started)
		return respondFixed(c, fiber.StatusForbidden, bodyForbidden, false)
	}

	resolver := h.lookupResolver(route)
	if resolver == nil {
		h.logger.WithFields(logrus.Fields{
			"action": "serve",
			"mount":  route.Config.Name,
			"error":  "resolver_missing",
		}).Warn("no resolver registered for mount")
		return respondFixed(c, fiber.StatusNotFound, bodyNotFound, true)
	}

	opts := pipeline.FindOptions{}
	if wantsBodyOnly(string(c.Request().URI().QueryString())) {
		opts.Pipeline = pipeline.PipelineSelf
	}

	asset, err := resolver.Find(c.Context(), clean, opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			h.logServe(c, route, clean, "", fingerprinted, fiber.StatusNotFound, started)
			return respondFixed(c, fiber.StatusNotFound, bodyNotFound, true)
		}
		if buildErr := pipeline.AsBuildError(err); buildErr != nil {
			return h.respondBuildFailure(c, route, clean, fingerprinted, buildErr, started)
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action": "serve",
			"mount":  route.Config.Name,
			"path":   clean,
		}).Error("asset resolution failed")
		return err
	}

	// body-only 请求的历史调用方不携带与指纹一致的 ETag；
	// self 管线解析成功后，路径指纹不再参与校验。
	validation := fingerprint
	if opts.Pipeline == pipeline.PipelineSelf {
		validation = ""
	}

	ifMatch, hasIfMatch := parseETagHeader(requestHeader(c, fiber.HeaderIfMatch))
	ifNoneMatch, hasIfNoneMatch := parseETagHeader(requestHeader(c, fiber.HeaderIfNoneMatch))

	status := conditional{
		fingerprint:    validation,
		etag:           asset.Digest,
		ifMatch:        ifMatch,
		hasIfMatch:     hasIfMatch,
		ifNoneMatch:    ifNoneMatch,
		hasIfNoneMatch: hasIfNoneMatch,
	}.status()

	h.logServe(c, route, clean, asset.Processor, fingerprinted, status, started)

	switch status {
	case fiber.StatusNotFound:
		return respondFixed(c, fiber.StatusNotFound, bodyNotFound, true)
	case fiber.StatusPreconditionFailed:
		return respondFixed(c, fiber.StatusPreconditionFailed, bodyPreconditionFailed, true)
	case fiber.StatusNotModified:
		return respondNotModified(c, asset.Digest, fingerprinted)
	default:
		return respondAsset(c, asset, fingerprinted)
	}
}

// respondBuildFailure 按扩展名对应的处理器决定恢复策略：脚本和样式表
// 降级为 200 诊断响应，其余类型把错误原样上抛给外层错误处理。
func (h *Handler) respondBuildFailure(
	c fiber.Ctx,
	route *server.MountRoute,
	clean string,
	fingerprinted bool,
	buildErr *pipeline.BuildError,
	started time.Time,
) error {
	meta, _ := processor.ResolveExtension(path.Ext(clean))

	var body, contentType string
	switch meta.Key {
	case "javascript":
		body = javascriptDiagnostic(buildErr)
		contentType = "application/javascript"
	case "stylesheet":
		body = stylesheetDiagnostic(buildErr)
		contentType = "text/css; charset=utf-8"
	default:
		h.logServe(c, route, clean, meta.Key, fingerprinted, fiber.StatusInternalServerError, started)
		return buildErr
	}

	h.logServe(c, route, clean, meta.Key, fingerprinted, fiber.StatusOK, started)

	c.Set(fiber.HeaderContentType, contentType)
	c.Response().Header.SetContentLength(len(body))
	c.Status(fiber.StatusOK)
	_, err := c.Response().BodyWriter().Write([]byte(body))
	return err
}

func (h *Handler) lookupResolver(route *server.MountRoute) Resolver {
	if route == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.resolvers[route.Config.Name]
}

func requestHeader(c fiber.Ctx, name string) string {
	return string(c.Request().Header.Peek(name))
}

// wantsBodyOnly 对查询串做子串匹配而非完整解析，
// 与历史调用方发送的 body=1 / body=t 形式保持兼容。
func wantsBodyOnly(query string) bool {
	return strings.Contains(query, "body=1") || strings.Contains(query, "body=t")
}

func (h *Handler) logServe(
	c fiber.Ctx,
	route *server.MountRoute,
	logicalPath string,
	processorKey string,
	fingerprinted bool,
	status int,
	started time.Time,
) {
	fields := logging.ServeFields(route.Config.Name, route.Config.Prefix, logicalPath, processorKey, fingerprinted)
	fields["action"] = "serve"
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if reqID := server.RequestID(c); reqID != "" {
		fields["request_id"] = reqID
	}
	h.logger.WithFields(fields).Info("request_complete")
}
