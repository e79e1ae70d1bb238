package serve

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/asset-pipe/asset-pipe/internal/pipeline"
)

// 固定响应体。Content-Length 一律按实际字节数计算。
const (
	bodyForbidden          = "Forbidden"
	bodyNotFound           = "Not found"
	bodyMethodNotAllowed   = "Method Not Allowed"
	bodyPreconditionFailed = "Precondition Failed"
)

// respondFixed 输出固定 plain-text 响应体；cascade 为 true 时附带
// X-Cascade: pass，允许外层路由链继续尝试其它 handler。
func respondFixed(c fiber.Ctx, status int, body string, cascade bool) error {
	c.Set(fiber.HeaderContentType, "text/plain")
	if cascade {
		c.Set("X-Cascade", "pass")
	}
	c.Response().Header.SetContentLength(len(body))
	c.Status(status)

	_, err := io.Copy(c.Response().BodyWriter(), strings.NewReader(body))
	return err
}

// setCacheHeaders 写入 OK/NotModified 共用的缓存头。指纹化路径的内容
// 一经发布便不可变，按一年上限缓存；其余路径要求重新校验，
// 并按 Accept-Encoding 区分压缩变体。
func setCacheHeaders(c fiber.Ctx, etag string, fingerprinted bool) {
	c.Set(fiber.HeaderETag, `"`+etag+`"`)
	if fingerprinted {
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
		return
	}
	c.Set(fiber.HeaderCacheControl, "public, must-revalidate")
	c.Set(fiber.HeaderVary, "Accept-Encoding")
}

// respondAsset 输出 200 响应并把资源内容一次性写入响应体。
func respondAsset(c fiber.Ctx, asset *pipeline.Asset, fingerprinted bool) error {
	setCacheHeaders(c, asset.Digest, fingerprinted)
	if ct := contentTypeHeader(asset); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
	c.Response().Header.SetContentLength(int(asset.Length))
	c.Status(fiber.StatusOK)

	reader, err := asset.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = io.Copy(c.Response().BodyWriter(), reader)
	return err
}

// respondNotModified 输出无响应体的 304。
func respondNotModified(c fiber.Ctx, etag string, fingerprinted bool) error {
	setCacheHeaders(c, etag, fingerprinted)
	c.Status(fiber.StatusNotModified)
	return nil
}

// contentTypeHeader 组装 Content-Type；charset 只追加在 text/* 类型上。
func contentTypeHeader(asset *pipeline.Asset) string {
	if asset.ContentType == "" {
		return ""
	}
	if asset.Charset != "" && strings.HasPrefix(asset.ContentType, "text/") {
		return asset.ContentType + "; charset=" + asset.Charset
	}
	return asset.ContentType
}
