package serve

import (
	"regexp"

	"github.com/gofiber/fiber/v3"
)

// etagTokenPattern 只接受单个双引号包裹的 token；
// 列表与通配符一律按"头不存在"处理。
var etagTokenPattern = regexp.MustCompile(`^"(\w+)"$`)

// parseETagHeader 从条件头中提取 ETag token，不匹配时视为头缺失。
func parseETagHeader(value string) (string, bool) {
	m := etagTokenPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// conditional 汇总一次条件请求的全部输入。fingerprint 是 body-only
// 覆盖之后的校验指纹；etag 是已解析资源的内容摘要。
type conditional struct {
	fingerprint    string
	etag           string
	ifMatch        string
	hasIfMatch     bool
	ifNoneMatch    string
	hasIfNoneMatch bool
}

// status 按固定优先级推导响应状态。指纹不匹配先于 If-Match 不匹配：
// 错误指纹是资源身份错误，表现为 404；If-Match 只是对已正确定位
// 资源的前置条件，表现为 412。
func (cond conditional) status() int {
	if cond.fingerprint != "" && cond.fingerprint != cond.etag {
		return fiber.StatusNotFound
	}

	effective, present := cond.fingerprint, cond.fingerprint != ""
	if !present {
		effective, present = cond.ifMatch, cond.hasIfMatch
	}
	if present && effective != cond.etag {
		return fiber.StatusPreconditionFailed
	}

	if cond.hasIfNoneMatch && cond.ifNoneMatch == cond.etag {
		return fiber.StatusNotModified
	}
	return fiber.StatusOK
}
