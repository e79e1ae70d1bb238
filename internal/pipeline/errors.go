package pipeline

import (
	"errors"

	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

// ErrNotFound 表示逻辑路径在所有 load path 下都找不到源文件。
var ErrNotFound = errors.New("asset not found")

// BuildError 是编译失败的类型别名，调用方可直接 errors.As 匹配。
type BuildError = processor.BuildError

// AsBuildError 返回 err 链上的 *BuildError，不存在时返回 nil。
func AsBuildError(err error) *BuildError {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr
	}
	return nil
}
