package processor

import "context"

// State 描述处理器的成熟度，方便观测端区分 stable/experimental。
type State string

const (
	StateStable       State = "stable"
	StateExperimental State = "experimental"
)

// CacheProfile 描述处理器编译产物的缓存读写策略及其默认值。
type CacheProfile struct {
	// Cacheable 为 false 时产物只在内存中存活，不落磁盘。
	Cacheable bool
	// DiskLayout 描述磁盘条目的命名方式，目前仅 digest_suffix。
	DiskLayout string
}

// TransformOptions 汇总一次编译所需的上下文参数。
type TransformOptions struct {
	// SourcePath 是被编译源文件的绝对路径。
	SourcePath string
	// ResolveDirs 是依赖解析可用的额外目录（挂载点的 load path）。
	ResolveDirs []string
	// Bundle 为 false 时只转换单个源文件，不内联依赖（self pipeline）。
	Bundle bool
	// Minify 控制是否压缩输出。
	Minify bool
}

// TransformFunc 将源文件内容编译为最终产物；失败时返回 *BuildError。
type TransformFunc func(ctx context.Context, source []byte, opts TransformOptions) ([]byte, error)

// Metadata 记录一个处理器的静态信息，供环境查找和诊断端使用。
type Metadata struct {
	Key          string
	Description  string
	State        State
	Extensions   []string
	ContentType  string
	Charset      string
	CacheProfile CacheProfile
	// Transform 为 nil 时按原样透传源内容。
	Transform TransformFunc
}

// DefaultKey 返回内置透传处理器的键值。
func DefaultKey() string {
	return defaultKey
}
