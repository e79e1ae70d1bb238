package pipeline

import (
	"bytes"
	"io"
)

// Asset 是一次成功构建的只读描述。Digest 对内容是确定的：
// 同一逻辑路径在内容不变时重复构建必然得到相同的 Digest。
type Asset struct {
	// LogicalPath 是挂载点内的相对路径，例如 js/app.js。
	LogicalPath string
	// URI 是编译入口源文件的绝对路径。
	URI string
	// Digest 是编译产物的 sha256 十六进制摘要，同时充当 ETag。
	Digest string
	// Length 是产物字节数。
	Length int64
	// ContentType/Charset 来自处理器元数据或 MIME 表；Charset 可为空。
	ContentType string
	Charset     string
	// Processor 记录构建使用的处理器键，供日志使用。
	Processor string

	body []byte
}

// NewAsset 用给定内容构造 Asset，Digest 与 Length 由内容派生。
// 供自定义 Resolver 与测试桩使用；Environment 构建路径不经过这里。
func NewAsset(logicalPath, contentType, charset, processorKey string, body []byte) *Asset {
	return &Asset{
		LogicalPath: logicalPath,
		Digest:      digestBytes(body),
		Length:      int64(len(body)),
		ContentType: contentType,
		Charset:     charset,
		Processor:   processorKey,
		body:        body,
	}
}

// Open 返回一个新的产物 Reader。每次调用都从头开始，
// 但响应合成层对单次 200 响应只应消费一个 Reader 并负责关闭它。
func (a *Asset) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.body)), nil
}
