package processor

import "fmt"

// BuildError 表示编译阶段失败，携带足够信息生成客户端可见的诊断响应。
type BuildError struct {
	// Name 是错误类型名，例如 SyntaxError。
	Name string
	// Message 是人类可读的失败原因。
	Message string
	// Frames 按 file:line:column 格式记录失败位置，首帧最相关。
	Frames []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// FirstFrame 返回最相关的定位帧，缺失时返回空字符串。
func (e *BuildError) FirstFrame() string {
	if len(e.Frames) == 0 {
		return ""
	}
	return e.Frames[0]
}
