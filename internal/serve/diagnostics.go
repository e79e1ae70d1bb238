package serve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asset-pipe/asset-pipe/internal/pipeline"
)

// javascriptDiagnostic 把构建失败包装成一条 throw 语句，让浏览器在
// 自己的控制台里呈现编译错误，而不是一个不透明的网络错误。
func javascriptDiagnostic(buildErr *pipeline.BuildError) string {
	detail := buildErr.Name + ": " + buildErr.Message
	if frame := buildErr.FirstFrame(); frame != "" {
		detail += "\n  (in " + frame + ")"
	}
	return "throw Error(" + strconv.Quote(detail) + ")"
}

// stylesheetDiagnostic 生成一份覆盖整页的样式表：隐藏原有内容，
// 用伪元素把错误类型、消息和首个堆栈帧直接渲染在页面上。
func stylesheetDiagnostic(buildErr *pipeline.BuildError) string {
	message := "\n" + buildErr.Name + ": " + buildErr.Message
	frame := ""
	if f := buildErr.FirstFrame(); f != "" {
		frame = "\n  " + f
	}
	return fmt.Sprintf(stylesheetDiagnosticTemplate,
		escapeStylesheetContent(message),
		escapeStylesheetContent(frame))
}

const stylesheetDiagnosticTemplate = `html {
  padding: 18px 36px;
}

head {
  display: block;
}

body {
  margin: 0;
  padding: 0;
}

body > * {
  display: none !important;
}

head:after, body:before, body:after {
  display: block !important;
}

head:after {
  font-family: sans-serif;
  font-size: large;
  font-weight: bold;
  content: "Error compiling CSS asset";
}

body:before, body:after {
  font-family: monospace;
  white-space: pre-wrap;
}

body:before {
  font-weight: bold;
  content: "%s";
}

body:after {
  content: "%s";
}
`

// stylesheetContentEscaper 按 CSS 字符串转义规则处理注入文本，
// 保证生成的样式表自身始终合法。Replacer 单趟替换，
// 转义产物不会被二次处理。
var stylesheetContentEscaper = strings.NewReplacer(
	`\`, `\005c `,
	"\n", `\000a `,
	`"`, `\0022 `,
	`/`, `\002f `,
)

func escapeStylesheetContent(s string) string {
	return stylesheetContentEscaper.Replace(s)
}
