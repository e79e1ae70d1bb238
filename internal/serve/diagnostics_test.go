package serve

import (
	"strings"
	"testing"

	"github.com/asset-pipe/asset-pipe/internal/pipeline"
)

func TestJavascriptDiagnostic(t *testing.T) {
	body := javascriptDiagnostic(&pipeline.BuildError{
		Name:    "SyntaxError",
		Message: `Unexpected ")"`,
		Frames:  []string{"js/app.js:1:4"},
	})

	if !strings.HasPrefix(body, "throw Error(") {
		t.Fatalf("expected throw statement, got %q", body)
	}
	if !strings.Contains(body, `SyntaxError: Unexpected \")\"`) {
		t.Fatalf("expected escaped message, got %q", body)
	}
	if !strings.Contains(body, `(in js/app.js:1:4)`) {
		t.Fatalf("expected frame reference, got %q", body)
	}
}

func TestJavascriptDiagnosticWithoutFrame(t *testing.T) {
	body := javascriptDiagnostic(&pipeline.BuildError{Name: "SyntaxError", Message: "boom"})
	if strings.Contains(body, "(in ") {
		t.Fatalf("frame suffix must be omitted when no frames exist, got %q", body)
	}
}

func TestStylesheetDiagnostic(t *testing.T) {
	body := stylesheetDiagnostic(&pipeline.BuildError{
		Name:    "SyntaxError",
		Message: `unexpected "}"`,
		Frames:  []string{"css/app.css:3:1"},
	})

	if !strings.Contains(body, "body > * {\n  display: none !important;\n}") {
		t.Fatalf("diagnostic stylesheet must hide the page, got %q", body)
	}
	if !strings.Contains(body, `content: "Error compiling CSS asset";`) {
		t.Fatalf("expected heading content, got %q", body)
	}
	// 注入文本中的双引号、换行、斜杠必须按 CSS 转义规则处理。
	if !strings.Contains(body, `\0022 }\0022 `) {
		t.Fatalf("expected escaped quotes in message, got %q", body)
	}
	if !strings.Contains(body, `css\002f app.css:3:1`) {
		t.Fatalf("expected escaped frame path, got %q", body)
	}
}

func TestEscapeStylesheetContent(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{`back\slash`, `back\005c slash`},
		{"line\nbreak", `line\000a break`},
		{`say "hi"`, `say \0022 hi\0022 `},
		{`a/b`, `a\002f b`},
	}
	for _, tc := range cases {
		if got := escapeStylesheetContent(tc.in); got != tc.out {
			t.Fatalf("escape(%q): expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
