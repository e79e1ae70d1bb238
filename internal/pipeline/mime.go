package pipeline

import "strings"

type mimeEntry struct {
	contentType string
	charset     string
}

// mimeTable 覆盖资源服务常见的扩展名；未命中时回退 application/octet-stream。
var mimeTable = map[string]mimeEntry{
	".html":  {"text/html", "utf-8"},
	".htm":   {"text/html", "utf-8"},
	".txt":   {"text/plain", "utf-8"},
	".css":   {"text/css", "utf-8"},
	".js":    {"application/javascript", "utf-8"},
	".mjs":   {"application/javascript", "utf-8"},
	".json":  {"application/json", ""},
	".map":   {"application/json", ""},
	".svg":   {"image/svg+xml", ""},
	".png":   {"image/png", ""},
	".jpg":   {"image/jpeg", ""},
	".jpeg":  {"image/jpeg", ""},
	".gif":   {"image/gif", ""},
	".webp":  {"image/webp", ""},
	".ico":   {"image/x-icon", ""},
	".woff":  {"font/woff", ""},
	".woff2": {"font/woff2", ""},
	".ttf":   {"font/ttf", ""},
	".eot":   {"application/vnd.ms-fontobject", ""},
	".pdf":   {"application/pdf", ""},
	".wasm":  {"application/wasm", ""},
}

// contentTypeFor 根据扩展名返回 Content-Type 与 charset。
func contentTypeFor(ext string) (string, string) {
	entry, ok := mimeTable[strings.ToLower(ext)]
	if !ok {
		return "application/octet-stream", ""
	}
	return entry.contentType, entry.charset
}
