package serve

import (
	"path/filepath"
	"regexp"
	"strings"
)

// fingerprintPattern 匹配紧贴最终扩展名的内容指纹 "-<hash>.<ext>"。
// 哈希长度限定在 [7,128]，避免把普通的 "-数字" 文件名后缀误判成指纹。
var fingerprintPattern = regexp.MustCompile(`-([0-9a-f]{7,128})(\.[^./]+)$`)

// splitFingerprint 从请求路径中剥离指纹：只移除 "-<hash>" 子串，
// 保留扩展名，返回查找用的逻辑路径与指纹（无指纹时为空串）。
func splitFingerprint(rawPath string) (cleanPath, fingerprint string) {
	m := fingerprintPattern.FindStringSubmatchIndex(rawPath)
	if m == nil {
		return rawPath, ""
	}
	cleanPath = rawPath[:m[0]] + rawPath[m[4]:m[5]]
	fingerprint = rawPath[m[2]:m[3]]
	return cleanPath, fingerprint
}

// isForbidden 在路径包含 ".." 或本身是绝对路径时返回 true。
// 上游虽已剥掉单个前导斜杠，但解码后的段仍可能重新引入越界，
// 这里必须再查一次。
func isForbidden(cleanPath string) bool {
	return strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath)
}
