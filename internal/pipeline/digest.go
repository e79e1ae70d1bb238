package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestBytes 计算产物的 sha256 十六进制摘要（64 个小写 hex 字符，
// 落在 URL 指纹 [7,128] 的长度区间内）。
func digestBytes(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
