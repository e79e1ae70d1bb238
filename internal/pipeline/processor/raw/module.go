// Package raw 注册默认透传处理器，未被其它处理器认领的扩展名都落到这里。
package raw

import (
	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

func init() {
	processor.MustRegister(processor.Metadata{
		Key:         processor.DefaultKey(),
		Description: "Passthrough processor serving sources byte-for-byte",
		State:       processor.StateStable,
		CacheProfile: processor.CacheProfile{
			Cacheable:  true,
			DiskLayout: "digest_suffix",
		},
		// Transform 留空表示按原样透传；Content-Type 由环境的 MIME 表决定。
	})
}
