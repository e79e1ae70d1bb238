// Package javascript 描述 JS 处理器的编译与注册逻辑，基于 esbuild 实现打包与压缩。
package javascript

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

func init() {
	processor.MustRegister(processor.Metadata{
		Key:         "javascript",
		Description: "JavaScript processor with esbuild bundling and optional minification",
		State:       processor.StateStable,
		Extensions:  []string{".js", ".mjs"},
		ContentType: "application/javascript",
		Charset:     "utf-8",
		CacheProfile: processor.CacheProfile{
			Cacheable:  true,
			DiskLayout: "digest_suffix",
		},
		Transform: Transform,
	})
}

// Transform 编译单个 JS 入口。Bundle 模式走 api.Build 以内联依赖，
// self pipeline（Bundle=false）走 api.Transform 只转换当前文件。
func Transform(ctx context.Context, source []byte, opts processor.TransformOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !opts.Bundle {
		result := api.Transform(string(source), api.TransformOptions{
			Loader:            api.LoaderJS,
			Sourcefile:        opts.SourcePath,
			MinifyWhitespace:  opts.Minify,
			MinifyIdentifiers: opts.Minify,
			MinifySyntax:      opts.Minify,
			LogLevel:          api.LogLevelSilent,
		})
		if len(result.Errors) > 0 {
			return nil, buildError(result.Errors)
		}
		return result.Code, nil
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{opts.SourcePath},
		Bundle:            true,
		Write:             false,
		Outdir:            "out",
		NodePaths:         opts.ResolveDirs,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		LogLevel:          api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".js":  api.LoaderJS,
			".mjs": api.LoaderJS,
		},
	})
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}

	for _, file := range result.OutputFiles {
		if filepath.Ext(file.Path) == ".js" {
			return file.Contents, nil
		}
	}
	return nil, &processor.BuildError{Name: "BuildError", Message: "no javascript output generated"}
}

func buildError(messages []api.Message) *processor.BuildError {
	first := messages[0]
	frames := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Location != nil {
			frames = append(frames, fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column))
		}
	}
	return &processor.BuildError{
		Name:    "SyntaxError",
		Message: first.Text,
		Frames:  frames,
	}
}
