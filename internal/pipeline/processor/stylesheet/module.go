// Package stylesheet 描述 CSS 处理器的编译与注册逻辑，基于 esbuild 实现 @import 内联与压缩。
package stylesheet

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
)

func init() {
	processor.MustRegister(processor.Metadata{
		Key:         "stylesheet",
		Description: "CSS processor with esbuild import inlining and optional minification",
		State:       processor.StateStable,
		Extensions:  []string{".css"},
		ContentType: "text/css",
		Charset:     "utf-8",
		CacheProfile: processor.CacheProfile{
			Cacheable:  true,
			DiskLayout: "digest_suffix",
		},
		Transform: Transform,
	})
}

// Transform 编译单个 CSS 入口，语义与 javascript.Transform 对应。
func Transform(ctx context.Context, source []byte, opts processor.TransformOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !opts.Bundle {
		result := api.Transform(string(source), api.TransformOptions{
			Loader:           api.LoaderCSS,
			Sourcefile:       opts.SourcePath,
			MinifyWhitespace: opts.Minify,
			MinifySyntax:     opts.Minify,
			LogLevel:         api.LogLevelSilent,
		})
		if len(result.Errors) > 0 {
			return nil, buildError(result.Errors)
		}
		return result.Code, nil
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:      []string{opts.SourcePath},
		Bundle:           true,
		Write:            false,
		Outdir:           "out",
		NodePaths:        opts.ResolveDirs,
		MinifyWhitespace: opts.Minify,
		MinifySyntax:     opts.Minify,
		LogLevel:         api.LogLevelSilent,
		Loader: map[string]api.Loader{
			".css": api.LoaderCSS,
		},
	})
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}

	for _, file := range result.OutputFiles {
		if filepath.Ext(file.Path) == ".css" {
			return file.Contents, nil
		}
	}
	return nil, &processor.BuildError{Name: "BuildError", Message: "no stylesheet output generated"}
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
