// Package pipeline resolves logical asset paths into compiled, digest-stamped
// assets. An Environment serves one mount: it locates sources across the
// mount's load paths, picks a processor by extension, compiles through esbuild
// where applicable, and memoizes results until the source file changes. The
// compiled output is persisted through the cache store and recorded in the
// sqlite manifest so restarts can skip recompilation. The HTTP serving layer
// depends only on Find and the Asset type.
package pipeline
