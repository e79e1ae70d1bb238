package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/asset-pipe/asset-pipe/internal/manifest"
	"github.com/asset-pipe/asset-pipe/internal/pipeline/processor"
	"github.com/asset-pipe/asset-pipe/internal/server"
)

// RegisterDiagnosticRoutes 暴露 /-/processors 与 /-/manifest 诊断接口，
// 供 SRE 查询处理器注册表与挂载点的构建清单。
func RegisterDiagnosticRoutes(app *fiber.App, registry *server.MountRegistry, store *manifest.Store) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/processors", func(c fiber.Ctx) error {
		payload := fiber.Map{
			"processors": encodeProcessors(processor.List()),
			"mounts":     encodeMountBindings(registry.List()),
		}
		return c.JSON(payload)
	})

	app.Get("/-/processors/:key", func(c fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.Params("key")))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "processor_key_required"})
		}
		meta, ok := processor.Resolve(key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "processor_not_found"})
		}
		return c.JSON(encodeProcessor(meta))
	})

	app.Get("/-/manifest/:mount", func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("mount"))
		route, ok := registry.LookupName(name)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "mount_not_found"})
		}
		if store == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "manifest_unavailable"})
		}
		entries, err := store.List(c.Context(), route.Config.Name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "manifest_query_failed"})
		}
		return c.JSON(fiber.Map{
			"mount":   route.Config.Name,
			"entries": entries,
		})
	})
}

type processorPayload struct {
	Key          string              `json:"key"`
	Description  string              `json:"description"`
	State        processor.State     `json:"state"`
	Extensions   []string            `json:"extensions"`
	ContentType  string              `json:"content_type"`
	CacheProfile cacheProfilePayload `json:"cache_profile"`
}

type cacheProfilePayload struct {
	Cacheable  bool   `json:"cacheable"`
	DiskLayout string `json:"disk_layout"`
}

type mountBindingPayload struct {
	MountName string `json:"mount_name"`
	Prefix    string `json:"prefix"`
	Root      string `json:"root"`
	Port      int    `json:"port"`
	Minify    bool   `json:"minify"`
}

func encodeProcessors(metas []processor.Metadata) []processorPayload {
	if len(metas) == 0 {
		return nil
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Key < metas[j].Key
	})
	result := make([]processorPayload, 0, len(metas))
	for _, meta := range metas {
		result = append(result, encodeProcessor(meta))
	}
	return result
}

func encodeProcessor(meta processor.Metadata) processorPayload {
	return processorPayload{
		Key:         meta.Key,
		Description: meta.Description,
		State:       meta.State,
		Extensions:  append([]string(nil), meta.Extensions...),
		ContentType: meta.ContentType,
		CacheProfile: cacheProfilePayload{
			Cacheable:  meta.CacheProfile.Cacheable,
			DiskLayout: meta.CacheProfile.DiskLayout,
		},
	}
}

func encodeMountBindings(routes []server.MountRoute) []mountBindingPayload {
	if len(routes) == 0 {
		return nil
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Config.Name < routes[j].Config.Name
	})
	result := make([]mountBindingPayload, 0, len(routes))
	for _, route := range routes {
		result = append(result, mountBindingPayload{
			MountName: route.Config.Name,
			Prefix:    route.Config.Prefix,
			Root:      route.Config.Root,
			Port:      route.ListenPort,
			Minify:    route.Minify,
		})
	}
	return result
}
