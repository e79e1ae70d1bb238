package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AssetHandler describes the component responsible for serving an asset
// request under a resolved mount. It allows injecting fake handlers during tests.
type AssetHandler interface {
	Handle(fiber.Ctx, *MountRoute) error
}

// AssetHandlerFunc adapts a function to the AssetHandler interface.
type AssetHandlerFunc func(fiber.Ctx, *MountRoute) error

// Handle makes AssetHandlerFunc satisfy AssetHandler.
func (f AssetHandlerFunc) Handle(c fiber.Ctx, route *MountRoute) error {
	return f(c, route)
}

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *MountRegistry
	Assets     AssetHandler
	ListenPort int
}

const (
	contextKeyRoute       = "_assetpipe_route"
	contextKeyLogicalPath = "_assetpipe_logical_path"
	contextKeyRequestID   = "_assetpipe_request_id"
)

// NewApp builds a Fiber application with prefix routing middleware and
// structured error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("mount registry is required")
	}
	if opts.Assets == nil {
		return nil, errors.New("asset handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts))

	app.All("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		route, _ := getRouteFromContext(c)
		if route == nil {
			return renderPrefixUnmapped(c, opts.Logger, "", opts.ListenPort)
		}
		return opts.Assets.Handle(c, route)
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并基于 URL 前缀查找 MountRoute。
func requestContextMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		requestPath := string(c.Request().URI().Path())
		if isDiagnosticsPath(requestPath) {
			return c.Next()
		}

		route, logicalPath, ok := opts.Registry.Lookup(requestPath)
		if !ok {
			return renderPrefixUnmapped(c, opts.Logger, requestPath, opts.ListenPort)
		}

		c.Locals(contextKeyRoute, route)
		c.Locals(contextKeyLogicalPath, logicalPath)
		return c.Next()
	}
}

func renderPrefixUnmapped(c fiber.Ctx, logger *logrus.Logger, requestPath string, port int) error {
	fields := logrus.Fields{
		"action": "prefix_lookup",
		"path":   requestPath,
		"port":   port,
	}
	logger.WithFields(fields).Warn("prefix unmapped")

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "prefix_unmapped",
	})
}

func getRouteFromContext(c fiber.Ctx) (*MountRoute, bool) {
	if value := c.Locals(contextKeyRoute); value != nil {
		if route, ok := value.(*MountRoute); ok {
			return route, true
		}
	}
	return nil, false
}

// LogicalPath returns the prefix-stripped request path stored by the router
// middleware. It always starts with "/" when a route was resolved.
func LogicalPath(c fiber.Ctx) string {
	if value := c.Locals(contextKeyLogicalPath); value != nil {
		if p, ok := value.(string); ok {
			return p
		}
	}
	return ""
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
