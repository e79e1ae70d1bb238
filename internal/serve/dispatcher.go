package serve

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/asset-pipe/asset-pipe/internal/server"
)

// MountHandler is the runtime contract a mount override must provide to serve
// requests. It aligns with server.AssetHandler so existing handlers remain
// compatible.
type MountHandler = server.AssetHandler

// MountRegistration captures a mount name and its handler for safe registration.
type MountRegistration struct {
	Name    string
	Handler MountHandler
}

// ErrMountHandlerExists indicates a handler has already been registered for the mount.
var ErrMountHandlerExists = errors.New("mount handler already registered")

// Validate ensures both name and handler are present before registration.
func (r MountRegistration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("mount name required")
	}
	if r.Handler == nil {
		return errors.New("mount handler required")
	}
	return nil
}

var mountHandlers sync.Map

// RegisterMount 注册某个挂载点的覆盖 handler；未注册的挂载点
// 走 Dispatcher 构造时注入的默认 handler。
func RegisterMount(reg MountRegistration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	normalized := normalizeMountName(reg.Name)
	if normalized == "" {
		return errors.New("mount name required")
	}
	if _, loaded := mountHandlers.LoadOrStore(normalized, reg.Handler); loaded {
		return fmt.Errorf("%w: %s", ErrMountHandlerExists, normalized)
	}
	return nil
}

// MustRegisterMount panics when registration fails; suitable for init().
func MustRegisterMount(reg MountRegistration) {
	if err := RegisterMount(reg); err != nil {
		panic(err)
	}
}

// Dispatcher 根据 MountRoute 选择对应的 handler，默认回退到构造时注入的
// handler，并把 handler panic 收敛为 500 响应而不是拖垮整个进程。
type Dispatcher struct {
	defaultHandler server.AssetHandler
	logger         *logrus.Logger
}

// NewDispatcher 创建 Dispatcher，defaultHandler 不能为空。
func NewDispatcher(defaultHandler server.AssetHandler, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		defaultHandler: defaultHandler,
		logger:         logger,
	}
}

// Handle 实现 server.AssetHandler，根据 route.Config.Name 选择 handler。
func (d *Dispatcher) Handle(c fiber.Ctx, route *server.MountRoute) error {
	requestID := server.RequestID(c)
	handler := d.lookup(route)
	if handler == nil {
		return d.respondMissingHandler(c, route, requestID)
	}
	return d.invokeHandler(c, route, handler, requestID)
}

func (d *Dispatcher) respondMissingHandler(c fiber.Ctx, route *server.MountRoute, requestID string) error {
	d.logMountError(route, "mount_handler_missing", nil, requestID)
	setRequestIDHeader(c, requestID)
	return c.Status(fiber.StatusInternalServerError).
		JSON(fiber.Map{"error": "mount_handler_missing"})
}

func (d *Dispatcher) invokeHandler(c fiber.Ctx, route *server.MountRoute, handler server.AssetHandler, requestID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.respondHandlerPanic(c, route, r, requestID)
		}
	}()
	return handler.Handle(c, route)
}

func (d *Dispatcher) respondHandlerPanic(c fiber.Ctx, route *server.MountRoute, recovered interface{}, requestID string) error {
	d.logMountError(route, "mount_handler_panic", fmt.Errorf("panic: %v", recovered), requestID)
	setRequestIDHeader(c, requestID)
	return c.Status(fiber.StatusInternalServerError).
		JSON(fiber.Map{"error": "mount_handler_panic"})
}

func setRequestIDHeader(c fiber.Ctx, requestID string) {
	if requestID != "" {
		c.Set("X-Request-ID", requestID)
	}
}

func (d *Dispatcher) logMountError(route *server.MountRoute, code string, err error, requestID string) {
	if d.logger == nil {
		return
	}
	fields := logrus.Fields{
		"action": "serve",
		"error":  code,
	}
	if route != nil {
		fields["mount"] = route.Config.Name
		fields["prefix"] = route.Config.Prefix
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		d.logger.WithFields(fields).Error(err.Error())
		return
	}
	d.logger.WithFields(fields).Error("mount handler unavailable")
}

func (d *Dispatcher) lookup(route *server.MountRoute) server.AssetHandler {
	if route != nil {
		if handler := lookupMountHandler(route.Config.Name); handler != nil {
			return handler
		}
	}
	return d.defaultHandler
}

func lookupMountHandler(name string) server.AssetHandler {
	normalized := normalizeMountName(name)
	if normalized == "" {
		return nil
	}
	if value, ok := mountHandlers.Load(normalized); ok {
		if handler, ok := value.(server.AssetHandler); ok {
			return handler
		}
	}
	return nil
}

func normalizeMountName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
