package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/asset-pipe/asset-pipe/internal/cache"
	"github.com/asset-pipe/asset-pipe/internal/config"
	"github.com/asset-pipe/asset-pipe/internal/logging"
	"github.com/asset-pipe/asset-pipe/internal/manifest"
	"github.com/asset-pipe/asset-pipe/internal/pipeline"
	"github.com/asset-pipe/asset-pipe/internal/serve"
	"github.com/asset-pipe/asset-pipe/internal/server"
	"github.com/asset-pipe/asset-pipe/internal/server/routes"
	"github.com/asset-pipe/asset-pipe/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["mounts"] = config.MountNames(cfg.Mounts)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	registry, err := server.NewMountRegistry(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "构建挂载点注册表失败: %v\n", err)
		return 1
	}

	// CLI 启动遵循"配置 → MountRegistry → 磁盘缓存/manifest → 挂载点
	// 环境 → Fiber server"顺序，保证所有请求共享统一的路由与缓存实例。
	store, err := cache.NewStore(cfg.Global.CachePath)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}

	manifestStore, err := manifest.Open(cfg.Global.ManifestPath)
	if err != nil {
		fmt.Fprintf(stdErr, "打开构建清单失败: %v\n", err)
		return 1
	}
	defer manifestStore.Close()

	handler := serve.NewHandler(logger)
	stopWatchers, err := buildEnvironments(cfg, store, manifestStore, handler, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化挂载点环境失败: %v\n", err)
		return 1
	}
	defer stopWatchers()

	dispatcher := serve.NewDispatcher(handler, logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["mounts"] = config.MountNames(cfg.Mounts)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["watch"] = cfg.Global.Watch
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, registry, dispatcher, manifestStore, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// buildEnvironments 为每个挂载点创建 pipeline 环境并注册到 handler，
// 按需启动文件监听。返回的函数停止所有 watcher。
func buildEnvironments(
	cfg *config.Config,
	store cache.Store,
	manifestStore *manifest.Store,
	handler *serve.Handler,
	logger *logrus.Logger,
) (func(), error) {
	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}

	for _, mount := range cfg.Mounts {
		env, err := pipeline.NewEnvironment(pipeline.EnvironmentOptions{
			Mount:    mount,
			Minify:   cfg.EffectiveMinify(mount),
			Store:    store,
			Manifest: manifestStore,
			Logger:   logger,
		})
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("mount %s: %w", mount.Name, err)
		}
		handler.RegisterResolver(mount.Name, env)

		if cfg.Global.Watch {
			stop, err := env.Watch(cfg.Global.WatchDebounce.DurationValue())
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"action": "watch",
					"mount":  mount.Name,
				}).Warn("文件监听启动失败，继续以无监听模式运行")
				continue
			}
			stops = append(stops, stop)
		}
	}

	return stopAll, nil
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("asset-pipe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ASSET_PIPE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ASSET_PIPE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(
	cfg *config.Config,
	registry *server.MountRegistry,
	assets server.AssetHandler,
	manifestStore *manifest.Store,
	logger *logrus.Logger,
) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		Assets:     assets,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticRoutes(app, registry, manifestStore)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
