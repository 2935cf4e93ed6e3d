package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/blockdeck/blockdeck/internal/clidata"
	"github.com/blockdeck/blockdeck/internal/config"
	"github.com/blockdeck/blockdeck/internal/logging"
	"github.com/blockdeck/blockdeck/internal/server"
	"github.com/blockdeck/blockdeck/internal/server/routes"
	"github.com/blockdeck/blockdeck/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	ingestOnly  bool
	// cliDataFile 非空时导入该文件到 we-cli-data 存储后退出。
	cliDataFile    string
	dataVersion    int
	cliDataVersion int
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
		fields["versions"] = cfg.VersionIDs()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 日志 → 存储 → 下载器/生成器 → 导入器 → Fiber server，
	// 导入流程与 HTTP 服务共享同一份 block-state 存储。
	svc, err := buildServices(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["versions"] = cfg.VersionIDs()
	fields["listen_port"] = cfg.Global.ListenPort
	fields["ingest_only"] = opts.ingestOnly
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if opts.cliDataFile != "" {
		if err := svc.importCliData(ctx, opts.cliDataFile, opts.dataVersion, opts.cliDataVersion); err != nil {
			fmt.Fprintf(stdErr, "导入 CLI 数据失败: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.ingestOnly {
		if err := svc.ingestConfigured(ctx); err != nil {
			fmt.Fprintf(stdErr, "导入失败: %v\n", err)
			return 1
		}
		return 0
	}

	go svc.ingestConfigured(ctx)

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		States:     svc.states,
		CliData:    svc.cliData,
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建 HTTP 服务失败: %v\n", err)
		return 1
	}
	routes.RegisterDiagnosticRoutes(app, cfg.VersionIDs())

	if err := server.Serve(ctx, app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet(version.Product, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		ingestOnly bool
		cliFile    string
		dataVer    int
		cliDataVer int
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 BLOCKDECK_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&ingestOnly, "ingest", false, "导入配置中的全部版本后退出，不启动 HTTP 服务")
	fs.StringVar(&cliFile, "import-cli-data", "", "导入 WorldEdit CLI 数据文件后退出，需配合 -data-version")
	fs.IntVar(&dataVer, "data-version", -1, "导入 CLI 数据对应的 data version")
	fs.IntVar(&cliDataVer, "cli-data-version", clidata.DefaultCliDataVersion, "导入 CLI 数据的格式版本")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	if cliFile != "" && dataVer < 0 {
		return cliOptions{}, errors.New("-import-cli-data 需要 -data-version")
	}

	path := os.Getenv("BLOCKDECK_CONFIG")
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
		ingestOnly:  ingestOnly,

		cliDataFile:    cliFile,
		dataVersion:    dataVer,
		cliDataVersion: cliDataVer,
	}, nil
}
