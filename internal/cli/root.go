package cli

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/repository"
	"campus-scheduler/internal/service"
	"campus-scheduler/pkg/database"
	applogger "campus-scheduler/pkg/logger"
	"campus-scheduler/pkg/metrics"
)

var version = "dev"

// SetVersion 设置 --version 输出
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// ServiceFactory 按配置构建导入服务；返回的 cleanup 在命令结束时调用
type ServiceFactory func(cfg *config.Config) (svc service.ImportService, cleanup func(), err error)

// NewRootCmd 创建 importctl 根命令
func NewRootCmd(factory ServiceFactory) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "importctl",
		Version: version,
		Short:   "课程 / 教师 / 教室 Excel 批量导入工具",
		Long: `importctl 在命令行中执行与 HTTP 接口相同的导入流程：
解析 Excel，规范化并校验，按冲突策略生成计划，确认后写入数据库。

默认只打印计划（试运行），加 --apply 才会写库。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(newImportCmd(factory, &configPath))
	return root
}

// Execute 以生产依赖运行根命令
func Execute() error {
	return NewRootCmd(defaultServiceFactory).Execute()
}

// defaultServiceFactory 连接数据库并构建导入服务；CLI 不经过 Redis 暂存
func defaultServiceFactory(cfg *config.Config) (service.ImportService, func(), error) {
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	rec, err := metrics.NewRecorder(nil)
	if err != nil {
		logger.Warn("注册指标失败，继续执行", zap.Error(err))
		rec = nil
	}

	svc := service.NewImportService(cfg.Import, repository.NewRepository(db), nil, rec, logger)
	cleanup := func() {
		sqlDB.Close()
		_ = logger.Sync()
	}
	return svc, cleanup, nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
