package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/user/imdbloader/internal/config"
	"github.com/user/imdbloader/internal/logger"
	"github.com/user/imdbloader/internal/metrics"
	"github.com/user/imdbloader/internal/repository"
	"github.com/user/imdbloader/internal/service"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "loader",
		Short:         "Load IMDb TSV datasets into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 加载环境变量，.env 不存在时直接使用系统环境变量
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newLoadCmd(),
		newCastCmd(),
		newRestoreIndexesCmd(),
		newMigrateCmd(),
		newFetchCmd(),
	)
	return root
}

// app 命令共享的依赖
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	repos   *repository.Repositories
}

// setup 依次加载配置、创建日志器、(可选)迁移、连接数据库。
// 配置错误在任何文件或网络 I/O 之前返回
func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(dsn, logger.Component(log, "migrate")); err != nil {
			return nil, err
		}
	}

	db, err := repository.InitDB(ctx, dsn, cfg.DBMaxOpenConns, logger.Component(log, "store"))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		repos:   repository.NewRepositories(db),
	}, nil
}

func (a *app) close() {
	if err := a.repos.Close(); err != nil {
		a.log.Warn().Err(err).Msg("关闭数据库连接失败")
	}
}

func (a *app) pipeline() *service.Pipeline {
	return service.NewPipeline(a.repos, service.OptionsFromConfig(a.cfg), a.log, a.metrics)
}

// finish 打印汇总并导出指标，失败时同样执行
func (a *app) finish(cmd *cobra.Command, report *service.Report, err error) error {
	if report != nil {
		report.Print(cmd.OutOrStdout())
	}
	if werr := a.metrics.WriteTextfile(a.cfg.MetricsFile); werr != nil {
		a.log.Warn().Err(werr).Str("file", a.cfg.MetricsFile).Msg("写入指标文件失败")
	}
	return err
}
