// libctl 图书馆管理命令行工具
//
//	libctl serve                       启动HTTP服务
//	libctl migrate                     迁移表结构
//	libctl book add|list|search        馆藏管理
//	libctl patron register|list        读者管理
//	libctl loan borrow|return|list|overdue
//	libctl report inventory|overdue
//	libctl token issue                 为馆员签发Token
//	libctl auth hash-password          生成密码哈希(写入auth.admin_password_hash)
//	libctl notify overdue|listen       逾期提醒
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/app"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/pkg/tracing"
)

// cli 命令共享的配置与日志
type cli struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
	closeLog   func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "图书馆借阅管理",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			log, closeLog, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}
			c.cfg, c.log, c.closeLog = cfg, log, closeLog
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.closeLog != nil {
				return c.closeLog()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "配置文件路径")

	root.AddCommand(
		c.serveCommand(),
		c.migrateCommand(),
		c.bookCommand(),
		c.patronCommand(),
		c.loanCommand(),
		c.reportCommand(),
		c.tokenCommand(),
		c.authCommand(),
		c.notifyCommand(),
	)
	return root
}

// withApp 组装应用后执行fn,结束时释放连接
func (c *cli) withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	a, cleanup, err := app.Initialize(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer cleanup()
	return fn(ctx, a)
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Tracing.Enabled {
				shutdown, err := tracing.InitTracer(ctx, c.cfg.Tracing.ServiceName, c.cfg.Tracing.Endpoint)
				if err != nil {
					return fmt.Errorf("初始化链路追踪失败: %w", err)
				}
				defer func() { _ = shutdown(context.Background()) }()
			}
			return c.withApp(ctx, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "迁移表结构(mysql/sqlite)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Database.Driver == config.DriverMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "内存存储无需迁移")
				return nil
			}
			c.cfg.Database.AutoMigrate = true
			return c.withApp(cmd.Context(), func(context.Context, *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ 迁移完成 (%s)\n", c.cfg.Database.Driver)
				return nil
			})
		},
	}
}
