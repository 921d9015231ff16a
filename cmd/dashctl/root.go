package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/dto"
	"p4-dashboard/internal/repository"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/jwt"
	applogger "p4-dashboard/pkg/logger"
	"p4-dashboard/pkg/redis"
	"p4-dashboard/pkg/sheets"
)

var (
	cfgFile string
	timeout time.Duration
	filters dto.FilterQuery
)

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "dashctl 在终端生成参训达成情况与未参训名单",
	Long:          `与 HTTP 服务共用配置、Google Sheets 数据源和 Redis 缓存的命令行工具。`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "整体超时")
}

// addFilterFlags 报表类命令共用的筛选参数
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&filters.Jenjang, "jenjang", nil, "JENJANG，可重复")
	f.StringSliceVar(&filters.Kecamatan, "kecamatan", nil, "KECAMATAN，可重复")
	f.StringSliceVar(&filters.NamaPelatihan, "nama-pelatihan", nil, "NAMA_PELATIHAN，可重复")
	f.StringSliceVar(&filters.Pelatihan, "pelatihan", nil, "PELATIHAN，可重复")
	f.StringSliceVar(&filters.StatusSekolah, "status-sekolah", nil, "STATUS_SEKOLAH，可重复")
	f.StringSliceVar(&filters.Kategori, "kategori", nil, "来源类别工作表，可重复")
	f.StringVar(&filters.StartDate, "start", "", "起始日期 YYYY-MM-DD")
	f.StringVar(&filters.EndDate, "end", "", "结束日期 YYYY-MM-DD")
}

// stack 命令行用到的全部依赖
type stack struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *service.Service
	rdb    *redis.Client
}

func (s *stack) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	_ = s.logger.Sync()
}

// newStack 装配数据源与服务；命令行不写审计日志，因此不连接数据库
func newStack(ctx context.Context) (*stack, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	// 命令行默认只输出告警，避免淹没报表
	if cfg.Log.Level == "info" || cfg.Log.Level == "debug" {
		cfg.Log.Level = "warn"
	}
	cfg.Log.Format = "console"
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	var (
		kv        cache.Store
		blacklist service.TokenBlacklist
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 不可用，使用进程内缓存", zap.Error(err))
		mem := cache.NewMemoryStore()
		kv, blacklist, rdb = mem, service.NewStoreBlacklist(mem), nil
	} else {
		kv, blacklist = rdb, rdb
	}

	creds, err := cfg.Sheets.Credentials()
	if err != nil {
		return nil, err
	}
	client, err := sheets.NewClient(ctx, cfg.Sheets.SpreadsheetID, creds, logger)
	if err != nil {
		return nil, err
	}

	repo := &repository.Repository{Sheets: repository.NewSheetRepo(client)}
	svc := service.NewService(cfg, repo, kv, blacklist, jwt.NewManager(&cfg.Auth), logger)
	return &stack{cfg: cfg, logger: logger, svc: svc, rdb: rdb}, nil
}

// withStack 为子命令提供带超时的上下文与依赖
func withStack(fn func(ctx context.Context, st *stack, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		st, err := newStack(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(ctx, st, args)
	}
}

func recordQuery() (service.RecordQuery, error) {
	filter, search, err := filters.Spec()
	if err != nil {
		return service.RecordQuery{}, err
	}
	return service.RecordQuery{Filter: filter, Search: search}, nil
}
