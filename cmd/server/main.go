package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/internal/api/handler"
	"p4-dashboard/internal/api/middleware"
	"p4-dashboard/internal/api/router"
	"p4-dashboard/internal/cache"
	"p4-dashboard/internal/repository"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/database"
	"p4-dashboard/pkg/jwt"
	applogger "p4-dashboard/pkg/logger"
	"p4-dashboard/pkg/redis"
	"p4-dashboard/pkg/sheets"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("DASH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Strings("participation_sheets", cfg.Sheets.ParticipationSheets),
	)

	// 3. 连接数据库（上传审计日志）
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级为进程内缓存与黑名单，不中断启动）
	var (
		kv        cache.Store
		blacklist service.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，缓存、会话与 Token 黑名单改用进程内存储", zap.Error(err))
		mem := cache.NewMemoryStore()
		kv, blacklist = mem, service.NewStoreBlacklist(mem)
		rdb = nil
	} else {
		kv, blacklist, limiter = rdb, rdb, rdb
	}

	// 5. 连接 Google Sheets
	creds, err := cfg.Sheets.Credentials()
	if err != nil {
		logger.Fatal("读取 Google 服务账号失败", zap.Error(err))
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	sheetClient, err := sheets.NewClient(initCtx, cfg.Sheets.SpreadsheetID, creds, logger)
	if err != nil {
		initCancel()
		logger.Fatal("初始化 Google Sheets 客户端失败", zap.Error(err))
	}
	checkSheets(initCtx, cfg, sheetClient, logger)
	initCancel()

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(sheetClient, db)
	svc := service.NewService(cfg, repo, kv, blacklist, jwtMgr, logger)

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}
	h := handler.NewHandler(svc, cfg.Server.UploadMaxMB<<20, checks)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, svc.Auth, limiter, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // 首次加载全部工作表可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := database.Close(db); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// checkSheets 启动时核对配置的工作表是否存在；缺失只告警，读取时再报错
func checkSheets(ctx context.Context, cfg *config.Config, client *sheets.Client, logger *zap.Logger) {
	titles, err := client.SheetTitles(ctx)
	if err != nil {
		logger.Warn("无法列出工作表，跳过启动检查", zap.Error(err))
		return
	}
	present := make(map[string]bool, len(titles))
	for _, t := range titles {
		present[t] = true
	}
	want := append([]string{cfg.Sheets.SchoolSheet, cfg.Sheets.RosterSheet}, cfg.Sheets.ParticipationSheets...)
	for _, name := range want {
		if !present[name] {
			logger.Warn("配置的工作表不存在", zap.String("sheet", name))
		}
	}
}
