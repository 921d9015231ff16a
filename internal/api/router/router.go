package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/internal/api/handler"
	"p4-dashboard/internal/api/middleware"
	"p4-dashboard/internal/service"
)

// defaultBodyLimit 非上传接口的请求体上限
const defaultBodyLimit = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时登录限流使用进程内令牌桶
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	authSvc service.AuthService,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查与监控 ──
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 登录（无需认证）
		v1.POST("/auth/login",
			middleware.BodyLimit(defaultBodyLimit),
			middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute, logger),
			h.Auth.Login,
		)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(authSvc))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 参训数据页
			records := authorized.Group("/records")
			{
				records.GET("", h.Record.ListRecords)
				records.GET("/summary", h.Record.Summary)
				records.GET("/options", h.Record.Options)
				records.POST("/refresh", h.Record.Refresh)
			}

			// 达成情况与未参训名单
			authorized.GET("/schools", h.Report.ListSchools)
			authorized.GET("/recap", h.Report.Recap)
			authorized.GET("/recommendations", h.Report.Recommendations)
			authorized.GET("/recommendations/schools/:npsn", h.Report.SchoolRecommendation)

			// 上传（multipart，按配置放宽请求体上限）
			uploads := authorized.Group("/uploads")
			{
				uploads.POST("", middleware.BodyLimit(cfg.Server.UploadMaxMB<<20+defaultBodyLimit), h.Upload.Upload)
				uploads.GET("", h.Upload.ListLogs)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/recommendations", h.Export.ExportRecommendations)
				export.GET("/recap", h.Export.ExportRecap)
				export.GET("/records", h.Export.ExportRecords)
			}

			// 界面状态
			session := authorized.Group("/session", middleware.BodyLimit(defaultBodyLimit))
			{
				session.GET("", h.Session.Get)
				session.PUT("", h.Session.Save)
				session.DELETE("", h.Session.Reset)
			}
		}
	}

	return r
}
