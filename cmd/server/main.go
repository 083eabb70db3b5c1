package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/api/handler"
	"campus-scheduler/internal/api/middleware"
	"campus-scheduler/internal/api/router"
	"campus-scheduler/internal/repository"
	"campus-scheduler/internal/service"
	"campus-scheduler/pkg/database"
	applogger "campus-scheduler/pkg/logger"
	"campus-scheduler/pkg/metrics"
	"campus-scheduler/pkg/redis"
)

func main() {
	// 1. 加载配置（CAMPUS_CONFIG_FILE 可指定配置文件路径）
	cfg, err := config.Load(os.Getenv("CAMPUS_CONFIG_FILE"))
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
		zap.String("default_policy", cfg.Import.DefaultPolicy),
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

	// 4. 连接 Redis（可选：失败时降级运行，预览不返回令牌、导入不限流）
	var (
		rdb     *redis.Client
		store   service.BatchStore
		limiter middleware.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，导入暂存与限流将不可用", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		store = rdb
		limiter = rdb
	}

	// 5. 指标
	rec, err := metrics.NewRecorder(nil)
	if err != nil {
		logger.Fatal("注册指标失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, store, rec, logger)
	h := handler.NewHandler(svc, cfg.Import.MaxRows)

	// 7. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, router.Options{
		Limiter: limiter,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx)
		},
	}, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second, // 导入上传可能较大
		WriteTimeout: 30 * time.Second,
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

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
