package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/api/handler"
	"campus-scheduler/internal/api/middleware"
)

// Options 路由可选依赖
type Options struct {
	// Limiter 导入接口限流；nil 时不限流
	Limiter middleware.RateLimiter
	// Gatherer /metrics 暴露的指标来源；nil 时使用默认注册器
	Gatherer prometheus.Gatherer
	// Ready 就绪检查（数据库等），nil 时始终就绪
	Ready func() error
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, opts Options, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 批量导入模块（上传体积与频率受限）
		imports := v1.Group("/imports")
		imports.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
		imports.Use(middleware.RateLimit(opts.Limiter, cfg.Import.RateLimit, time.Minute))
		{
			imports.POST("/:entity/preview", h.Import.Preview)
			imports.POST("/:entity/commit", h.Import.Commit)
			imports.POST("/:entity", h.Import.Import)
		}

		// 周课表网格模块
		gridGroup := v1.Group("/grid")
		{
			gridGroup.GET("", h.Grid.GetGrid)
			gridGroup.GET("/export", h.Grid.ExportGrid)
			gridGroup.GET("/calendar.ics", h.Grid.ExportCalendar)
		}

		// 课表条目模块
		entries := v1.Group("/schedule-entries")
		entries.Use(middleware.BodyLimit(1 << 20))
		{
			entries.GET("", h.ScheduleEntry.ListEntries)
			entries.POST("", h.ScheduleEntry.CreateEntry)
			entries.DELETE("/:id", h.ScheduleEntry.DeleteEntry)
		}
	}

	return r
}
