package handlers

import (
	"time"

	"agrisense/internal/middleware"
	"agrisense/internal/view"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouterOptions struct {
	FrontendURL string
	// IngestLimiter throttles POST /api/sensors. Nil means unlimited.
	IngestLimiter *rate.Limiter
	Logger        *zap.Logger
}

func NewRouter(opts RouterOptions, readings *ReadingHandler, dashboard *DashboardHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(opts.Logger), gin.Recovery())

	origins := []string{"http://localhost:3000"}
	if opts.FrontendURL != "" && opts.FrontendURL != origins[0] {
		origins = append(origins, opts.FrontendURL)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.SetHTMLTemplate(view.Templates())

	r.GET("/", dashboard.Dashboard)
	r.GET("/health", dashboard.HealthCheck)

	api := r.Group("/api")

	ingest := []gin.HandlerFunc{readings.Ingest}
	if opts.IngestLimiter != nil {
		ingest = append([]gin.HandlerFunc{middleware.RateLimitMiddleware(opts.IngestLimiter, opts.Logger)}, ingest...)
	}
	api.POST("/sensors", ingest...)
	api.GET("/sensors/latest", readings.Latest)
	api.GET("/sensors/export", readings.Export)
	api.GET("/sensors/devices/:device_id/state", readings.DeviceState)

	api.GET("/system/stats", dashboard.SystemStats)

	return r
}
