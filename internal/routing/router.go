// Package routing assembles the gin engine: public tracking surface,
// authenticated admin reporting surface, and operational endpoints.
package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goatkit/storepulse/internal/api"
	"github.com/goatkit/storepulse/internal/auth"
	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/middleware"
	"github.com/goatkit/storepulse/internal/repository"
	"github.com/goatkit/storepulse/internal/service"
)

// Deps carries the wired services the router mounts.
type Deps struct {
	Tracking  *service.TrackingService
	Reporting *service.ReportingService
	Export    *service.ExportService
	Catalog   repository.CatalogRepository
	JWT       *auth.JWTManager
}

// New builds the HTTP engine. Presence tracking wraps every route; the
// qualification rules inside the middleware keep admin, API and background
// traffic out of the presence data.
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.Tracking(deps.Tracking, deps.JWT, cfg.Tracking))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.NewTrackHandler(deps.Tracking, deps.Catalog).Register(r)

	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAdmin(deps.JWT))
	api.NewReportHandler(deps.Reporting).Register(admin)
	api.NewExportHandler(deps.Export).Register(admin)

	return r
}
