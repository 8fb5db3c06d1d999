package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/storepulse/internal/apierrors"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/service"
)

// ReportHandler serves the admin panel datasets: presence, activity series,
// rankings and the listing behind the per-store view.
type ReportHandler struct {
	reporting *service.ReportingService
}

// NewReportHandler creates the admin reporting handler.
func NewReportHandler(reporting *service.ReportingService) *ReportHandler {
	return &ReportHandler{reporting: reporting}
}

// Register mounts the reporting routes on an (already authenticated) group.
func (h *ReportHandler) Register(r gin.IRouter) {
	r.GET("/active", h.handleActiveSummary)
	r.GET("/activity/daily", h.handleActivityByDay)
	r.GET("/activity/hourly", h.handleActivityByHour)
	r.GET("/products/top", h.handleTopProducts)
	r.GET("/stores/ranking", h.handleStoreRanking)
	r.GET("/stores/products", h.handleProductsByStore)
	r.GET("/dashboard", h.handleDashboard)
}

// handleActiveSummary returns active visitor totals and the detailed list
// of active logged-in users.
func (h *ReportHandler) handleActiveSummary(c *gin.Context) {
	summary, err := h.reporting.ActiveSummary(c.Request.Context())
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"active":            summary,
		"threshold_minutes": int(summary.Threshold.Minutes()),
	})
}

func (h *ReportHandler) handleActivityByDay(c *gin.Context) {
	series, err := h.reporting.ActivityByDay(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "series": series})
}

func (h *ReportHandler) handleActivityByHour(c *gin.Context) {
	series, err := h.reporting.ActivityByHour(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "series": series})
}

func (h *ReportHandler) handleTopProducts(c *gin.Context) {
	dateRange, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	products, err := h.reporting.TopProducts(c.Request.Context(), queryInt(c, "limit", 0), dateRange)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *ReportHandler) handleStoreRanking(c *gin.Context) {
	dateRange, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	ranking, err := h.reporting.StoreRanking(c.Request.Context(), dateRange)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ranking": ranking})
}

func (h *ReportHandler) handleProductsByStore(c *gin.Context) {
	dateRange, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	stores, err := h.reporting.ProductsByStore(c.Request.Context(), dateRange)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stores": stores})
}

// handleDashboard bundles everything the admin landing page charts need in
// a single round trip.
func (h *ReportHandler) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.reporting.ActiveSummary(ctx)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	daily, err := h.reporting.ActivityByDay(ctx, 0)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	hourly, err := h.reporting.ActivityByHour(ctx, 0)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	top, err := h.reporting.TopProducts(ctx, 0, models.DateRange{})
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"loggedInActive": summary.LoggedIn,
		"guestActive":    summary.Guests,
		"visitors":       summary.Visitors,
		"activityByDay":  daily,
		"activityByHour": hourly,
		"topProducts":    top,
	})
}

// dateRangeFromQuery parses the optional from/to filters. On a malformed
// value it writes the error response and returns ok=false.
func dateRangeFromQuery(c *gin.Context) (models.DateRange, bool) {
	dateRange, err := service.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidDateRange, err.Error())
		return models.DateRange{}, false
	}
	return dateRange, true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
