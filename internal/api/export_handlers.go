package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goatkit/storepulse/internal/apierrors"
	"github.com/goatkit/storepulse/internal/service"
)

// ExportHandler serves the date-filtered event exports.
type ExportHandler struct {
	export *service.ExportService
}

// NewExportHandler creates the export handler.
func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// Register mounts the export routes on an (already authenticated) group.
func (h *ExportHandler) Register(r gin.IRouter) {
	r.GET("/export.csv", h.handleExportCSV)
	r.GET("/export.xlsx", h.handleExportXLSX)
}

func (h *ExportHandler) handleExportCSV(c *gin.Context) {
	dateRange, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}

	filename := service.ExportFilename(dateRange, "csv")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-ID", uuid.NewString())

	if err := h.export.WriteCSV(c.Request.Context(), c.Writer, dateRange); err != nil {
		// Headers may be gone already; mark the failure for the access log.
		c.Error(err)
		apierrors.Error(c, apierrors.CodeExportFailed)
	}
}

func (h *ExportHandler) handleExportXLSX(c *gin.Context) {
	dateRange, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}

	filename := service.ExportFilename(dateRange, "xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-ID", uuid.NewString())

	if err := h.export.WriteXLSX(c.Request.Context(), c.Writer, dateRange); err != nil {
		c.Error(err)
		apierrors.Error(c, apierrors.CodeExportFailed)
	}
}
