package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/storepulse/internal/apierrors"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/repository"
	"github.com/goatkit/storepulse/internal/service"
)

// TrackHandler exposes the public event-recording endpoints hit by the
// storefront pages.
type TrackHandler struct {
	tracking *service.TrackingService
	catalog  repository.CatalogRepository
}

// NewTrackHandler creates the public tracking handler.
func NewTrackHandler(tracking *service.TrackingService, catalog repository.CatalogRepository) *TrackHandler {
	return &TrackHandler{tracking: tracking, catalog: catalog}
}

// Register mounts the tracking routes.
func (h *TrackHandler) Register(r gin.IRouter) {
	r.POST("/t/:kind", h.handleRecordEvent)
}

type recordEventRequest struct {
	ProductID int64 `json:"product_id" form:"product_id"`
}

// handleRecordEvent appends one product interaction event. The kind comes
// from the path (visit, whatsapp, call); the product id from the body or
// form.
func (h *TrackHandler) handleRecordEvent(c *gin.Context) {
	kind := models.EventKind(c.Param("kind"))
	if !models.ValidEventKind(kind) {
		apierrors.Error(c, apierrors.CodeUnknownEventKind)
		return
	}

	var req recordEventRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	if req.ProductID <= 0 {
		// Fall back to a query parameter for beacon-style requests.
		if id, err := strconv.ParseInt(c.Query("product_id"), 10, 64); err == nil {
			req.ProductID = id
		}
	}
	if req.ProductID <= 0 {
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidID, "product_id is required")
		return
	}

	// Events are only meaningful for products the store actually sells, so
	// reject ids that do not resolve to a published product.
	exists, err := h.catalog.ProductExists(c.Request.Context(), req.ProductID)
	if err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	if !exists {
		apierrors.ErrorWithMessage(c, apierrors.CodeInvalidID, "unknown product")
		return
	}

	if err := h.tracking.RecordEvent(c.Request.Context(), req.ProductID, kind); err != nil {
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}
