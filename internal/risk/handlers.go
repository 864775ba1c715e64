package risk

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proctorwatch/proctorwatch/internal/logging"
	"github.com/proctorwatch/proctorwatch/internal/metrics"
)

// Handler provides the risk-summary HTTP handler.
type Handler struct {
	summary *SummaryService
}

// NewHandler creates a risk handler.
func NewHandler(summary *SummaryService) *Handler {
	return &Handler{summary: summary}
}

// RegisterRoutes sets up the risk routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/risk-summary", h.GetSummary)
}

// GetSummary handles GET /api/risk-summary
func (h *Handler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.summary.Snapshot(ctx)
	if err != nil {
		logging.L(ctx).Error("failed to compute risk summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to get risk summary",
		})
		return
	}

	metrics.RiskOverall.Set(summary.OverallRisk)

	c.JSON(http.StatusOK, summary)
}
