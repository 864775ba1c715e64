package events

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/proctorwatch/proctorwatch/internal/logging"
	"github.com/proctorwatch/proctorwatch/internal/metrics"
)

// Emitter receives accepted events for live streaming. Implemented by
// the realtime hub; nil disables emission.
type Emitter interface {
	EmitEvent(event map[string]any)
}

// Handler provides HTTP handlers for event ingestion and queries.
type Handler struct {
	service *Service
	store   Store
	emitter Emitter

	includeIP        bool
	includeRemaining bool
}

// NewHandler creates an events handler.
func NewHandler(service *Service, store Store) *Handler {
	return &Handler{service: service, store: store, includeRemaining: true}
}

// WithEvents attaches a live-stream emitter.
func (h *Handler) WithEvents(emitter Emitter) *Handler {
	h.emitter = emitter
	return h
}

// WithClientIP controls whether event views expose the captured
// client IP and whether ingestion records it.
func (h *Handler) WithClientIP(include bool) *Handler {
	h.includeIP = include
	return h
}

// WithRemainingCount controls whether clear responses carry the
// remaining_count field.
func (h *Handler) WithRemainingCount(include bool) *Handler {
	h.includeRemaining = include
	return h
}

// RegisterRoutes sets up the event routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/events", h.Submit)
	r.GET("/events", h.List)
	r.GET("/clear", h.Clear)
}

// Submit handles POST /api/events
func (h *Handler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.EventsRejectedTotal.Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be a JSON event payload",
		})
		return
	}

	clientIP := ""
	if h.includeIP {
		clientIP = c.ClientIP()
	}

	receipt, err := h.service.Submit(ctx, &req, clientIP)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingType), errors.Is(err, ErrInvalidType):
			metrics.EventsRejectedTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_type",
				"message": "Event payload must include a short printable string type",
			})
			return
		case errors.Is(err, ErrDataTooLarge):
			metrics.EventsRejectedTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "data_too_large",
				"message": "Event data payload has too many keys",
			})
			return
		}
		logger.Error("failed to record event", "error", err, "type", req.Type)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to process event",
		})
		return
	}

	metrics.EventsIngestedTotal.WithLabelValues(receipt.Type).Inc()
	logger.Debug("event recorded",
		"type", receipt.Type,
		"event_id", receipt.ID,
		"risk_score", receipt.RiskScore,
	)

	if h.emitter != nil {
		h.emitter.EmitEvent(map[string]any{
			"event_id":   receipt.ID,
			"type":       receipt.Type,
			"risk_score": receipt.RiskScore,
			"timestamp":  receipt.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "Event recorded",
		"event_id":     receipt.ID,
		"risk_score":   receipt.RiskScore,
		"timestamp":    receipt.Timestamp,
		"total_events": receipt.TotalEvents,
	})
}

// List handles GET /api/events?limit=N
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}

	list, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		logging.L(ctx).Error("failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to get events",
		})
		return
	}

	total, err := h.store.CountTotal(ctx)
	if err != nil {
		logging.L(ctx).Error("failed to count events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to get events",
		})
		return
	}

	views := make([]gin.H, 0, len(list))
	for _, e := range list {
		view := gin.H{
			"id":        e.ID,
			"type":      e.Type,
			"data":      e.Data,
			"timestamp": e.Timestamp,
			"session":   e.SessionID,
		}
		if h.includeIP {
			view["ip"] = e.IP
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      views,
		"count":       len(views),
		"total_in_db": total,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Clear handles GET /api/clear. Destructive and unconditional; any
// confirmation belongs to the caller.
func (h *Handler) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	cleared, err := h.store.Clear(ctx)
	if err != nil {
		logger.Error("failed to clear events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "Failed to clear events",
		})
		return
	}

	metrics.EventsClearedTotal.Add(float64(cleared))
	logger.Info("events cleared", "count", cleared)

	resp := gin.H{
		"status":        "success",
		"message":       "All events cleared",
		"cleared_count": cleared,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if h.includeRemaining {
		resp["remaining_count"] = 0
	}
	c.JSON(http.StatusOK, resp)
}
