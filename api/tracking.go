package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/service/tracking"
)

type TrackingHandler struct {
	service *tracking.TrackingService
	hubCode string
}

func NewTrackingHandler(service *tracking.TrackingService, hubCode string) *TrackingHandler {
	return &TrackingHandler{service: service, hubCode: hubCode}
}

func (h *TrackingHandler) Register(trips, network *gin.RouterGroup) {
	trips.GET("/:id/track", h.track)
	network.GET("/live", h.liveNetwork)
}

// track gates the live snapshot behind the booking reference and tracking
// window. Both denial outcomes answer 403; the body code tells a valid
// reference holder that it is merely too early.
func (h *TrackingHandler) track(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	decision, err := h.service.Track(c.Request.Context(), id, c.Query("ref"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch decision.Outcome {
	case tracking.OutcomeUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Valid booking reference required.",
			"code":  "booking_required",
		})
	case tracking.OutcomeNotYetAvailable:
		c.JSON(http.StatusForbidden, gin.H{
			"error":    fmt.Sprintf("Tracking opens %d minutes before departure.", int(domain.TrackingUnlockWindow.Minutes())),
			"code":     "tracking_not_open",
			"opens_at": decision.OpensAt.Format(time.RFC3339),
		})
	default:
		c.JSON(http.StatusOK, decision.Snapshot)
	}
}

func (h *TrackingHandler) liveNetwork(c *gin.Context) {
	fromCode := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	if fromCode == "" {
		fromCode = h.hubCode
	}

	snapshots, err := h.service.Network(c.Request.Context(), fromCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hub_code":   fromCode,
		"updated_at": time.Now().Format(time.RFC3339),
		"flights":    snapshots,
	})
}
