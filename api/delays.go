package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/service/delay"
)

type DelayHandler struct {
	service delay.DelayUseCase
}

type applyDelayRequest struct {
	Minutes *int   `json:"minutes"`
	Note    string `json:"note"`
}

type delayResponse struct {
	TripID            int64  `json:"trip_id"`
	FlightCode        string `json:"flight_code"`
	DelayMinutes      int    `json:"delay_minutes"`
	DelayNote         string `json:"delay_note"`
	Status            string `json:"status"`
	EstimatedDepartAt string `json:"estimated_depart_at"`
	Notified          bool   `json:"notified"`
	Notifications     struct {
		Attempted int `json:"attempted"`
		Sent      int `json:"sent"`
		Failed    int `json:"failed"`
	} `json:"notifications"`
}

func toDelayResponse(summary *delay.Summary) delayResponse {
	resp := delayResponse{
		TripID:            summary.Trip.ID,
		FlightCode:        summary.Trip.FlightCode,
		DelayMinutes:      summary.Trip.DelayMinutes,
		DelayNote:         summary.Trip.DelayNote,
		Status:            string(summary.Trip.Status),
		EstimatedDepartAt: summary.Trip.EstimatedDepartAt().Format(time.RFC3339),
		Notified:          summary.Notified,
	}
	resp.Notifications.Attempted = summary.Attempted
	resp.Notifications.Sent = summary.Sent
	resp.Notifications.Failed = summary.Failed
	return resp
}

func NewDelayHandler(service delay.DelayUseCase) *DelayHandler {
	return &DelayHandler{service: service}
}

func (h *DelayHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/delay", h.apply)
	router.POST("/:id/delay/standard", h.applyStandard)
}

func (h *DelayHandler) apply(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req applyDelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Minutes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes is required"})
		return
	}

	summary, err := h.service.ApplyDelay(c.Request.Context(), id, *req.Minutes, req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDelayResponse(summary))
}

func (h *DelayHandler) applyStandard(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	summary, err := h.service.ApplyStandardDelay(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDelayResponse(summary))
}

func (h *DelayHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
	case errors.Is(err, domain.ErrInvalidDelay):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, delay.ErrUpdateInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
