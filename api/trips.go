package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/service/trips"
)

type TripHandler struct {
	service trips.TripUseCase
}

type tripResponse struct {
	ID                int64  `json:"id"`
	FlightCode        string `json:"flight_code"`
	FromCode          string `json:"from_code"`
	ToCode            string `json:"to_code"`
	FromName          string `json:"from_name"`
	ToName            string `json:"to_name"`
	DepartAt          string `json:"depart_at"`
	ArriveAt          string `json:"arrive_at"`
	EstimatedDepartAt string `json:"estimated_depart_at"`
	EstimatedArriveAt string `json:"estimated_arrive_at"`
	DelayMinutes      int    `json:"delay_minutes"`
	DelayNote         string `json:"delay_note"`
	Status            string `json:"status"`
}

func toTripResponse(t *domain.Trip) tripResponse {
	return tripResponse{
		ID:                t.ID,
		FlightCode:        t.FlightCode,
		FromCode:          t.FromCode,
		ToCode:            t.ToCode,
		FromName:          t.FromName,
		ToName:            t.ToName,
		DepartAt:          t.DepartAt.Format(time.RFC3339),
		ArriveAt:          t.ArriveAt.Format(time.RFC3339),
		EstimatedDepartAt: t.EstimatedDepartAt().Format(time.RFC3339),
		EstimatedArriveAt: t.EstimatedArriveAt().Format(time.RFC3339),
		DelayMinutes:      t.DelayMinutes,
		DelayNote:         t.DelayNote,
		Status:            string(t.Status),
	}
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *TripHandler) list(c *gin.Context) {
	fromCode := strings.ToUpper(strings.TrimSpace(c.Query("from")))

	var (
		list []domain.Trip
		err  error
	)
	if fromCode != "" {
		list, err = h.service.ListByOrigin(c.Request.Context(), fromCode)
	} else {
		list, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]tripResponse, 0, len(list))
	for i := range list {
		out = append(out, toTripResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TripHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	trip, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}
