package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/nasimair/flightops/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TripID         int64  `json:"trip_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone"`
	Seats          int    `json:"seats"`
}

type bookingResponse struct {
	Reference      string `json:"reference"`
	TripID         int64  `json:"trip_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone"`
	Seats          int    `json:"seats"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Reference:      b.Reference,
		TripID:         b.TripID,
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		PassengerPhone: b.PassengerPhone,
		Seats:          b.Seats,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.PUT("/:reference", h.confirm)
	router.DELETE("/:reference", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TripID:         req.TripID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassengerPhone: req.PassengerPhone,
		Seats:          req.Seats,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	updated, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	updated, err := h.service.CancelBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}
