package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/services"
)

// ReservationHandler handles ticket reservation requests
type ReservationHandler struct {
	reservationService services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservationService services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// ReserveTicketRequest is the payload for POST /public/events/:eventId/reserve
type ReserveTicketRequest struct {
	TicketNumber int    `json:"ticketNumber" binding:"required,min=1"`
	BuyerName    string `json:"buyerName" binding:"required"`
	BuyerPhone   string `json:"buyerPhone" binding:"required"`
	BuyerEmail   string `json:"buyerEmail"`
}

// Reserve handles POST /public/events/:eventId/reserve
func (h *ReservationHandler) Reserve(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var req ReserveTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reservationService.Reserve(c.Request.Context(), eventID, &services.ReserveRequest{
		TicketNumber: req.TicketNumber,
		BuyerName:    req.BuyerName,
		BuyerPhone:   req.BuyerPhone,
		BuyerEmail:   req.BuyerEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
