package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/services"
	"github.com/zlucky/raffle-backend/internal/utils"
)

// DrawHandler handles winner draw and winner listing requests
type DrawHandler struct {
	drawService services.DrawService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: drawService}
}

// DrawWinnersRequest is the payload for POST /admin/events/:eventId/draw
type DrawWinnersRequest struct {
	NumberOfWinners int      `json:"numberOfWinners" binding:"required,min=1"`
	Prizes          []string `json:"prizes"`
}

// DrawWinners handles POST /admin/events/:eventId/draw
func (h *DrawHandler) DrawWinners(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var req DrawWinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	winners, err := h.drawService.DrawWinners(c.Request.Context(), eventID, adminID, req.NumberOfWinners, req.Prizes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": winners})
}

// GetWinners handles GET /public/events/:eventId/winners. Buyer phone
// numbers are masked for public display.
func (h *DrawHandler) GetWinners(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	winners, err := h.drawService.GetWinners(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, w := range winners {
		w.BuyerPhone = utils.MaskPhone(w.BuyerPhone)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": winners})
}

// ListWinners handles GET /admin/events/:eventId/winners with full
// buyer contact details.
func (h *DrawHandler) ListWinners(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	winners, err := h.drawService.GetWinners(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": winners})
}
