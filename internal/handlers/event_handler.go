package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/services"
	"github.com/zlucky/raffle-backend/internal/utils"
)

// EventHandler handles event lifecycle and lookup requests
type EventHandler struct {
	eventService services.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// CreateEventRequest is the payload for POST /admin/events
type CreateEventRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	TicketPrice  int64  `json:"ticketPrice" binding:"required,gt=0"`
	TotalTickets int    `json:"totalTickets" binding:"required,min=1,max=500"`
}

// CreateEvent handles POST /admin/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), adminID, &services.CreateEventRequest{
		Name:         req.Name,
		Description:  req.Description,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": event})
}

// ListEvents handles GET /admin/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	events, err := h.eventService.ListEventsByAdmin(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
}

// GetEvent handles GET /public/events/:eventId
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// ListTickets handles GET /admin/events/:eventId/tickets?status=
func (h *EventHandler) ListTickets(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	status := models.TicketStatus(c.Query("status"))
	tickets, err := h.eventService.ListTickets(c.Request.Context(), eventID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tickets})
}

// ListAvailableTickets handles GET /public/events/:eventId/available-tickets
func (h *EventHandler) ListAvailableTickets(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	tickets, err := h.eventService.ListTickets(c.Request.Context(), eventID, models.TicketStatusAvailable)
	if err != nil {
		respondError(c, err)
		return
	}

	numbers := make([]int, 0, len(tickets))
	for _, t := range tickets {
		numbers = append(numbers, t.TicketNumber)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": numbers})
}

// GetTicket handles GET /public/events/:eventId/tickets/:number for
// public ticket verification. The buyer's phone is masked; this
// surface proves a ticket exists, it does not expose contacts.
func (h *EventHandler) GetTicket(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket number"})
		return
	}

	ticket, err := h.eventService.GetTicket(c.Request.Context(), eventID, number)
	if err != nil {
		respondError(c, err)
		return
	}
	if ticket.BuyerPhone != "" {
		ticket.BuyerPhone = utils.MaskPhone(ticket.BuyerPhone)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ticket})
}

// CloseEvent handles POST /admin/events/:eventId/close
func (h *EventHandler) CloseEvent(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.CloseEvent(c.Request.Context(), eventID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteEvent handles DELETE /admin/events/:eventId
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	adminID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), eventID, adminID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
