package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/services"
	"github.com/zlucky/raffle-backend/pkg/chapa"
)

// PaymentHandler handles payment verification and gateway webhooks
type PaymentHandler struct {
	paymentService services.PaymentService
	cfg            *config.Config
	logger         *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService services.PaymentService, cfg *config.Config, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		cfg:            cfg,
		logger:         logger.With("handler", "payment"),
	}
}

// Verify handles GET /public/payments/:txRef/verify. It reconciles the
// payment against the gateway and returns the resulting record, so the
// buyer's return page always reflects the settled state.
func (h *PaymentHandler) Verify(c *gin.Context) {
	txRef := c.Param("txRef")
	if txRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction reference"})
		return
	}

	payment, err := h.paymentService.Reconcile(c.Request.Context(), txRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

// GetPayment handles GET /public/payments/:txRef
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	txRef := c.Param("txRef")
	if txRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction reference"})
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), txRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

// Webhook handles POST /public/payments/webhook. The signature is
// checked against the raw body before anything is parsed or mutated;
// deliveries that fail verification are rejected outright.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	secret := h.cfg.Chapa.WebhookSecret
	if secret == "" {
		secret = h.cfg.Chapa.SecretKey
	}
	signature := c.GetHeader(chapa.SignatureHeader)
	if !chapa.VerifySignature(body, signature, secret) {
		h.logger.Warn("rejected webhook with bad signature", "remoteAddr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload chapa.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}
	if payload.TxRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tx_ref"})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), &payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
