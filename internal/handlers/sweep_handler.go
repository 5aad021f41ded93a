package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/services"
)

// CronSecretHeader carries the shared secret on scheduler-invoked requests.
const CronSecretHeader = "X-Cron-Secret"

// SweepHandler exposes the reservation sweeper to an external scheduler
type SweepHandler struct {
	sweeperService services.SweeperService
	cfg            *config.Config
}

// NewSweepHandler creates a new SweepHandler
func NewSweepHandler(sweeperService services.SweeperService, cfg *config.Config) *SweepHandler {
	return &SweepHandler{sweeperService: sweeperService, cfg: cfg}
}

// Sweep handles POST /cron/sweep. The endpoint is guarded by a shared
// secret so only the scheduler can trigger it.
func (h *SweepHandler) Sweep(c *gin.Context) {
	secret := h.cfg.Cron.Secret
	provided := c.GetHeader(CronSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return
	}

	result, err := h.sweeperService.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
