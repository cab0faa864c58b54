package pricing

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"popkiosk/internal/dto"
)

type Controller struct {
	provider *Provider
	logger   *zap.Logger
}

func NewController(provider *Provider, logger *zap.Logger) *Controller {
	return &Controller{provider: provider, logger: logger}
}

// Get always answers with a full price table, whatever the state of the
// upstream feed.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	prices := c.provider.GetPrices(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	body := dto.APIResponse{
		Success: true,
		Data: map[string]any{
			"currency":  "MYR",
			"prices":    prices,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
