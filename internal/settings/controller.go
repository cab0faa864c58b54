package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/dto"
	"popkiosk/internal/settings/repository"
)

type UpdatableRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, patch repository.SettingsPatch) (*domain.Settings, error)
}

type Controller struct {
	repo   UpdatableRepository
	logger *zap.Logger
}

func NewController(repo UpdatableRepository, logger *zap.Logger) *Controller {
	return &Controller{repo: repo, logger: logger}
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	s, err := c.repo.Get(r.Context())
	if err != nil {
		c.logger.Error("failed to load settings", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
			Success: false, Error: "failed to load settings", Code: "INTERNAL_ERROR",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromSettings(s)})
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "request body must be valid JSON", Code: "VALIDATION_FAILED",
		})
		return
	}

	if req.MarkupPercent != nil && *req.MarkupPercent < 0 {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "markupPercent must not be negative", Code: "VALIDATION_FAILED",
		})
		return
	}

	s, err := c.repo.Update(r.Context(), repository.SettingsPatch{
		MarkupPercent: req.MarkupPercent,
		FeeTable:      req.FeeTable,
		BusinessName:  req.BusinessName,
		BusinessPhone: req.BusinessPhone,
		PaymentQR:     req.PaymentQR,
	})
	if err != nil {
		c.logger.Error("failed to update settings", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
			Success: false, Error: "failed to update settings", Code: "INTERNAL_ERROR",
		})
		return
	}

	c.logger.Info("settings updated")
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromSettings(s)})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
