package product

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/dto"
	apperrors "popkiosk/internal/errors"
)

type Repository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	AdjustStock(ctx context.Context, productID, delta int) (*domain.Product, error)
	ProfitReport(ctx context.Context) (*domain.ProfitReport, error)
}

type Controller struct {
	repo   Repository
	logger *zap.Logger
}

func NewController(repo Repository, logger *zap.Logger) *Controller {
	return &Controller{repo: repo, logger: logger}
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	products, err := c.repo.List(r.Context())
	if err != nil {
		c.logger.Error("failed to list products", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
			Success: false, Error: "failed to list products", Code: "INTERNAL_ERROR",
		})
		return
	}

	out := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		out[i] = dto.FromProduct(p)
	}
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: out})
}

func (c *Controller) AdjustStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "product id must be an integer", Code: "VALIDATION_FAILED",
		})
		return
	}

	var req dto.AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "request body must be valid JSON", Code: "VALIDATION_FAILED",
		})
		return
	}
	if req.Delta == 0 {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "delta must not be zero", Code: "VALIDATION_FAILED",
		})
		return
	}

	product, err := c.repo.AdjustStock(r.Context(), productID, req.Delta)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			c.writeJSON(w, http.StatusNotFound, dto.APIResponse{
				Success: false, Error: err.Error(), Code: "NOT_FOUND",
			})
			return
		}
		if ve, ok := apperrors.IsValidationError(err); ok {
			c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
				Success: false, Error: ve.Message, Code: "VALIDATION_FAILED", Details: ve.Details,
			})
			return
		}
		c.logger.Error("failed to adjust stock", zap.Int("productId", productID), zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
			Success: false, Error: "failed to adjust stock", Code: "INTERNAL_ERROR",
		})
		return
	}

	c.logger.Info("stock adjusted",
		zap.Int("productId", productID),
		zap.Int("delta", req.Delta),
		zap.Int("stock", product.Stock))
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromProduct(product)})
}

func (c *Controller) ProfitReport(w http.ResponseWriter, r *http.Request) {
	report, err := c.repo.ProfitReport(r.Context())
	if err != nil {
		c.logger.Error("failed to compute profit report", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
			Success: false, Error: "failed to compute profit report", Code: "INTERNAL_ERROR",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.ProfitReportResponse{
		DeliveredOrders: report.DeliveredOrders,
		RevenueMYR:      report.RevenueMYR,
		CostMYR:         report.CostMYR,
		ProfitMYR:       report.ProfitMYR,
	}})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
