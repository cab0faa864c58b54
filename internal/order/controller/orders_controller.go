package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/dto"
	apperrors "popkiosk/internal/errors"
	"popkiosk/internal/order/service"
)

type CreateShopOrderUseCase interface {
	Create(ctx context.Context, req dto.CreateShopOrderRequest) (*domain.ShopOrder, error)
}

type CreateKioskOrderUseCase interface {
	Create(ctx context.Context, req dto.CreateKioskOrderRequest) (*domain.KioskOrder, error)
}

type LookupOrdersUseCase interface {
	GetShopOrder(ctx context.Context, id string) (*domain.ShopOrder, error)
	GetKioskOrder(ctx context.Context, id string) (*domain.KioskOrder, error)
	LookupByEmailAndPostcode(ctx context.Context, email, postcode string) ([]*domain.ShopOrder, error)
	ListShopOrders(ctx context.Context, status *domain.Status) ([]*domain.ShopOrder, error)
	ListKioskOrders(ctx context.Context, status *domain.Status) ([]*domain.KioskOrder, error)
}

type StatusService interface {
	TransitionShop(ctx context.Context, orderID string, target domain.Status, payload service.TransitionPayload) (*domain.ShopOrder, error)
	TransitionKiosk(ctx context.Context, orderID string, target domain.Status, payload service.TransitionPayload) (*domain.KioskOrder, error)
}

type OrdersController struct {
	createShop  CreateShopOrderUseCase
	createKiosk CreateKioskOrderUseCase
	lookup      LookupOrdersUseCase
	status      StatusService
	logger      *zap.Logger
}

func NewOrdersController(
	createShop CreateShopOrderUseCase,
	createKiosk CreateKioskOrderUseCase,
	lookup LookupOrdersUseCase,
	status StatusService,
	logger *zap.Logger,
) *OrdersController {
	return &OrdersController{
		createShop:  createShop,
		createKiosk: createKiosk,
		lookup:      lookup,
		status:      status,
		logger:      logger,
	}
}

func (c *OrdersController) CreateShop(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	var req dto.CreateShopOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeInvalidJSON(w)
		return
	}

	order, err := c.createShop.Create(r.Context(), req)
	if err != nil {
		c.writeError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.APIResponse{
		Success: true,
		Data:    dto.CreateOrderData{OrderID: order.ID, Status: string(order.Status)},
	})
}

func (c *OrdersController) CreateKiosk(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	var req dto.CreateKioskOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeInvalidJSON(w)
		return
	}

	order, err := c.createKiosk.Create(r.Context(), req)
	if err != nil {
		c.writeError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.APIResponse{
		Success: true,
		Data:    dto.CreateOrderData{OrderID: order.ID, Status: string(order.Status)},
	})
}

func (c *OrdersController) GetShop(w http.ResponseWriter, r *http.Request) {
	order, err := c.lookup.GetShopOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err, c.requestLogger(r))
		return
	}

	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromShopOrder(order)})
}

func (c *OrdersController) GetKiosk(w http.ResponseWriter, r *http.Request) {
	order, err := c.lookup.GetKioskOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err, c.requestLogger(r))
		return
	}

	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromKioskOrder(order)})
}

// LookupShop handles the customer self-service lookup by email + postcode.
func (c *OrdersController) LookupShop(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	postcode := r.URL.Query().Get("postcode")

	orders, err := c.lookup.LookupByEmailAndPostcode(r.Context(), email, postcode)
	if err != nil {
		c.writeError(w, err, c.requestLogger(r))
		return
	}

	out := make([]dto.ShopOrderResponse, len(orders))
	for i, o := range orders {
		out[i] = dto.FromShopOrder(o)
	}
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: out})
}

func (c *OrdersController) TransitionShop(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	req, ok := c.decodeTransition(w, r, logger)
	if !ok {
		return
	}

	order, err := c.status.TransitionShop(r.Context(), chi.URLParam(r, "id"),
		domain.Status(req.Status), service.TransitionPayload{
			TrackingNumber: req.TrackingNumber,
			Courier:        req.Courier,
			Actor:          actorFrom(r),
			Note:           req.Note,
		})
	if err != nil {
		c.writeError(w, err, logger)
		return
	}

	logger.Info("shop order transitioned",
		zap.String("orderId", order.ID),
		zap.String("status", string(order.Status)))
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromShopOrder(order)})
}

func (c *OrdersController) TransitionKiosk(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r)

	req, ok := c.decodeTransition(w, r, logger)
	if !ok {
		return
	}

	order, err := c.status.TransitionKiosk(r.Context(), chi.URLParam(r, "id"),
		domain.Status(req.Status), service.TransitionPayload{
			TxHash: req.TxHash,
			Actor:  actorFrom(r),
			Note:   req.Note,
		})
	if err != nil {
		c.writeError(w, err, logger)
		return
	}

	logger.Info("kiosk order transitioned",
		zap.String("orderId", order.ID),
		zap.String("status", string(order.Status)))
	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.FromKioskOrder(order)})
}

// AdminList serves both variants behind one filterable admin view.
func (c *OrdersController) AdminList(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.Status(raw)
		status = &s
	}

	variant := r.URL.Query().Get("variant")
	data := map[string]any{}

	if variant == "" || variant == string(domain.VariantShop) {
		out := []dto.ShopOrderResponse{}
		// A status only the other variant knows just yields an empty list
		// in the combined view.
		if variant != "" || status == nil || domain.IsValidStatus(domain.VariantShop, *status) {
			orders, err := c.lookup.ListShopOrders(r.Context(), status)
			if err != nil {
				c.writeError(w, err, c.requestLogger(r))
				return
			}
			for _, o := range orders {
				out = append(out, dto.FromShopOrder(o))
			}
		}
		data["shop"] = out
	}

	if variant == "" || variant == string(domain.VariantKiosk) {
		out := []dto.KioskOrderResponse{}
		if variant != "" || status == nil || domain.IsValidStatus(domain.VariantKiosk, *status) {
			orders, err := c.lookup.ListKioskOrders(r.Context(), status)
			if err != nil {
				c.writeError(w, err, c.requestLogger(r))
				return
			}
			for _, o := range orders {
				out = append(out, dto.FromKioskOrder(o))
			}
		}
		data["kiosk"] = out
	}

	if len(data) == 0 {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "unknown variant: " + variant, Code: "VALIDATION_FAILED",
		})
		return
	}

	c.writeJSON(w, http.StatusOK, dto.APIResponse{Success: true, Data: data})
}

func (c *OrdersController) decodeTransition(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (dto.TransitionRequest, bool) {
	var req dto.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeInvalidJSON(w)
		return req, false
	}
	if req.Status == "" {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: "status is required", Code: "MISSING_FIELD",
		})
		return req, false
	}
	return req, true
}

func (c *OrdersController) writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: ve.Message, Code: "VALIDATION_FAILED", Details: ve.Details,
		})
		return
	}
	if mfe, ok := apperrors.IsMissingFieldError(err); ok {
		c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
			Success: false, Error: mfe.Message, Code: "MISSING_FIELD",
		})
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeJSON(w, http.StatusNotFound, dto.APIResponse{
			Success: false, Error: err.Error(), Code: "NOT_FOUND",
		})
		return
	}
	if ite, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeJSON(w, http.StatusConflict, dto.APIResponse{
			Success: false, Error: ite.Message, Code: "INVALID_TRANSITION",
		})
		return
	}
	if _, ok := apperrors.IsDuplicateError(err); ok {
		c.writeJSON(w, http.StatusConflict, dto.APIResponse{
			Success: false, Error: err.Error(), Code: "DUPLICATE_ID",
		})
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, dto.APIResponse{
		Success: false, Error: "an unexpected error occurred", Code: "INTERNAL_ERROR",
	})
}

func (c *OrdersController) writeInvalidJSON(w http.ResponseWriter) {
	c.writeJSON(w, http.StatusBadRequest, dto.APIResponse{
		Success: false, Error: "request body must be valid JSON", Code: "VALIDATION_FAILED",
	})
}

func (c *OrdersController) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (c *OrdersController) requestLogger(r *http.Request) *zap.Logger {
	traceID := r.Header.Get("X-Request-Id")
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return c.logger.With(zap.String("traceId", traceID))
}

func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Admin-Actor"); actor != "" {
		return actor
	}
	return "admin"
}
