package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/dto"
	apperrors "popkiosk/internal/errors"
	"popkiosk/internal/notify"
	"popkiosk/internal/validation"
)

type ShopOrderRepository interface {
	Create(ctx context.Context, order *domain.ShopOrder) error
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int) (map[int]*domain.Product, error)
	DecrementStock(ctx context.Context, productID, quantity int) (bool, error)
	IncrementStock(ctx context.Context, productID, quantity int) error
}

type Notifier interface {
	Dispatch(text string)
}

type CreateShopOrderUseCase struct {
	orderRepo   ShopOrderRepository
	productRepo ProductRepository
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewCreateShopOrderUseCase(
	orderRepo ShopOrderRepository,
	productRepo ProductRepository,
	notifier Notifier,
	logger *zap.Logger,
) *CreateShopOrderUseCase {
	return &CreateShopOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Create validates the submission, recomputes the total from the product
// catalog (client-sent prices are never trusted), reserves stock and
// persists the order in pending status.
func (uc *CreateShopOrderUseCase) Create(ctx context.Context, req dto.CreateShopOrderRequest) (*domain.ShopOrder, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	ids := make([]int, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}
	products, err := uc.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var details []apperrors.ValidationDetail
	items := make([]domain.OrderItem, 0, len(req.Items))
	total := 0.0
	for i, reqItem := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		product, ok := products[reqItem.ProductID]
		if !ok || !product.IsActive {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".productId",
				Message: fmt.Sprintf("product %d is not available", reqItem.ProductID),
			})
			continue
		}
		if product.Stock < reqItem.Quantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".quantity",
				Message: fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name),
			})
			continue
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      reqItem.Size,
			Quantity:  reqItem.Quantity,
			UnitPrice: product.UnitPrice,
		})
		total += product.UnitPrice * float64(reqItem.Quantity)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	now := uc.now()
	order := &domain.ShopOrder{
		Order: domain.Order{
			ID: req.ID,
			Customer: domain.Customer{
				Name:     strings.TrimSpace(req.Customer.Name),
				Email:    strings.TrimSpace(req.Customer.Email),
				Phone:    strings.TrimSpace(req.Customer.Phone),
				Address:  strings.TrimSpace(req.Customer.Address),
				Postcode: strings.TrimSpace(req.Customer.Postcode),
			},
			PaymentRef:    strings.TrimSpace(req.PaymentRef),
			HasProofImage: req.HasProofImage,
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Items:    items,
		TotalMYR: total,
	}
	if order.ID == "" {
		order.ID = domain.NewOrderID(now)
	}

	// Stock is reserved item by item; any failure from here on releases the
	// reservations already taken so a rejected order never leaks inventory.
	var reserved []domain.OrderItem
	for _, item := range items {
		ok, err := uc.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			uc.releaseStock(ctx, reserved)
			return nil, err
		}
		if !ok {
			uc.releaseStock(ctx, reserved)
			return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
				Field:   "items",
				Message: fmt.Sprintf("%s went out of stock", item.Name),
			})
		}
		reserved = append(reserved, item)
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		uc.releaseStock(ctx, reserved)
		return nil, err
	}

	uc.logger.Info("shop order created",
		zap.String("orderId", order.ID),
		zap.Float64("totalMYR", order.TotalMYR),
		zap.Int("itemCount", len(order.Items)))

	uc.notifier.Dispatch(notify.ShopOrderCreated(order))

	return order, nil
}

func (uc *CreateShopOrderUseCase) releaseStock(ctx context.Context, reserved []domain.OrderItem) {
	for _, item := range reserved {
		if err := uc.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			uc.logger.Error("failed to release reserved stock",
				zap.Int("productId", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (uc *CreateShopOrderUseCase) validate(req dto.CreateShopOrderRequest) error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.Customer.Name) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "name",
			Message: "name is required",
		})
	}
	if res := validation.Email(req.Customer.Email); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if res := validation.Phone(req.Customer.Phone); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if res := validation.Postcode(req.Customer.Postcode); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if strings.TrimSpace(req.Customer.Address) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "address",
			Message: "delivery address is required",
		})
	}
	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be at least 1",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
