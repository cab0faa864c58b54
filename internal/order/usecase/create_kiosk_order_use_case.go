package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/dto"
	apperrors "popkiosk/internal/errors"
	"popkiosk/internal/notify"
	"popkiosk/internal/validation"
)

type KioskOrderRepository interface {
	Create(ctx context.Context, order *domain.KioskOrder) error
}

type PriceProvider interface {
	GetPrices(ctx context.Context) map[string]float64
}

type CreateKioskOrderUseCase struct {
	orderRepo KioskOrderRepository
	prices    PriceProvider
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewCreateKioskOrderUseCase(
	orderRepo KioskOrderRepository,
	prices PriceProvider,
	notifier Notifier,
	logger *zap.Logger,
) *CreateKioskOrderUseCase {
	return &CreateKioskOrderUseCase{
		orderRepo: orderRepo,
		prices:    prices,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the submission and derives the crypto amount from the
// current markup-adjusted price, so the stored amount always matches what
// the kiosk charges rather than what the client claims.
func (uc *CreateKioskOrderUseCase) Create(ctx context.Context, req dto.CreateKioskOrderRequest) (*domain.KioskOrder, error) {
	if err := uc.validate(req); err != nil {
		return nil, err
	}

	asset := strings.ToUpper(strings.TrimSpace(req.Asset))
	prices := uc.prices.GetPrices(ctx)
	price, ok := prices[asset]
	if !ok || price <= 0 {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "asset",
			Message: "unsupported asset: " + req.Asset,
		})
	}

	now := uc.now()
	order := &domain.KioskOrder{
		Order: domain.Order{
			ID: req.ID,
			Customer: domain.Customer{
				Name:  strings.TrimSpace(req.Customer.Name),
				Email: strings.TrimSpace(req.Customer.Email),
				Phone: strings.TrimSpace(req.Customer.Phone),
			},
			PaymentRef:    strings.TrimSpace(req.PaymentRef),
			HasProofImage: req.HasProofImage,
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Asset:         asset,
		Network:       strings.ToUpper(strings.TrimSpace(req.Network)),
		WalletAddress: strings.TrimSpace(req.WalletAddress),
		AmountMYR:     req.AmountMYR,
		AmountCrypto:  req.AmountMYR / price,
	}
	if order.ID == "" {
		order.ID = domain.NewOrderID(now)
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	uc.logger.Info("kiosk order created",
		zap.String("orderId", order.ID),
		zap.String("asset", order.Asset),
		zap.Float64("amountMYR", order.AmountMYR))

	uc.notifier.Dispatch(notify.KioskOrderCreated(order))

	return order, nil
}

func (uc *CreateKioskOrderUseCase) validate(req dto.CreateKioskOrderRequest) error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.Customer.Name) == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "name",
			Message: "name is required",
		})
	}
	if res := validation.Phone(req.Customer.Phone); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if res := validation.WalletAddress(req.WalletAddress, req.Network); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if req.AmountMYR <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "amountMYR",
			Message: "amount must be greater than zero",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
