package usecase

import (
	"context"
	"strings"

	"popkiosk/internal/domain"
	apperrors "popkiosk/internal/errors"
	"popkiosk/internal/validation"
)

type ShopOrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.ShopOrder, error)
	List(ctx context.Context, status *domain.Status) ([]*domain.ShopOrder, error)
	FindByEmailAndPostcode(ctx context.Context, email, postcode string) ([]*domain.ShopOrder, error)
}

type KioskOrderReader interface {
	FindByID(ctx context.Context, id string) (*domain.KioskOrder, error)
	List(ctx context.Context, status *domain.Status) ([]*domain.KioskOrder, error)
}

// LookupOrdersUseCase serves the customer self-service reads and the admin
// list views.
type LookupOrdersUseCase struct {
	shopRepo  ShopOrderReader
	kioskRepo KioskOrderReader
}

func NewLookupOrdersUseCase(shopRepo ShopOrderReader, kioskRepo KioskOrderReader) *LookupOrdersUseCase {
	return &LookupOrdersUseCase{shopRepo: shopRepo, kioskRepo: kioskRepo}
}

func (uc *LookupOrdersUseCase) GetShopOrder(ctx context.Context, id string) (*domain.ShopOrder, error) {
	return uc.shopRepo.FindByID(ctx, id)
}

func (uc *LookupOrdersUseCase) GetKioskOrder(ctx context.Context, id string) (*domain.KioskOrder, error) {
	return uc.kioskRepo.FindByID(ctx, id)
}

// LookupByEmailAndPostcode lets a customer find their orders without the
// order id. Both fields must match; email comparison is case-insensitive.
func (uc *LookupOrdersUseCase) LookupByEmailAndPostcode(ctx context.Context, email, postcode string) ([]*domain.ShopOrder, error) {
	var details []apperrors.ValidationDetail
	if res := validation.Email(email); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if res := validation.Postcode(postcode); !res.Valid {
		details = append(details, apperrors.ValidationDetail{Field: res.Field, Message: res.Message})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	return uc.shopRepo.FindByEmailAndPostcode(ctx, strings.TrimSpace(email), strings.TrimSpace(postcode))
}

func (uc *LookupOrdersUseCase) ListShopOrders(ctx context.Context, status *domain.Status) ([]*domain.ShopOrder, error) {
	if status != nil && !domain.IsValidStatus(domain.VariantShop, *status) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "status",
			Message: "unknown shop status: " + string(*status),
		})
	}
	return uc.shopRepo.List(ctx, status)
}

func (uc *LookupOrdersUseCase) ListKioskOrders(ctx context.Context, status *domain.Status) ([]*domain.KioskOrder, error) {
	if status != nil && !domain.IsValidStatus(domain.VariantKiosk, *status) {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "status",
			Message: "unknown kiosk status: " + string(*status),
		})
	}
	return uc.kioskRepo.List(ctx, status)
}
