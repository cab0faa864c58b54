package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
	"popkiosk/internal/notify"
)

type ShopOrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.ShopOrder, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.Status, trackingNumber, courier *string, at time.Time) (bool, error)
}

type KioskOrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.KioskOrder, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.Status, txHash *string, at time.Time) (bool, error)
}

type AuditRepository interface {
	Insert(ctx context.Context, rec domain.AuditRecord) error
}

type Notifier interface {
	Dispatch(text string)
}

// TransitionPayload carries the optional inputs specific transitions
// require or accept.
type TransitionPayload struct {
	TrackingNumber string
	Courier        string
	TxHash         string
	Actor          string
	Note           string
}

// StatusService is the only gate through which an order's status changes.
// Persistence is a compare-and-set on the current status: when two admins
// race on the same order, the loser's transition fails as invalid rather
// than silently overwriting the winner's.
type StatusService struct {
	shopRepo  ShopOrderRepository
	kioskRepo KioskOrderRepository
	auditRepo AuditRepository
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewStatusService(
	shopRepo ShopOrderRepository,
	kioskRepo KioskOrderRepository,
	auditRepo AuditRepository,
	notifier Notifier,
	logger *zap.Logger,
) *StatusService {
	return &StatusService{
		shopRepo:  shopRepo,
		kioskRepo: kioskRepo,
		auditRepo: auditRepo,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *StatusService) TransitionShop(ctx context.Context, orderID string, target domain.Status, payload TransitionPayload) (*domain.ShopOrder, error) {
	order, err := s.shopRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(domain.VariantShop, order.Status, target) {
		return nil, errors.NewInvalidTransitionError(string(order.Status), string(target))
	}

	var trackingNumber, courier *string
	if target == domain.StatusShipped {
		tn := strings.TrimSpace(payload.TrackingNumber)
		if tn == "" {
			return nil, errors.NewMissingFieldError("trackingNumber")
		}
		co := strings.TrimSpace(payload.Courier)
		if co == "" {
			return nil, errors.NewMissingFieldError("courier")
		}
		trackingNumber = &tn
		courier = &co
	}

	now := s.now()
	applied, err := s.shopRepo.TransitionStatus(ctx, orderID, order.Status, target, trackingNumber, courier, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a concurrent transition; report against the actual status.
		current, ferr := s.shopRepo.FindByID(ctx, orderID)
		if ferr != nil {
			return nil, ferr
		}
		return nil, errors.NewInvalidTransitionError(string(current.Status), string(target))
	}

	s.audit(ctx, domain.AuditRecord{
		OrderID:    orderID,
		Variant:    domain.VariantShop,
		FromStatus: order.Status,
		ToStatus:   target,
		Actor:      payload.Actor,
		Note:       payload.Note,
		CreatedAt:  now,
	})

	s.notifyShop(orderID, order.Status, target, trackingNumber, courier)

	updated := *order
	updated.Status = target
	updated.UpdatedAt = now
	updated.TrackingNumber = trackingNumber
	updated.Courier = courier
	if trackingNumber == nil {
		updated.TrackingNumber = order.TrackingNumber
		updated.Courier = order.Courier
	}

	return &updated, nil
}

func (s *StatusService) TransitionKiosk(ctx context.Context, orderID string, target domain.Status, payload TransitionPayload) (*domain.KioskOrder, error) {
	order, err := s.kioskRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(domain.VariantKiosk, order.Status, target) {
		return nil, errors.NewInvalidTransitionError(string(order.Status), string(target))
	}

	// The transaction hash is only settable while completing the order.
	var txHash *string
	if target == domain.StatusCompleted {
		if th := strings.TrimSpace(payload.TxHash); th != "" {
			txHash = &th
		}
	}

	now := s.now()
	applied, err := s.kioskRepo.TransitionStatus(ctx, orderID, order.Status, target, txHash, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, ferr := s.kioskRepo.FindByID(ctx, orderID)
		if ferr != nil {
			return nil, ferr
		}
		return nil, errors.NewInvalidTransitionError(string(current.Status), string(target))
	}

	s.audit(ctx, domain.AuditRecord{
		OrderID:    orderID,
		Variant:    domain.VariantKiosk,
		FromStatus: order.Status,
		ToStatus:   target,
		Actor:      payload.Actor,
		Note:       payload.Note,
		CreatedAt:  now,
	})

	if target == domain.StatusCompleted {
		s.notifier.Dispatch(notify.OrderCompleted(orderID, txHash))
	} else {
		s.notifier.Dispatch(notify.StatusChanged(orderID, order.Status, target))
	}

	updated := *order
	updated.Status = target
	updated.UpdatedAt = now
	if txHash != nil {
		updated.TxHash = txHash
	}

	return &updated, nil
}

// notifyShop fires exactly one customer notification per transition; the
// advance to processing is internal and stays quiet.
func (s *StatusService) notifyShop(orderID string, from, to domain.Status, trackingNumber, courier *string) {
	switch to {
	case domain.StatusProcessing:
		return
	case domain.StatusShipped:
		s.notifier.Dispatch(notify.OrderShipped(orderID, *trackingNumber, *courier))
	default:
		s.notifier.Dispatch(notify.StatusChanged(orderID, from, to))
	}
}

// Audit failures are logged, never propagated: the transition has already
// committed.
func (s *StatusService) audit(ctx context.Context, rec domain.AuditRecord) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Insert(ctx, rec); err != nil {
		s.logger.Error("failed to write audit record",
			zap.String("orderId", rec.OrderID),
			zap.Error(err))
	}
}
