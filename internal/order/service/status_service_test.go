package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
)

// In-memory doubles implementing the repository CAS contract.

type fakeShopRepo struct {
	orders map[string]*domain.ShopOrder
}

func newFakeShopRepo(orders ...*domain.ShopOrder) *fakeShopRepo {
	r := &fakeShopRepo{orders: map[string]*domain.ShopOrder{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeShopRepo) FindByID(_ context.Context, id string) (*domain.ShopOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError("order " + id + " not found")
	}
	copied := *o
	return &copied, nil
}

func (r *fakeShopRepo) TransitionStatus(_ context.Context, id string, from, to domain.Status, trackingNumber, courier *string, at time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	if trackingNumber != nil {
		o.TrackingNumber = trackingNumber
	}
	if courier != nil {
		o.Courier = courier
	}
	return true, nil
}

type fakeKioskRepo struct {
	orders map[string]*domain.KioskOrder
}

func newFakeKioskRepo(orders ...*domain.KioskOrder) *fakeKioskRepo {
	r := &fakeKioskRepo{orders: map[string]*domain.KioskOrder{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeKioskRepo) FindByID(_ context.Context, id string) (*domain.KioskOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError("order " + id + " not found")
	}
	copied := *o
	return &copied, nil
}

func (r *fakeKioskRepo) TransitionStatus(_ context.Context, id string, from, to domain.Status, txHash *string, at time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	if txHash != nil {
		o.TxHash = txHash
	}
	return true, nil
}

type fakeAuditRepo struct {
	records []domain.AuditRecord
}

func (r *fakeAuditRepo) Insert(_ context.Context, rec domain.AuditRecord) error {
	r.records = append(r.records, rec)
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Dispatch(text string) {
	n.messages = append(n.messages, text)
}

func shopOrder(id string, status domain.Status) *domain.ShopOrder {
	return &domain.ShopOrder{
		Order: domain.Order{
			ID:       id,
			Customer: domain.Customer{Name: "Aina", Email: "aina@example.com", Postcode: "50000"},
			Status:   status,
		},
		TotalMYR: 90,
	}
}

func kioskOrder(id string, status domain.Status) *domain.KioskOrder {
	return &domain.KioskOrder{
		Order:     domain.Order{ID: id, Status: status},
		Asset:     "USDT",
		Network:   "TRC20",
		AmountMYR: 200,
	}
}

func newService(shop *fakeShopRepo, kiosk *fakeKioskRepo) (*StatusService, *fakeAuditRepo, *fakeNotifier) {
	audit := &fakeAuditRepo{}
	notifier := &fakeNotifier{}
	svc := NewStatusService(shop, kiosk, audit, notifier, zap.NewNop())
	return svc, audit, notifier
}

func TestTransitionShop_Confirm(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusPending))
	svc, audit, notifier := newService(repo, newFakeKioskRepo())

	updated, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusConfirmed,
		TransitionPayload{Actor: "admin"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, domain.StatusConfirmed, repo.orders["ord-1"].Status)
	assert.False(t, updated.UpdatedAt.IsZero())

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "pending -> confirmed")

	require.Len(t, audit.records, 1)
	assert.Equal(t, "admin", audit.records[0].Actor)
	assert.Equal(t, domain.StatusPending, audit.records[0].FromStatus)
}

func TestTransitionShop_InvalidTransitionLeavesOrderUnchanged(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusPending))
	svc, audit, notifier := newService(repo, newFakeKioskRepo())

	_, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusDelivered, TransitionPayload{})

	ite, ok := errors.IsInvalidTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, "pending", ite.From)
	assert.Equal(t, "delivered", ite.To)

	assert.Equal(t, domain.StatusPending, repo.orders["ord-1"].Status)
	assert.Empty(t, notifier.messages)
	assert.Empty(t, audit.records)
}

func TestTransitionShop_ShipRequiresTrackingAndCourier(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusProcessing))
	svc, _, notifier := newService(repo, newFakeKioskRepo())

	_, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusShipped,
		TransitionPayload{TrackingNumber: "   "})
	mfe, ok := errors.IsMissingFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "trackingNumber", mfe.Field)

	_, err = svc.TransitionShop(context.Background(), "ord-1", domain.StatusShipped,
		TransitionPayload{TrackingNumber: "TRK9"})
	mfe, ok = errors.IsMissingFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "courier", mfe.Field)

	// Status untouched, nothing sent.
	assert.Equal(t, domain.StatusProcessing, repo.orders["ord-1"].Status)
	assert.Empty(t, notifier.messages)
}

func TestTransitionShop_ShipSetsTrackingAndNotifies(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusProcessing))
	svc, _, notifier := newService(repo, newFakeKioskRepo())

	updated, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusShipped,
		TransitionPayload{TrackingNumber: "TRK9", Courier: "PosLaju"})

	require.NoError(t, err)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, "TRK9", *updated.TrackingNumber)
	require.NotNil(t, updated.Courier)
	assert.Equal(t, "PosLaju", *updated.Courier)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "TRK9")
	assert.Contains(t, notifier.messages[0], "PosLaju")
}

func TestTransitionShop_AdvanceToProcessingIsSilent(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusConfirmed))
	svc, audit, notifier := newService(repo, newFakeKioskRepo())

	_, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusProcessing, TransitionPayload{})

	require.NoError(t, err)
	assert.Empty(t, notifier.messages)
	assert.Len(t, audit.records, 1)
}

func TestTransitionShop_NotFound(t *testing.T) {
	svc, _, _ := newService(newFakeShopRepo(), newFakeKioskRepo())

	_, err := svc.TransitionShop(context.Background(), "ord-missing", domain.StatusConfirmed, TransitionPayload{})

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestTransitionShop_FullLifecycle(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusPending))
	svc, _, notifier := newService(repo, newFakeKioskRepo())
	ctx := context.Background()

	_, err := svc.TransitionShop(ctx, "ord-1", domain.StatusConfirmed, TransitionPayload{})
	require.NoError(t, err)
	_, err = svc.TransitionShop(ctx, "ord-1", domain.StatusProcessing, TransitionPayload{})
	require.NoError(t, err)
	_, err = svc.TransitionShop(ctx, "ord-1", domain.StatusShipped,
		TransitionPayload{TrackingNumber: "TRK9", Courier: "PosLaju"})
	require.NoError(t, err)
	final, err := svc.TransitionShop(ctx, "ord-1", domain.StatusDelivered, TransitionPayload{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDelivered, final.Status)
	require.NotNil(t, repo.orders["ord-1"].TrackingNumber)
	assert.Equal(t, "TRK9", *repo.orders["ord-1"].TrackingNumber)

	// Terminal: every further attempt is invalid.
	for _, target := range []domain.Status{domain.StatusConfirmed, domain.StatusShipped, domain.StatusRefunded} {
		_, err := svc.TransitionShop(ctx, "ord-1", target, TransitionPayload{})
		_, ok := errors.IsInvalidTransitionError(err)
		assert.True(t, ok, "delivered -> %s should be invalid", target)
	}

	// confirm, ship, deliver notified; processing silent.
	assert.Len(t, notifier.messages, 3)
}

func TestTransitionShop_ConcurrentLoserGetsInvalidTransition(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusPending))
	svc, _, _ := newService(repo, newFakeKioskRepo())
	ctx := context.Background()

	// A competing admin cancels between our read and write.
	_, err := svc.TransitionShop(ctx, "ord-1", domain.StatusCancelled, TransitionPayload{})
	require.NoError(t, err)

	_, err = svc.TransitionShop(ctx, "ord-1", domain.StatusConfirmed, TransitionPayload{})
	ite, ok := errors.IsInvalidTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, "cancelled", ite.From)
}

// staleShopRepo serves a stale read so the compare-and-set write is the
// part that catches the race.
type staleShopRepo struct {
	*fakeShopRepo
	stale domain.Status
	reads int
}

func (r *staleShopRepo) FindByID(ctx context.Context, id string) (*domain.ShopOrder, error) {
	o, err := r.fakeShopRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.reads++
	if r.reads == 1 {
		o.Status = r.stale
	}
	return o, nil
}

func TestTransitionShop_CompareAndSetCatchesRace(t *testing.T) {
	inner := newFakeShopRepo(shopOrder("ord-1", domain.StatusCancelled))
	repo := &staleShopRepo{fakeShopRepo: inner, stale: domain.StatusPending}
	svc := NewStatusService(repo, newFakeKioskRepo(), &fakeAuditRepo{}, &fakeNotifier{}, zap.NewNop())

	// The stale read says pending, so the table check passes; the CAS write
	// must still fail against the real cancelled row.
	_, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusConfirmed, TransitionPayload{})

	ite, ok := errors.IsInvalidTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, "cancelled", ite.From)
	assert.Equal(t, domain.StatusCancelled, inner.orders["ord-1"].Status)
}

func TestTransitionKiosk_ApproveThenCompleteWithTxHash(t *testing.T) {
	repo := newFakeKioskRepo(kioskOrder("ord-k1", domain.StatusPending))
	svc, _, notifier := newService(newFakeShopRepo(), repo)
	ctx := context.Background()

	_, err := svc.TransitionKiosk(ctx, "ord-k1", domain.StatusApproved, TransitionPayload{})
	require.NoError(t, err)

	final, err := svc.TransitionKiosk(ctx, "ord-k1", domain.StatusCompleted,
		TransitionPayload{TxHash: "0xdeadbeef"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, final.Status)
	require.NotNil(t, final.TxHash)
	assert.Equal(t, "0xdeadbeef", *final.TxHash)

	_, err = svc.TransitionKiosk(ctx, "ord-k1", domain.StatusApproved, TransitionPayload{})
	_, ok := errors.IsInvalidTransitionError(err)
	assert.True(t, ok)

	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[1], "0xdeadbeef")
}

func TestTransitionKiosk_TxHashIgnoredOutsideCompletion(t *testing.T) {
	repo := newFakeKioskRepo(kioskOrder("ord-k1", domain.StatusPending))
	svc, _, _ := newService(newFakeShopRepo(), repo)

	updated, err := svc.TransitionKiosk(context.Background(), "ord-k1", domain.StatusApproved,
		TransitionPayload{TxHash: "0xdeadbeef"})

	require.NoError(t, err)
	assert.Nil(t, updated.TxHash)
	assert.Nil(t, repo.orders["ord-k1"].TxHash)
}

func TestTransitionKiosk_Reject(t *testing.T) {
	repo := newFakeKioskRepo(kioskOrder("ord-k1", domain.StatusPending))
	svc, audit, notifier := newService(newFakeShopRepo(), repo)

	updated, err := svc.TransitionKiosk(context.Background(), "ord-k1", domain.StatusRejected,
		TransitionPayload{Actor: "admin", Note: "payment not received"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "rejected")
	require.Len(t, audit.records, 1)
	assert.Equal(t, "payment not received", audit.records[0].Note)
}

func TestTransition_AuditFailureDoesNotFailTransition(t *testing.T) {
	repo := newFakeShopRepo(shopOrder("ord-1", domain.StatusPending))
	notifier := &fakeNotifier{}
	svc := NewStatusService(repo, newFakeKioskRepo(), failingAudit{}, notifier, zap.NewNop())

	updated, err := svc.TransitionShop(context.Background(), "ord-1", domain.StatusConfirmed, TransitionPayload{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Len(t, notifier.messages, 1)
}

type failingAudit struct{}

func (failingAudit) Insert(context.Context, domain.AuditRecord) error {
	return errors.NewInternalError("audit table unavailable", nil)
}
