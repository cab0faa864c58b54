package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
	"popkiosk/internal/testutil"
)

func TestNewRedisKioskOrderStore_DefaultsCap(t *testing.T) {
	store := NewRedisKioskOrderStore(nil, 0)
	assert.Equal(t, 1000, store.maxOrders)

	store = NewRedisKioskOrderStore(nil, 50)
	assert.Equal(t, 50, store.maxOrders)
}

// Integration Tests

func sampleKioskOrder(id string, at time.Time) *domain.KioskOrder {
	return &domain.KioskOrder{
		Order: domain.Order{
			ID: id,
			Customer: domain.Customer{
				Name:  "Farid Osman",
				Phone: "+60129876543",
			},
			PaymentRef: "TNG-4410",
			Status:     domain.StatusPending,
			CreatedAt:  at,
			UpdatedAt:  at,
		},
		Asset:         "USDT",
		Network:       "TRC20",
		WalletAddress: "TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9",
		AmountMYR:     200,
		AmountCrypto:  42.37,
	}
}

func TestKioskOrderStore_CreateAndFindByID(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)
	at := time.Now().UTC().Truncate(time.Millisecond)
	order := sampleKioskOrder("ord-kiosk-create", at)

	require.NoError(t, store.Create(context.Background(), order))

	found, err := store.FindByID(context.Background(), "ord-kiosk-create")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, "Farid Osman", found.Customer.Name)
	assert.Equal(t, "USDT", found.Asset)
	assert.Equal(t, "TRC20", found.Network)
	assert.Equal(t, order.WalletAddress, found.WalletAddress)
	assert.Equal(t, 200.0, found.AmountMYR)
	assert.Equal(t, 42.37, found.AmountCrypto)
	assert.Equal(t, domain.StatusPending, found.Status)
	assert.Nil(t, found.TxHash)
}

func TestKioskOrderStore_Create_DuplicateID(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)
	at := time.Now().UTC()

	require.NoError(t, store.Create(context.Background(), sampleKioskOrder("ord-kiosk-dup", at)))

	err := store.Create(context.Background(), sampleKioskOrder("ord-kiosk-dup", at))
	assert.Error(t, err)
	_, ok := errors.IsDuplicateError(err)
	assert.True(t, ok)
}

func TestKioskOrderStore_Create_IndexFailureRollsBackValue(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	// A plain string under the index key makes ZADD fail with WRONGTYPE.
	require.NoError(t, client.Set(context.Background(), "kiosk:orders:index", "corrupt", 0).Err())

	store := NewRedisKioskOrderStore(client, 1000)
	err := store.Create(context.Background(), sampleKioskOrder("ord-kiosk-noindex", time.Now().UTC()))
	require.Error(t, err)

	// No half-written order survives: the value was rolled back with the
	// failed index write.
	_, err = store.FindByID(context.Background(), "ord-kiosk-noindex")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestKioskOrderStore_FindByID_NotFound(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)

	order, err := store.FindByID(context.Background(), "ord-missing")
	assert.Error(t, err)
	assert.Nil(t, order)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestKioskOrderStore_EvictsOldestBeyondCap(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 5)
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("ord-kiosk-evict-%d", i)
		require.NoError(t, store.Create(context.Background(), sampleKioskOrder(id, base.Add(time.Duration(i)*time.Second))))
	}

	// The oldest record is gone, the newest five remain.
	_, err := store.FindByID(context.Background(), "ord-kiosk-evict-0")
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)

	orders, err := store.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	assert.Equal(t, "ord-kiosk-evict-5", orders[0].ID)
	assert.Equal(t, "ord-kiosk-evict-1", orders[4].ID)
}

func TestKioskOrderStore_List_FilterByStatus(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)
	base := time.Now().UTC()

	pending := sampleKioskOrder("ord-kiosk-list-1", base)
	approved := sampleKioskOrder("ord-kiosk-list-2", base.Add(time.Second))
	approved.Status = domain.StatusApproved

	require.NoError(t, store.Create(context.Background(), pending))
	require.NoError(t, store.Create(context.Background(), approved))

	all, err := store.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := domain.StatusApproved
	filtered, err := store.List(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ord-kiosk-list-2", filtered[0].ID)
}

func TestKioskOrderStore_Update_Patch(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Create(context.Background(), sampleKioskOrder("ord-kiosk-patch", at)))

	phone := "+60121112222"
	proof := true
	later := at.Add(time.Minute)
	updated, err := store.Update(context.Background(), "ord-kiosk-patch", KioskOrderPatch{
		Phone:         &phone,
		HasProofImage: &proof,
	}, later)
	require.NoError(t, err)
	assert.Equal(t, "+60121112222", updated.Customer.Phone)
	assert.True(t, updated.HasProofImage)
	// Untouched fields survive the patch.
	assert.Equal(t, "Farid Osman", updated.Customer.Name)
	assert.Equal(t, domain.StatusPending, updated.Status)

	found, err := store.FindByID(context.Background(), "ord-kiosk-patch")
	require.NoError(t, err)
	assert.Equal(t, "+60121112222", found.Customer.Phone)
	assert.True(t, found.UpdatedAt.Equal(later))
}

func TestKioskOrderStore_Update_NotFound(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)

	phone := "+60121112222"
	_, err := store.Update(context.Background(), "ord-missing", KioskOrderPatch{Phone: &phone}, time.Now())
	require.Error(t, err)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestKioskOrderStore_TransitionStatus_CAS(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Create(context.Background(), sampleKioskOrder("ord-kiosk-cas", at)))

	applied, err := store.TransitionStatus(context.Background(), "ord-kiosk-cas",
		domain.StatusPending, domain.StatusApproved, nil, at)
	require.NoError(t, err)
	assert.True(t, applied)

	// Stale expected-from loses.
	applied, err = store.TransitionStatus(context.Background(), "ord-kiosk-cas",
		domain.StatusPending, domain.StatusRejected, nil, at)
	require.NoError(t, err)
	assert.False(t, applied)

	txHash := "0xabc123"
	applied, err = store.TransitionStatus(context.Background(), "ord-kiosk-cas",
		domain.StatusApproved, domain.StatusCompleted, &txHash, at)
	require.NoError(t, err)
	assert.True(t, applied)

	found, err := store.FindByID(context.Background(), "ord-kiosk-cas")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, found.Status)
	require.NotNil(t, found.TxHash)
	assert.Equal(t, "0xabc123", *found.TxHash)
}

func TestKioskOrderStore_TransitionStatus_NotFound(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.CleanupTestRedis(t, client)

	store := NewRedisKioskOrderStore(client, 1000)

	_, err := store.TransitionStatus(context.Background(), "ord-missing",
		domain.StatusPending, domain.StatusApproved, nil, time.Now())
	require.Error(t, err)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}
