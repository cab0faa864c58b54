package repository

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"popkiosk/internal/domain"
	apperrors "popkiosk/internal/errors"
)

const (
	kioskIndexKey  = "kiosk:orders:index"
	kioskOrderKey  = "kiosk:orders:%s"
	casMaxAttempts = 3
)

// RedisKioskOrderStore keeps kiosk orders in a bounded key-value store: a
// createdAt-scored ZSET index over per-order JSON values. Beyond maxOrders
// records the oldest entries are evicted silently; this is the documented
// capacity limit of the kiosk variant, not data loss to defend against.
type RedisKioskOrderStore struct {
	client    *redis.Client
	maxOrders int
}

func NewRedisKioskOrderStore(client *redis.Client, maxOrders int) *RedisKioskOrderStore {
	if maxOrders < 1 {
		maxOrders = 1000
	}
	return &RedisKioskOrderStore{client: client, maxOrders: maxOrders}
}

type kioskOrderRecord struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Asset         string    `json:"asset"`
	Network       string    `json:"network"`
	WalletAddress string    `json:"walletAddress"`
	AmountMYR     float64   `json:"amountMYR"`
	AmountCrypto  float64   `json:"amountCrypto"`
	PaymentRef    string    `json:"paymentRef"`
	HasProofImage bool      `json:"hasProofImage"`
	Status        string    `json:"status"`
	TxHash        *string   `json:"txHash,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toRecord(o *domain.KioskOrder) kioskOrderRecord {
	return kioskOrderRecord{
		ID:            o.ID,
		CustomerName:  o.Customer.Name,
		Email:         o.Customer.Email,
		Phone:         o.Customer.Phone,
		Asset:         o.Asset,
		Network:       o.Network,
		WalletAddress: o.WalletAddress,
		AmountMYR:     o.AmountMYR,
		AmountCrypto:  o.AmountCrypto,
		PaymentRef:    o.PaymentRef,
		HasProofImage: o.HasProofImage,
		Status:        string(o.Status),
		TxHash:        o.TxHash,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (rec kioskOrderRecord) toDomain() *domain.KioskOrder {
	return &domain.KioskOrder{
		Order: domain.Order{
			ID: rec.ID,
			Customer: domain.Customer{
				Name:  rec.CustomerName,
				Email: rec.Email,
				Phone: rec.Phone,
			},
			PaymentRef:    rec.PaymentRef,
			HasProofImage: rec.HasProofImage,
			Status:        domain.Status(rec.Status),
			CreatedAt:     rec.CreatedAt,
			UpdatedAt:     rec.UpdatedAt,
		},
		Asset:         rec.Asset,
		Network:       rec.Network,
		WalletAddress: rec.WalletAddress,
		AmountMYR:     rec.AmountMYR,
		AmountCrypto:  rec.AmountCrypto,
		TxHash:        rec.TxHash,
	}
}

func (s *RedisKioskOrderStore) Create(ctx context.Context, order *domain.KioskOrder) error {
	payload, err := json.Marshal(toRecord(order))
	if err != nil {
		return fmt.Errorf("marshaling kiosk order: %w", err)
	}

	key := fmt.Sprintf(kioskOrderKey, order.ID)
	ok, err := s.client.SetNX(ctx, key, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("storing kiosk order: %w", err)
	}
	if !ok {
		return apperrors.NewDuplicateError(fmt.Sprintf("order %s already exists", order.ID))
	}

	err = s.client.ZAdd(ctx, kioskIndexKey, redis.Z{
		Score:  float64(order.CreatedAt.UnixMilli()),
		Member: order.ID,
	}).Err()
	if err != nil {
		// Roll back the value write: an unindexed order would be invisible
		// to List and never evicted.
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			return fmt.Errorf("indexing kiosk order: %w (cleanup failed: %v)", err, delErr)
		}
		return fmt.Errorf("indexing kiosk order: %w", err)
	}

	return s.evictOverflow(ctx)
}

func (s *RedisKioskOrderStore) evictOverflow(ctx context.Context) error {
	size, err := s.client.ZCard(ctx, kioskIndexKey).Result()
	if err != nil {
		return fmt.Errorf("sizing kiosk index: %w", err)
	}
	overflow := size - int64(s.maxOrders)
	if overflow <= 0 {
		return nil
	}

	// Oldest first: lowest createdAt scores sit at the front of the ZSET.
	evicted, err := s.client.ZRange(ctx, kioskIndexKey, 0, overflow-1).Result()
	if err != nil {
		return fmt.Errorf("selecting evictable orders: %w", err)
	}

	for _, id := range evicted {
		if err := s.client.Del(ctx, fmt.Sprintf(kioskOrderKey, id)).Err(); err != nil {
			return fmt.Errorf("evicting kiosk order %s: %w", id, err)
		}
	}
	if err := s.client.ZRemRangeByRank(ctx, kioskIndexKey, 0, overflow-1).Err(); err != nil {
		return fmt.Errorf("trimming kiosk index: %w", err)
	}

	return nil
}

func (s *RedisKioskOrderStore) FindByID(ctx context.Context, id string) (*domain.KioskOrder, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(kioskOrderKey, id)).Result()
	if goerrors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading kiosk order: %w", err)
	}

	var rec kioskOrderRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling kiosk order: %w", err)
	}

	return rec.toDomain(), nil
}

// List returns orders newest-first, optionally filtered by status. Evicted
// orders simply no longer appear.
func (s *RedisKioskOrderStore) List(ctx context.Context, status *domain.Status) ([]*domain.KioskOrder, error) {
	ids, err := s.client.ZRevRange(ctx, kioskIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading kiosk index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(kioskOrderKey, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading kiosk orders: %w", err)
	}

	var orders []*domain.KioskOrder
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry whose value was already evicted
		}
		var rec kioskOrderRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling kiosk order: %w", err)
		}
		if status != nil && rec.Status != string(*status) {
			continue
		}
		orders = append(orders, rec.toDomain())
	}

	return orders, nil
}

// KioskOrderPatch carries optional admin corrections; nil fields are left
// as-is. Status is excluded, it only moves through TransitionStatus.
type KioskOrderPatch struct {
	CustomerName  *string
	Email         *string
	Phone         *string
	PaymentRef    *string
	HasProofImage *bool
}

// Update merges the patch into the stored record under WATCH, so a
// concurrent transition cannot be overwritten by a stale read.
func (s *RedisKioskOrderStore) Update(ctx context.Context, id string, patch KioskOrderPatch, at time.Time) (*domain.KioskOrder, error) {
	key := fmt.Sprintf(kioskOrderKey, id)
	var updated *domain.KioskOrder

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if goerrors.Is(err, redis.Nil) {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
			}
			if err != nil {
				return err
			}

			var rec kioskOrderRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return fmt.Errorf("unmarshaling kiosk order: %w", err)
			}

			if patch.CustomerName != nil {
				rec.CustomerName = *patch.CustomerName
			}
			if patch.Email != nil {
				rec.Email = *patch.Email
			}
			if patch.Phone != nil {
				rec.Phone = *patch.Phone
			}
			if patch.PaymentRef != nil {
				rec.PaymentRef = *patch.PaymentRef
			}
			if patch.HasProofImage != nil {
				rec.HasProofImage = *patch.HasProofImage
			}
			rec.UpdatedAt = at

			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshaling kiosk order: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			if err == nil {
				updated = rec.toDomain()
			}
			return err
		}, key)

		if goerrors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("updating kiosk order %s: too many concurrent writes", id)
}

// TransitionStatus does an optimistic compare-and-set under WATCH so two
// concurrent admin transitions cannot both win.
func (s *RedisKioskOrderStore) TransitionStatus(ctx context.Context, id string, from, to domain.Status, txHash *string, at time.Time) (bool, error) {
	key := fmt.Sprintf(kioskOrderKey, id)
	applied := false

	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if goerrors.Is(err, redis.Nil) {
				return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
			}
			if err != nil {
				return err
			}

			var rec kioskOrderRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return fmt.Errorf("unmarshaling kiosk order: %w", err)
			}

			if rec.Status != string(from) {
				applied = false
				return nil
			}

			rec.Status = string(to)
			rec.UpdatedAt = at
			if txHash != nil {
				rec.TxHash = txHash
			}

			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshaling kiosk order: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			if err == nil {
				applied = true
			}
			return err
		}, key)

		if goerrors.Is(err, redis.TxFailedErr) {
			continue // value changed under us, re-read and retry
		}
		if err != nil {
			return false, err
		}
		return applied, nil
	}

	return false, nil
}
