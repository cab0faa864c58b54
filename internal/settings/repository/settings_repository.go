package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"popkiosk/internal/domain"
)

type MySQLSettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLSettingsRepository(db *sql.DB) *MySQLSettingsRepository {
	return &MySQLSettingsRepository{db: db, now: time.Now}
}

// Get returns the singleton settings row, creating it with defaults on the
// first read.
func (r *MySQLSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := r.load(ctx)
	if err == nil {
		return settings, nil
	}
	if !goerrors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	defaults := domain.DefaultSettings(r.now())
	if err := r.insert(ctx, defaults); err != nil {
		// A concurrent first read may have inserted already; re-read wins.
		if reread, rerr := r.load(ctx); rerr == nil {
			return reread, nil
		}
		return nil, err
	}

	return &defaults, nil
}

type SettingsPatch struct {
	MarkupPercent *float64
	FeeTable      map[string]float64
	BusinessName  *string
	BusinessPhone *string
	PaymentQR     *string
}

func (r *MySQLSettingsRepository) Update(ctx context.Context, patch SettingsPatch) (*domain.Settings, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	if patch.MarkupPercent != nil {
		current.MarkupPercent = *patch.MarkupPercent
	}
	if patch.FeeTable != nil {
		current.FeeTable = patch.FeeTable
	}
	if patch.BusinessName != nil {
		current.BusinessName = *patch.BusinessName
	}
	if patch.BusinessPhone != nil {
		current.BusinessPhone = *patch.BusinessPhone
	}
	if patch.PaymentQR != nil {
		current.PaymentQR = *patch.PaymentQR
	}
	current.UpdatedAt = r.now()

	feeTable, err := json.Marshal(current.FeeTable)
	if err != nil {
		return nil, fmt.Errorf("marshaling fee table: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE Settings
		SET markupPercent = ?, feeTable = ?, businessName = ?, businessPhone = ?,
		    paymentQR = ?, updatedAt = ?
		WHERE id = ?`,
		current.MarkupPercent, feeTable, current.BusinessName, current.BusinessPhone,
		current.PaymentQR, current.UpdatedAt, current.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}

	return current, nil
}

func (r *MySQLSettingsRepository) load(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	var feeTable []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, markupPercent, feeTable, businessName, businessPhone, paymentQR,
		       createdAt, updatedAt
		FROM Settings WHERE id = ?`,
		domain.SettingsID,
	).Scan(&s.ID, &s.MarkupPercent, &feeTable, &s.BusinessName, &s.BusinessPhone,
		&s.PaymentQR, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(feeTable) > 0 {
		if err := json.Unmarshal(feeTable, &s.FeeTable); err != nil {
			return nil, fmt.Errorf("unmarshaling fee table: %w", err)
		}
	}

	return &s, nil
}

func (r *MySQLSettingsRepository) insert(ctx context.Context, s domain.Settings) error {
	feeTable, err := json.Marshal(s.FeeTable)
	if err != nil {
		return fmt.Errorf("marshaling fee table: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO Settings (id, markupPercent, feeTable, businessName, businessPhone,
		                      paymentQR, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.MarkupPercent, feeTable, s.BusinessName, s.BusinessPhone,
		s.PaymentQR, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting default settings: %w", err)
	}
	return nil
}
