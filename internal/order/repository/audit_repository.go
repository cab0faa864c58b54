package repository

import (
	"context"
	"database/sql"
	"fmt"

	"popkiosk/internal/domain"
)

type MySQLAuditRepository struct {
	db *sql.DB
}

func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

func (r *MySQLAuditRepository) Insert(ctx context.Context, rec domain.AuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO AuditLog (orderId, variant, fromStatus, toStatus, actor, note, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.OrderID, string(rec.Variant), string(rec.FromStatus), string(rec.ToStatus),
		rec.Actor, rec.Note, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

func (r *MySQLAuditRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, orderId, variant, fromStatus, toStatus, actor, note, createdAt
		FROM AuditLog WHERE orderId = ? ORDER BY createdAt`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var variant, from, to string
		if err := rows.Scan(&rec.ID, &rec.OrderID, &variant, &from, &to, &rec.Actor, &rec.Note, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		rec.Variant = domain.Variant(variant)
		rec.FromStatus = domain.Status(from)
		rec.ToStatus = domain.Status(to)
		records = append(records, rec)
	}

	return records, rows.Err()
}
