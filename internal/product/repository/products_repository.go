package repository

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"strings"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
)

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, stock, unitCost, unitPrice, isActive, createdAt, updatedAt
		FROM Products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.UnitCost, &p.UnitPrice,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, &p)
	}

	return products, rows.Err()
}

func (r *MySQLProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]*domain.Product, error) {
	if len(ids) == 0 {
		return map[int]*domain.Product{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, stock, unitCost, unitPrice, isActive, createdAt, updatedAt
		FROM Products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products by ids: %w", err)
	}
	defer rows.Close()

	products := make(map[int]*domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.UnitCost, &p.UnitPrice,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products[p.ID] = &p
	}

	return products, rows.Err()
}

// DecrementStock takes quantity units if available; the stock guard lives
// in the WHERE clause so concurrent orders cannot oversell.
func (r *MySQLProductRepository) DecrementStock(ctx context.Context, productID, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE Products SET stock = stock - ?, updatedAt = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrementing stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected == 1, nil
}

// IncrementStock returns quantity units to the shelf. Used to release a
// reservation when order creation fails after stock was taken.
func (r *MySQLProductRepository) IncrementStock(ctx context.Context, productID, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE Products SET stock = stock + ?, updatedAt = NOW()
		WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("incrementing stock: %w", err)
	}
	return nil
}

// AdjustStock applies an admin correction. Negative deltas cannot push
// stock below zero.
func (r *MySQLProductRepository) AdjustStock(ctx context.Context, productID, delta int) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE Products SET stock = stock + ?, updatedAt = NOW()
		WHERE id = ? AND stock + ? >= 0`,
		delta, productID, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("adjusting stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		if _, ferr := r.findByID(ctx, productID); ferr != nil {
			return nil, ferr
		}
		return nil, errors.NewValidationError("validation failed", errors.ValidationDetail{
			Field:   "delta",
			Message: "stock cannot go negative",
		})
	}

	return r.findByID(ctx, productID)
}

// ProfitReport sums revenue over delivered orders and costs it against the
// product catalog.
func (r *MySQLProductRepository) ProfitReport(ctx context.Context) (*domain.ProfitReport, error) {
	var report domain.ProfitReport

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT o.id),
		       COALESCE(SUM(oi.quantity * oi.unitPrice), 0),
		       COALESCE(SUM(oi.quantity * p.unitCost), 0)
		FROM Orders o
		JOIN OrderItems oi ON oi.orderId = o.id
		LEFT JOIN Products p ON p.id = oi.productId
		WHERE o.status = 'delivered'`,
	).Scan(&report.DeliveredOrders, &report.RevenueMYR, &report.CostMYR)
	if err != nil {
		return nil, fmt.Errorf("computing profit report: %w", err)
	}

	report.ProfitMYR = report.RevenueMYR - report.CostMYR
	return &report, nil
}

func (r *MySQLProductRepository) findByID(ctx context.Context, id int) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, stock, unitCost, unitPrice, isActive, createdAt, updatedAt
		FROM Products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Stock, &p.UnitCost, &p.UnitPrice,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if goerrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return &p, nil
}
