package repository

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
)

type MySQLShopOrderRepository struct {
	db *sql.DB
}

func NewMySQLShopOrderRepository(db *sql.DB) *MySQLShopOrderRepository {
	return &MySQLShopOrderRepository{db: db}
}

// OrderPatch carries optional admin corrections; nil fields are left as-is.
type OrderPatch struct {
	CustomerName  *string
	Email         *string
	Phone         *string
	Address       *string
	Postcode      *string
	PaymentRef    *string
	HasProofImage *bool
}

func (r *MySQLShopOrderRepository) Create(ctx context.Context, order *domain.ShopOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO Orders (id, customerName, email, phone, address, postcode,
		                    paymentRef, hasProofImage, status, totalMYR,
		                    trackingNumber, courier, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		order.ID, order.Customer.Name, order.Customer.Email, order.Customer.Phone,
		order.Customer.Address, order.Customer.Postcode,
		order.PaymentRef, order.HasProofImage, string(order.Status), order.TotalMYR,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return errors.NewDuplicateError(fmt.Sprintf("order %s already exists", order.ID))
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO OrderItems (orderId, productId, name, size, quantity, unitPrice)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Name, item.Size, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}

	return nil
}

const shopOrderColumns = `id, customerName, email, phone, address, postcode,
       paymentRef, hasProofImage, status, totalMYR, trackingNumber, courier,
       createdAt, updatedAt`

func (r *MySQLShopOrderRepository) FindByID(ctx context.Context, id string) (*domain.ShopOrder, error) {
	query := `SELECT ` + shopOrderColumns + ` FROM Orders WHERE id = ?`

	order, err := scanShopOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
		}
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *MySQLShopOrderRepository) List(ctx context.Context, status *domain.Status) ([]*domain.ShopOrder, error) {
	query := `SELECT ` + shopOrderColumns + ` FROM Orders`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY createdAt DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.ShopOrder
	for rows.Next() {
		order, err := scanShopOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *MySQLShopOrderRepository) FindByEmailAndPostcode(ctx context.Context, email, postcode string) ([]*domain.ShopOrder, error) {
	query := `SELECT ` + shopOrderColumns + ` FROM Orders
		WHERE LOWER(email) = LOWER(?) AND postcode = ?
		ORDER BY createdAt DESC`

	rows, err := r.db.QueryContext(ctx, query, email, postcode)
	if err != nil {
		return nil, fmt.Errorf("querying orders by email and postcode: %w", err)
	}
	defer rows.Close()

	var orders []*domain.ShopOrder
	for rows.Next() {
		order, err := scanShopOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// TransitionStatus performs a compare-and-set on the status column. It
// returns false when the row no longer holds the expected status, which is
// how concurrent conflicting transitions lose.
func (r *MySQLShopOrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.Status, trackingNumber, courier *string, at time.Time) (bool, error) {
	query := `UPDATE Orders
		SET status = ?,
		    trackingNumber = COALESCE(?, trackingNumber),
		    courier = COALESCE(?, courier),
		    updatedAt = ?
		WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, string(to), trackingNumber, courier, at, id, string(from))
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *MySQLShopOrderRepository) Update(ctx context.Context, id string, patch OrderPatch, at time.Time) (*domain.ShopOrder, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.CustomerName != nil {
		add("customerName", *patch.CustomerName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Postcode != nil {
		add("postcode", *patch.Postcode)
	}
	if patch.PaymentRef != nil {
		add("paymentRef", *patch.PaymentRef)
	}
	if patch.HasProofImage != nil {
		add("hasProofImage", *patch.HasProofImage)
	}

	if len(sets) > 0 {
		add("updatedAt", at)
		query := `UPDATE Orders SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)

		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("updating order: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("getting rows affected: %w", err)
		}
		if affected == 0 {
			return nil, errors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
		}
	}

	return r.FindByID(ctx, id)
}

func (r *MySQLShopOrderRepository) loadItems(ctx context.Context, order *domain.ShopOrder) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT productId, name, size, quantity, unitPrice
		FROM OrderItems WHERE orderId = ? ORDER BY id`,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShopOrder(row rowScanner) (*domain.ShopOrder, error) {
	var order domain.ShopOrder
	var status string
	err := row.Scan(
		&order.ID, &order.Customer.Name, &order.Customer.Email, &order.Customer.Phone,
		&order.Customer.Address, &order.Customer.Postcode,
		&order.PaymentRef, &order.HasProofImage, &status, &order.TotalMYR,
		&order.TrackingNumber, &order.Courier,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = domain.Status(status)
	return &order, nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if goerrors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
