package domain

import "time"

type Product struct {
	ID        int
	Name      string
	Stock     int
	UnitCost  float64
	UnitPrice float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfitReport aggregates delivered shop orders against product cost.
type ProfitReport struct {
	DeliveredOrders int
	RevenueMYR      float64
	CostMYR         float64
	ProfitMYR       float64
}
