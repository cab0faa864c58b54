package domain

import "time"

// AuditRecord captures one admin-triggered status transition.
type AuditRecord struct {
	ID         uint
	OrderID    string
	Variant    Variant
	FromStatus Status
	ToStatus   Status
	Actor      string
	Note       string
	CreatedAt  time.Time
}
