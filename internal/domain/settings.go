package domain

import "time"

// SettingsID is the key of the singleton settings row.
const SettingsID = "default"

type Settings struct {
	ID            string
	MarkupPercent float64
	FeeTable      map[string]float64
	BusinessName  string
	BusinessPhone string
	PaymentQR     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultSettings is materialized lazily on the first read when no row exists.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		ID:            SettingsID,
		MarkupPercent: 3.0,
		FeeTable: map[string]float64{
			"processing": 2.50,
			"network":    5.00,
		},
		BusinessName:  "CBL Popshop",
		BusinessPhone: "+60123456789",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
