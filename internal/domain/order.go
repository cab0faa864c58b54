package domain

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

type Customer struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Postcode string
}

type OrderItem struct {
	ProductID int
	Name      string
	Size      string
	Quantity  int
	UnitPrice float64
}

// Order holds the fields shared by both variants. Status is mutated only
// through the status service; everything else is set once at creation.
type Order struct {
	ID            string
	Customer      Customer
	PaymentRef    string
	HasProofImage bool
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ShopOrder struct {
	Order
	Items          []OrderItem
	TotalMYR       float64
	TrackingNumber *string
	Courier        *string
}

func (o ShopOrder) Variant() Variant { return VariantShop }

type KioskOrder struct {
	Order
	Asset         string
	Network       string
	WalletAddress string
	AmountMYR     float64
	AmountCrypto  float64
	TxHash        *string
}

func (o KioskOrder) Variant() Variant { return VariantKiosk }

const orderIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderID builds a timestamp+random identifier, e.g. "ord-mf3k2x1a-7hq4tz".
// Collisions are possible in principle but the store rejects duplicates.
func NewOrderID(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("ord-")
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	sb.WriteByte('-')
	for i := 0; i < 6; i++ {
		sb.WriteByte(orderIDAlphabet[rand.Intn(len(orderIDAlphabet))])
	}
	return sb.String()
}
