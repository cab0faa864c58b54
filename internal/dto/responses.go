package dto

import (
	"time"

	"popkiosk/internal/domain"
	"popkiosk/internal/errors"
)

type APIResponse struct {
	Success bool                      `json:"success"`
	Data    any                       `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
	Code    string                    `json:"code,omitempty"`
	Details []errors.ValidationDetail `json:"details,omitempty"`
}

type OrderItemResponse struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type ShopOrderResponse struct {
	ID             string              `json:"id"`
	Customer       CustomerPayload     `json:"customer"`
	Items          []OrderItemResponse `json:"items"`
	TotalMYR       float64             `json:"totalMYR"`
	PaymentRef     string              `json:"paymentRef,omitempty"`
	HasProofImage  bool                `json:"hasProofImage"`
	Status         string              `json:"status"`
	TrackingNumber *string             `json:"trackingNumber,omitempty"`
	Courier        *string             `json:"courier,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func FromShopOrder(o *domain.ShopOrder) ShopOrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return ShopOrderResponse{
		ID: o.ID,
		Customer: CustomerPayload{
			Name:     o.Customer.Name,
			Email:    o.Customer.Email,
			Phone:    o.Customer.Phone,
			Address:  o.Customer.Address,
			Postcode: o.Customer.Postcode,
		},
		Items:          items,
		TotalMYR:       o.TotalMYR,
		PaymentRef:     o.PaymentRef,
		HasProofImage:  o.HasProofImage,
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		Courier:        o.Courier,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

type KioskOrderResponse struct {
	ID            string          `json:"id"`
	Customer      CustomerPayload `json:"customer"`
	Asset         string          `json:"asset"`
	Network       string          `json:"network"`
	WalletAddress string          `json:"walletAddress"`
	AmountMYR     float64         `json:"amountMYR"`
	AmountCrypto  float64         `json:"amountCrypto"`
	PaymentRef    string          `json:"paymentRef,omitempty"`
	HasProofImage bool            `json:"hasProofImage"`
	Status        string          `json:"status"`
	TxHash        *string         `json:"txHash,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func FromKioskOrder(o *domain.KioskOrder) KioskOrderResponse {
	return KioskOrderResponse{
		ID: o.ID,
		Customer: CustomerPayload{
			Name:  o.Customer.Name,
			Email: o.Customer.Email,
			Phone: o.Customer.Phone,
		},
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

// CreateOrderData is the minimal payload the storefront needs back after a
// successful submission.
type CreateOrderData struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type SettingsResponse struct {
	MarkupPercent float64            `json:"markupPercent"`
	FeeTable      map[string]float64 `json:"feeTable"`
	BusinessName  string             `json:"businessName"`
	BusinessPhone string             `json:"businessPhone"`
	PaymentQR     string             `json:"paymentQR"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func FromSettings(s *domain.Settings) SettingsResponse {
	return SettingsResponse{
		MarkupPercent: s.MarkupPercent,
		FeeTable:      s.FeeTable,
		BusinessName:  s.BusinessName,
		BusinessPhone: s.BusinessPhone,
		PaymentQR:     s.PaymentQR,
		UpdatedAt:     s.UpdatedAt,
	}
}

type ProductResponse struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Stock     int     `json:"stock"`
	UnitCost  float64 `json:"unitCost"`
	UnitPrice float64 `json:"unitPrice"`
	IsActive  bool    `json:"isActive"`
}

func FromProduct(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Stock:     p.Stock,
		UnitCost:  p.UnitCost,
		UnitPrice: p.UnitPrice,
		IsActive:  p.IsActive,
	}
}

type ProfitReportResponse struct {
	DeliveredOrders int     `json:"deliveredOrders"`
	RevenueMYR      float64 `json:"revenueMYR"`
	CostMYR         float64 `json:"costMYR"`
	ProfitMYR       float64 `json:"profitMYR"`
}
