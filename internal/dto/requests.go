package dto

type CustomerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

type ShopItemPayload struct {
	ProductID int    `json:"productId"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CreateShopOrderRequest carries a client-generated order id; the server
// generates one when it is absent.
type CreateShopOrderRequest struct {
	ID            string            `json:"id,omitempty"`
	Customer      CustomerPayload   `json:"customer"`
	Items         []ShopItemPayload `json:"items"`
	PaymentRef    string            `json:"paymentRef,omitempty"`
	HasProofImage bool              `json:"hasProofImage,omitempty"`
}

type CreateKioskOrderRequest struct {
	ID            string          `json:"id,omitempty"`
	Customer      CustomerPayload `json:"customer"`
	Asset         string          `json:"asset"`
	Network       string          `json:"network"`
	WalletAddress string          `json:"walletAddress"`
	AmountMYR     float64         `json:"amountMYR"`
	PaymentRef    string          `json:"paymentRef,omitempty"`
	HasProofImage bool            `json:"hasProofImage,omitempty"`
}

// TransitionRequest is the admin PATCH body: the target status plus the
// inputs certain transitions require.
type TransitionRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Courier        string `json:"courier,omitempty"`
	TxHash         string `json:"txHash,omitempty"`
	Note           string `json:"note,omitempty"`
}

type UpdateSettingsRequest struct {
	MarkupPercent *float64           `json:"markupPercent,omitempty"`
	FeeTable      map[string]float64 `json:"feeTable,omitempty"`
	BusinessName  *string            `json:"businessName,omitempty"`
	BusinessPhone *string            `json:"businessPhone,omitempty"`
	PaymentQR     *string            `json:"paymentQR,omitempty"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}
