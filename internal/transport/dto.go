package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

type InitiatePaymentRequest struct {
	OrderID string `json:"order_id"`
}

// VerifyPaymentRequest accepts either coordinate; reference wins when both
// are present.
type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"order_id"`
}

type InitiatePaymentResponse struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"order_id"`
	OrderNumber      string `json:"order_number"`
	PaymentReference string `json:"payment_reference"`
	AuthorizationURL string `json:"authorization_url"`
	PaymentStatus    string `json:"payment_status"`
}

type VerifyPaymentResponse struct {
	Success           bool            `json:"success"`
	OrderID           string          `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	PaymentReference  string          `json:"payment_reference"`
	PaymentStatus     string          `json:"payment_status"`
	OrderStatus       string          `json:"order_status"`
	TransactionStatus string          `json:"transaction_status,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Channel           string          `json:"channel,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
