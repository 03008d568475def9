package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

const PaymentMethodPaystack = "paystack"

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"     json:"user_id"`
	OrderNumber      string          `gorm:"uniqueIndex;not null"         json:"order_number"`
	SubTotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"sub_total"`
	Tax              decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"tax"`
	Shipping         decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"shipping"`
	Discount         decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"discount"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"total_price"`
	Status           OrderStatus     `gorm:"not null"                     json:"status"`
	PaymentStatus    PaymentStatus   `gorm:"index;not null"               json:"payment_status"`
	PaymentMethod    *string         `json:"payment_method,omitempty"`
	PaymentReference *string         `gorm:"uniqueIndex"                  json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `gorm:"not null"                     json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null"                     json:"updated_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"           json:"items,omitempty"`
}

// OrderItem rows are written once together with their order and never touched
// again by this service.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;index;not null"     json:"order_id"`
	BookID     uuid.UUID       `gorm:"type:uuid;not null"           json:"book_id"`
	Quantity   int             `gorm:"not null;check:quantity>0"    json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"total_price"`
	CreatedAt  time.Time       `gorm:"not null"                     json:"created_at"`
}
