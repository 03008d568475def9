package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/somabooks/payments/internal/models"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrValidation = errors.New("validation")
)

type GormRepo struct {
	DB *gorm.DB
}

// CreateOrder persists an order together with its line items in one
// transaction. Money fields must already satisfy
// total_price = sub_total + tax + shipping - discount.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	if err := validateOrder(order, items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = newOrderNumber()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Items = nil

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range items {
			items[i].ID = uuid.New()
			items[i].OrderID = order.ID
			items[i].CreatedAt = now
			if err := tx.Create(&items[i]).Error; err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

func (r *GormRepo) OrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return &order, nil
}

func (r *GormRepo) OrderByReferenceForUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Where("payment_reference = ? AND user_id = ?", reference, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order by reference: %w", err)
	}
	return &order, nil
}

// notSettled guards every write below: paid and refunded are terminal, so no
// update may overwrite them.
var notSettled = []models.PaymentStatus{models.PaymentStatusPaid, models.PaymentStatusRefunded}

// SetPaymentInitiated records a freshly issued gateway reference and resets
// the payment to pending. Reports false when the order has already settled.
func (r *GormRepo) SetPaymentInitiated(ctx context.Context, orderID uuid.UUID, reference, method string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status NOT IN ?", orderID, notSettled).
		Updates(map[string]any{
			"payment_reference": reference,
			"payment_method":    method,
			"payment_status":    models.PaymentStatusPending,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update order payment reference: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkPaymentFailed flips the payment to failed without touching the order
// status, so the order can be re-initiated later.
func (r *GormRepo) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status NOT IN ?", orderID, notSettled).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update order payment status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CompletePayment settles a pending order in a single conditional UPDATE.
// The WHERE clause on the prior payment_status makes the pending -> paid
// transition happen at most once, no matter how many verifications race.
func (r *GormRepo) CompletePayment(ctx context.Context, orderID uuid.UUID, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusCompleted,
			"completed_at":   now,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update order to paid: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func validateOrder(order *models.Order, items []models.OrderItem) error {
	if order.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"sub_total", order.SubTotal},
		{"tax", order.Tax},
		{"shipping", order.Shipping},
		{"discount", order.Discount},
		{"total_price", order.TotalPrice},
	} {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, f.name)
		}
	}
	want := order.SubTotal.Add(order.Tax).Add(order.Shipping).Sub(order.Discount)
	if !order.TotalPrice.Equal(want) {
		return fmt.Errorf("%w: total_price must equal sub_total + tax + shipping - discount", ErrValidation)
	}
	for i := range items {
		it := &items[i]
		if it.BookID == uuid.Nil {
			return fmt.Errorf("%w: item %d: book_id is required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrValidation, i)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d: unit_price must not be negative", ErrValidation, i)
		}
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if !it.TotalPrice.Equal(lineTotal) {
			return fmt.Errorf("%w: item %d: total_price must equal unit_price * quantity", ErrValidation, i)
		}
	}
	return nil
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}
