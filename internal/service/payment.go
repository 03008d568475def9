package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/somabooks/payments/internal/gateway"
	"github.com/somabooks/payments/internal/logging"
	"github.com/somabooks/payments/internal/models"
	"github.com/somabooks/payments/internal/repo"
)

var (
	ErrValidation     = errors.New("validation")
	ErrNotFound       = errors.New("order not found")
	ErrAlreadyPaid    = errors.New("order already paid")
	ErrOrderCancelled = errors.New("order cancelled")
)

// Publisher is the event side channel. A nil Publisher disables events.
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

type PaymentService struct {
	Repo        *repo.GormRepo
	Gateway     gateway.Gateway
	Events      Publisher
	Currency    string
	CallbackURL string
}

type InitiateResult struct {
	OrderID          uuid.UUID
	OrderNumber      string
	Reference        string
	AuthorizationURL string
	PaymentStatus    models.PaymentStatus
}

type VerifyResult struct {
	OrderID           uuid.UUID
	OrderNumber       string
	Reference         string
	PaymentStatus     models.PaymentStatus
	OrderStatus       models.OrderStatus
	TransactionStatus string
	Amount            decimal.Decimal
	PaidAt            *time.Time
	Channel           string
	StillPending      bool
}

// Initiate opens a gateway transaction for an order the caller owns.
// Preconditions run in order: existence, not already paid, not cancelled.
// A gateway failure is still recorded as payment_status=failed.
func (s *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, email string, orderID uuid.UUID) (*InitiateResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment", "order_id", orderID)

	// A caller disconnect must not abort the gateway call or the writes
	// that record its outcome; only the gateway client's timeout applies.
	ctx = context.WithoutCancel(ctx)

	order, err := s.Repo.OrderForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.PaymentStatus == models.PaymentStatusPaid || order.PaymentStatus == models.PaymentStatusRefunded {
		return nil, ErrAlreadyPaid
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}
	if email == "" {
		return nil, fmt.Errorf("%w: caller has no email on record", ErrValidation)
	}

	reference := gateway.NewReference(order.OrderNumber)
	now := time.Now().UTC()

	res, err := s.Gateway.Initiate(ctx, gateway.InitiateRequest{
		Email:       email,
		Amount:      order.TotalPrice,
		Currency:    s.Currency,
		Reference:   reference,
		CallbackURL: s.CallbackURL,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
	})
	if err != nil {
		l.Warn("payment_initiate_gateway_error", "reference", reference, "error", err)
		if _, markErr := s.Repo.MarkPaymentFailed(ctx, order.ID, now); markErr != nil {
			l.Error("payment_initiate_mark_failed_error", "error", markErr)
		}
		s.publish(ctx, order.ID, map[string]any{
			"type":         "payment_init_failed",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		})
		return nil, err
	}

	ok, err := s.Repo.SetPaymentInitiated(ctx, order.ID, res.Reference, models.PaymentMethodPaystack, now)
	if err != nil {
		return nil, fmt.Errorf("persist payment reference: %w", err)
	}
	if !ok {
		// the order settled while the gateway call was in flight
		return nil, ErrAlreadyPaid
	}

	l.Info("payment_initiated", "reference", res.Reference, "amount", order.TotalPrice)
	s.publish(ctx, order.ID, map[string]any{
		"type":         "payment_initiated",
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"reference":    res.Reference,
		"amount":       order.TotalPrice,
	})

	return &InitiateResult{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Reference:        res.Reference,
		AuthorizationURL: res.AuthorizationURL,
		PaymentStatus:    models.PaymentStatusPending,
	}, nil
}

func (s *PaymentService) publish(ctx context.Context, orderID uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, orderID.String(), event); err != nil {
		logging.FromContext(ctx).Warn("payment_event_publish_error", "order_id", orderID, "error", err)
	}
}
