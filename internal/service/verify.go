package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/somabooks/payments/internal/gateway"
	"github.com/somabooks/payments/internal/logging"
	"github.com/somabooks/payments/internal/models"
	"github.com/somabooks/payments/internal/repo"
)

type verdict int

const (
	verdictPending verdict = iota
	verdictPaid
	verdictFailed
)

// verdictFor is the single place gateway statuses map onto the payment
// state machine; anything unrecognized counts as still pending.
func verdictFor(transactionStatus string) verdict {
	switch transactionStatus {
	case gateway.StatusSuccess:
		return verdictPaid
	case gateway.StatusFailed, gateway.StatusAbandoned:
		return verdictFailed
	default:
		return verdictPending
	}
}

// Verify reconciles an order with the gateway's view of its transaction.
// Orders that are already paid are answered from storage without a gateway
// call. A gateway error leaves local state untouched: unreachable is not
// evidence of non-payment.
func (s *PaymentService) Verify(ctx context.Context, userID uuid.UUID, reference string, orderID uuid.UUID) (*VerifyResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment")

	// A caller disconnect must not abort settlement of a payment the
	// gateway may already have captured.
	ctx = context.WithoutCancel(ctx)

	order, err := s.resolveOrder(ctx, userID, reference, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		return settledResult(order), nil
	}

	if order.PaymentReference == nil || *order.PaymentReference == "" {
		return nil, fmt.Errorf("%w: order has no payment reference", ErrValidation)
	}
	ref := *order.PaymentReference
	l = l.With("order_id", order.ID, "reference", ref)

	gw, err := s.Gateway.Verify(ctx, ref)
	if err != nil {
		l.Warn("payment_verify_gateway_error", "error", err)
		return nil, err
	}

	now := time.Now().UTC()
	switch verdictFor(gw.Status) {
	case verdictPaid:
		won, err := s.Repo.CompletePayment(ctx, order.ID, now)
		if err != nil {
			return nil, fmt.Errorf("complete payment: %w", err)
		}
		if !won {
			// lost the settle race, answer from the stored row
			settled, err := s.Repo.OrderForUser(ctx, order.ID, userID)
			if err != nil {
				return nil, fmt.Errorf("reload settled order: %w", err)
			}
			return settledResult(settled), nil
		}
		l.Info("payment_completed", "amount_minor", gw.AmountMinor, "channel", gw.Channel)
		s.publish(ctx, order.ID, map[string]any{
			"type":         "payment_completed",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"reference":    ref,
			"amount":       gateway.FromMinorUnits(gw.AmountMinor),
			"channel":      gw.Channel,
		})
		return &VerifyResult{
			OrderID:           order.ID,
			OrderNumber:       order.OrderNumber,
			Reference:         ref,
			PaymentStatus:     models.PaymentStatusPaid,
			OrderStatus:       models.OrderStatusCompleted,
			TransactionStatus: gw.Status,
			Amount:            gateway.FromMinorUnits(gw.AmountMinor),
			PaidAt:            gw.PaidAt,
			Channel:           gw.Channel,
		}, nil

	case verdictFailed:
		ok, err := s.Repo.MarkPaymentFailed(ctx, order.ID, now)
		if err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		if !ok {
			settled, err := s.Repo.OrderForUser(ctx, order.ID, userID)
			if err != nil {
				return nil, fmt.Errorf("reload settled order: %w", err)
			}
			return settledResult(settled), nil
		}
		l.Info("payment_failed", "transaction_status", gw.Status)
		s.publish(ctx, order.ID, map[string]any{
			"type":         "payment_failed",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"reference":    ref,
		})
		return &VerifyResult{
			OrderID:           order.ID,
			OrderNumber:       order.OrderNumber,
			Reference:         ref,
			PaymentStatus:     models.PaymentStatusFailed,
			OrderStatus:       order.Status,
			TransactionStatus: gw.Status,
			Amount:            gateway.FromMinorUnits(gw.AmountMinor),
		}, nil

	default:
		return &VerifyResult{
			OrderID:           order.ID,
			OrderNumber:       order.OrderNumber,
			Reference:         ref,
			PaymentStatus:     order.PaymentStatus,
			OrderStatus:       order.Status,
			TransactionStatus: gw.Status,
			Amount:            gateway.FromMinorUnits(gw.AmountMinor),
			StillPending:      true,
		}, nil
	}
}

func (s *PaymentService) resolveOrder(ctx context.Context, userID uuid.UUID, reference string, orderID uuid.UUID) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	switch {
	case reference != "":
		order, err = s.Repo.OrderByReferenceForUser(ctx, reference, userID)
	case orderID != uuid.Nil:
		order, err = s.Repo.OrderForUser(ctx, orderID, userID)
	default:
		return nil, fmt.Errorf("%w: reference or order_id is required", ErrValidation)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

// settledResult rebuilds a verification answer from the stored row alone, so
// repeated calls on a settled order are pure reads with a stable body.
func settledResult(order *models.Order) *VerifyResult {
	ref := ""
	if order.PaymentReference != nil {
		ref = *order.PaymentReference
	}
	res := &VerifyResult{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Reference:     ref,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.Status,
		Amount:        order.TotalPrice,
		PaidAt:        order.CompletedAt,
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		res.TransactionStatus = gateway.StatusSuccess
	}
	return res
}
