package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/somabooks/payments/internal/gateway"
	"github.com/somabooks/payments/internal/jwtmiddleware"
	"github.com/somabooks/payments/internal/logging"
	"github.com/somabooks/payments/internal/models"
	"github.com/somabooks/payments/internal/service"
	"github.com/somabooks/payments/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) InitiatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.initiate")

	ident, err := jwtmiddleware.FromContext(c)
	if err != nil {
		l.Warn("initiate_payment_error", "status", 401, "reason", "no identity", "error", err)
		return errorJSON(c, http.StatusUnauthorized, "unauthorized", "")
	}

	var req transport.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("initiate_payment_error", "status", 400, "reason", "invalid body", "error", err)
		return errorJSON(c, http.StatusBadRequest, "invalid body", "")
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		l.Warn("initiate_payment_error", "status", 400, "reason", "invalid order_id", "error", err)
		return errorJSON(c, http.StatusBadRequest, "invalid order_id", "")
	}

	res, err := h.Svc.Initiate(ctx, ident.UserID, ident.Email, orderID)
	if err != nil {
		return h.paymentError(c, l, "initiate_payment_error", err)
	}

	l.Info("initiate_payment_success", "order_id", res.OrderID, "reference", res.Reference)
	return c.JSON(http.StatusOK, transport.InitiatePaymentResponse{
		Success:          true,
		OrderID:          res.OrderID.String(),
		OrderNumber:      res.OrderNumber,
		PaymentReference: res.Reference,
		AuthorizationURL: res.AuthorizationURL,
		PaymentStatus:    string(res.PaymentStatus),
	})
}

func (h *PaymentHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	ident, err := jwtmiddleware.FromContext(c)
	if err != nil {
		l.Warn("verify_payment_error", "status", 401, "reason", "no identity", "error", err)
		return errorJSON(c, http.StatusUnauthorized, "unauthorized", "")
	}

	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_payment_error", "status", 400, "reason", "invalid body", "error", err)
		return errorJSON(c, http.StatusBadRequest, "invalid body", "")
	}
	if req.Reference == "" && req.OrderID == "" {
		l.Warn("verify_payment_error", "status", 400, "reason", "missing params")
		return errorJSON(c, http.StatusBadRequest, "reference or order_id is required", "")
	}
	orderID := uuid.Nil
	if req.OrderID != "" {
		orderID, err = uuid.Parse(req.OrderID)
		if err != nil {
			l.Warn("verify_payment_error", "status", 400, "reason", "invalid order_id", "error", err)
			return errorJSON(c, http.StatusBadRequest, "invalid order_id", "")
		}
	}

	res, err := h.Svc.Verify(ctx, ident.UserID, req.Reference, orderID)
	if err != nil {
		return h.paymentError(c, l, "verify_payment_error", err)
	}

	l.Info("verify_payment_success",
		"order_id", res.OrderID,
		"payment_status", res.PaymentStatus,
		"transaction_status", res.TransactionStatus,
	)
	return c.JSON(http.StatusOK, transport.VerifyPaymentResponse{
		Success:           res.PaymentStatus == models.PaymentStatusPaid,
		OrderID:           res.OrderID.String(),
		OrderNumber:       res.OrderNumber,
		PaymentReference:  res.Reference,
		PaymentStatus:     string(res.PaymentStatus),
		OrderStatus:       string(res.OrderStatus),
		TransactionStatus: res.TransactionStatus,
		Amount:            res.Amount,
		PaidAt:            res.PaidAt,
		Channel:           res.Channel,
	})
}

func (h *PaymentHTTP) paymentError(c echo.Context, l *slog.Logger, event string, err error) error {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return errorJSON(c, http.StatusNotFound, "order not found", "")
	case errors.Is(err, service.ErrAlreadyPaid):
		l.Warn(event, "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "order already paid", "")
	case errors.Is(err, service.ErrOrderCancelled):
		l.Warn(event, "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "order cancelled", "")
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "invalid request", err.Error())
	case errors.As(err, &gwErr):
		l.Error(event, "status", 502, "error", err)
		return errorJSON(c, http.StatusBadGateway, "payment gateway error", gwErr.Message)
	default:
		l.Error(event, "status", 500, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error", "")
	}
}

func errorJSON(c echo.Context, code int, msg, details string) error {
	return c.JSON(code, transport.ErrorResponse{Error: msg, Details: details})
}
