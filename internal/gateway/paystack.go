package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses reported by Paystack.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

const DefaultBaseURL = "https://api.paystack.co"

// Gateway is the provider-facing side of the payment flow.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type InitiateRequest struct {
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	CallbackURL string
	OrderID     string
	OrderNumber string
}

type InitiateResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResult struct {
	Status      string
	AmountMinor int64
	Currency    string
	Channel     string
	PaidAt      *time.Time
	FeesMinor   int64
}

// Error carries the provider response for failed gateway calls. A zero
// StatusCode means the call never reached the provider.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paystack %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("paystack %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

type PaystackClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaystackClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type initiatePayload struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initiateData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status   string     `json:"status"`
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Channel  string     `json:"channel"`
	PaidAt   *time.Time `json:"paid_at"`
	Fees     int64      `json:"fees"`
}

// Initiate opens a transaction with the provider. Amount is converted to
// minor units on the wire; the order coordinates ride along as metadata.
func (c *PaystackClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	payload := initiatePayload{
		Email:       req.Email,
		Amount:      ToMinorUnits(req.Amount),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata: map[string]any{
			"order_id":     req.OrderID,
			"order_number": req.OrderNumber,
		},
	}

	var data initiateData
	if err := c.call(ctx, "initiate", http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}
	return &InitiateResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, &Error{Op: "verify", Message: "empty reference"}
	}

	var data verifyData
	if err := c.call(ctx, "verify", http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}
	return &VerifyResult{
		Status:      data.Status,
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Channel:     data.Channel,
		PaidAt:      data.PaidAt,
		FeesMinor:   data.Fees,
	}, nil
}

func (c *PaystackClient) call(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "malformed gateway response", Err: err}
	}
	if resp.StatusCode != http.StatusOK || !envelope.Status {
		msg := envelope.Message
		if msg == "" {
			msg = resp.Status
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "malformed gateway response", Err: err}
	}
	return nil
}
