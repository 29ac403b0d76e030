package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	rzpsdk "github.com/razorpay/razorpay-go"

	"github.com/kiraya-market/kiraya-backend/pkg/config"
	pkgerrors "github.com/kiraya-market/kiraya-backend/pkg/errors"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Client wraps the Razorpay SDK with centralized logging and error mapping.
// Signature verification is pure and never touches the network.
type Client struct {
	sdk       *rzpsdk.Client
	keySecret string
	env       string
	logger    *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	c := &Client{
		sdk:       rzpsdk.NewClient(keyID, keySecret),
		keySecret: keySecret,
		env:       cfg.Environment(),
		logger:    logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// Environment reports the normalized Razorpay environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.env
}

// OrderCreateParams carry the fields for a gateway-side order.
type OrderCreateParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]any
}

// GatewayOrder is the subset of the gateway order response the caller needs.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Status      string
}

// CreateOrder registers an order with the gateway and returns its id. The
// returned id is what the checkout front end hands to the payment widget.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*GatewayOrder, error) {
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}
	data := map[string]any{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		data["notes"] = params.Notes
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount_paise": params.AmountPaise,
		"currency":     currency,
		"receipt":      params.Receipt,
	})

	resp, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "create gateway order")
	}

	order := &GatewayOrder{
		ID:          stringField(resp, "id"),
		AmountPaise: intField(resp, "amount"),
		Currency:    stringField(resp, "currency"),
		Status:      stringField(resp, "status"),
	}
	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return order, nil
}

// GatewayRefund is the subset of the gateway refund response the caller needs.
type GatewayRefund struct {
	ID     string
	Status string
}

// RefundPayment asks the gateway to reverse amountPaise of the captured
// payment. Errors are returned to the caller; converting them into refund
// state is the payments service's job, not this adapter's.
func (c *Client) RefundPayment(ctx context.Context, gatewayPaymentID string, amountPaise int64, notes map[string]any) (*GatewayRefund, error) {
	if gatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id required")
	}
	c.log(ctx, "request", "refund_payment", map[string]any{
		"gateway_payment_id": gatewayPaymentID,
		"amount_paise":       amountPaise,
	})

	data := map[string]any{}
	if len(notes) > 0 {
		data["notes"] = notes
	}
	resp, err := c.sdk.Payment.Refund(gatewayPaymentID, int(amountPaise), data, nil)
	if err != nil {
		c.log(ctx, "error", "refund_payment", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "initiate gateway refund")
	}

	refund := &GatewayRefund{
		ID:     stringField(resp, "id"),
		Status: stringField(resp, "status"),
	}
	c.log(ctx, "response", "refund_payment", map[string]any{
		"gateway_refund_id": refund.ID,
		"status":            refund.Status,
	})
	return refund, nil
}

// VerifySignature recomputes the checkout signature over
// "<gatewayOrderID>|<gatewayPaymentID>" and compares it in constant time.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, gatewayPaymentID, signature, c.keySecret)
}

// VerifySignature is the pure HMAC-SHA256 check used at payment capture.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{
		"gateway":   "razorpay",
		"phase":     phase,
		"operation": operation,
	}
	for k, v := range fields {
		merged[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, merged), "razorpay."+operation)
}

func stringField(resp map[string]any, key string) string {
	if v, ok := resp[key].(string); ok {
		return v
	}
	return ""
}

func intField(resp map[string]any, key string) int64 {
	switch v := resp[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
