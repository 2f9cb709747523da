// Package gateway talks to the external payment provider. Confirm and
// Cancel are synchronous network calls; callers must treat any error as
// "no remote state change can be assumed" and record only the explicit
// local transition.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
)

// ConfirmResult carries the payment metadata returned by the provider on a
// successful confirmation.
type ConfirmResult struct {
	Method      string
	CardNumber  string
	CardCompany string
}

// Client is the interface to the external payment provider.
type Client interface {
	// ClientKey returns the publishable key handed to the browser-side
	// payment widget.
	ClientKey() string

	// Confirm approves a prepared payment with the provider.
	Confirm(ctx context.Context, paymentKey, orderNumber string, amount decimal.Decimal) (*ConfirmResult, error)

	// Cancel reverses a completed payment with the provider.
	Cancel(ctx context.Context, paymentKey, reason string) error
}

// restClient implements Client against a Toss-style REST API secured with
// Basic auth on the secret key.
type restClient struct {
	baseURL    string
	clientKey  string
	authHeader string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a payment gateway client from configuration.
func NewClient(cfg config.GatewayConfig, logger zerolog.Logger) Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey + ":"))

	return &restClient{
		baseURL:    cfg.BaseURL,
		clientKey:  cfg.ClientKey,
		authHeader: "Basic " + credentials,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger.With().Str("component", "payment-gateway").Logger(),
	}
}

func (c *restClient) ClientKey() string {
	return c.clientKey
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     string `json:"amount"`
}

type confirmResponse struct {
	Method string `json:"method"`
	Card   struct {
		Number  string `json:"number"`
		Company string `json:"company"`
	} `json:"card"`
}

type cancelRequest struct {
	CancelReason string `json:"cancelReason"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Confirm approves a prepared payment with the provider.
func (c *restClient) Confirm(ctx context.Context, paymentKey, orderNumber string, amount decimal.Decimal) (*ConfirmResult, error) {
	body := confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderNumber,
		Amount:     amount.String(),
	}

	var resp confirmResponse
	if err := c.post(ctx, "/payments/confirm", body, &resp); err != nil {
		c.logger.Error().
			Err(err).
			Str("order_number", orderNumber).
			Msg("gateway confirmation failed")
		return nil, err
	}

	c.logger.Info().
		Str("order_number", orderNumber).
		Str("method", resp.Method).
		Msg("gateway confirmed payment")

	return &ConfirmResult{
		Method:      resp.Method,
		CardNumber:  resp.Card.Number,
		CardCompany: resp.Card.Company,
	}, nil
}

// Cancel reverses a completed payment with the provider.
func (c *restClient) Cancel(ctx context.Context, paymentKey, reason string) error {
	body := cancelRequest{CancelReason: reason}

	if err := c.post(ctx, "/payments/"+paymentKey+"/cancel", body, nil); err != nil {
		c.logger.Error().
			Err(err).
			Str("payment_key", paymentKey).
			Msg("gateway cancellation failed")
		return err
	}

	c.logger.Info().
		Str("payment_key", paymentKey).
		Msg("gateway cancelled payment")

	return nil
}

// post sends a JSON request and decodes the response into out when out is
// non-nil. Non-2xx responses are returned as errors carrying the provider's
// error code and message.
func (c *restClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr errorResponse
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &gwErr); err != nil || gwErr.Message == "" {
			return fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("gateway rejected request: %s (%s)", gwErr.Message, gwErr.Code)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}

	return nil
}
