/*
Package payment implements the typed pass-through client for the external
payment-widget confirmation API.

The provider receives the paymentKey/orderId/amount triple with Basic
authentication derived from the widget secret key and answers with a status
code and an opaque JSON body, both of which are surfaced to the caller
verbatim. The only value this service derives from the flow is the coupon
conversion of the paid amount.
*/
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WonPerCoupon is the display conversion rate between the provider's currency
// unit and in-system coupons.
const WonPerCoupon = 1000

const confirmPath = "/v1/payments/confirm"

// ConfirmRequest is the typed confirmation payload forwarded to the provider.
// All three fields arrive from the widget as strings and are passed through
// unmodified.
type ConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     string `json:"amount"`
}

// ConfirmResult carries the provider's verdict: its HTTP status code and the
// raw response body. Approved is true only for a 200 response.
type ConfirmResult struct {
	StatusCode int
	Approved   bool
	Body       json.RawMessage
}

// Client talks to the payment provider's confirmation endpoint.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// NewClient builds a Client for the given provider base URL and widget secret
// key. The Basic credential is the base64 encoding of "secretKey:".
func NewClient(baseURL, secretKey string) *Client {
	credential := base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: "Basic " + credential,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Confirm forwards the confirmation request to the provider and returns its
// status code and body. A non-nil error means the provider could not be
// reached or answered unintelligibly; a declined payment is not an error and
// is reported through ConfirmResult instead.
func (c *Client) Confirm(ctx context.Context, confirm ConfirmRequest) (*ConfirmResult, error) {
	payload, err := json.Marshal(confirm)
	if err != nil {
		return nil, fmt.Errorf("failed to encode confirmation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+confirmPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build confirmation request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("provider returned a non-JSON response (status %d)", res.StatusCode)
	}

	return &ConfirmResult{
		StatusCode: res.StatusCode,
		Approved:   res.StatusCode == http.StatusOK,
		Body:       json.RawMessage(body),
	}, nil
}

// CouponValue converts the widget's string amount into whole coupons at
// WonPerCoupon. It rejects non-numeric and non-positive amounts.
func CouponValue(amount string) (int, error) {
	won, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number: %w", amount, err)
	}
	if won <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", won)
	}
	return won / WonPerCoupon, nil
}
