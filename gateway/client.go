package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error wraps a failure talking to the remote payment provider. Callers can
// retry the originating operation: no local state is mutated before the
// remote call succeeds.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// OrderParams describes a remote payment order to create.
type OrderParams struct {
	AmountCents int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Client is the payment provider boundary consumed by the purchase workflow.
type Client interface {
	// CreateOrder registers a payment order with the provider and returns
	// the provider-issued order id.
	CreateOrder(ctx context.Context, params OrderParams) (string, error)
	// VerifyPaymentSignature checks a payment completion signature against
	// the order it settles. Verification is local; it never hits the network.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// HTTPClient talks to a Razorpay-compatible orders API using key-pair basic
// auth. Completion signatures are HMAC-SHA256 over "orderID|paymentID" keyed
// with the secret.
type HTTPClient struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewHTTPClient builds a provider client. The HTTP client timeout is a
// backstop; per-call deadlines come from the caller's context.
func NewHTTPClient(baseURL, keyID, keySecret string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTP overrides the underlying HTTP client, mainly for tests.
func (c *HTTPClient) WithHTTP(h *http.Client) *HTTPClient {
	c.http = h
	return c
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers the order with the provider.
func (c *HTTPClient) CreateOrder(ctx context.Context, params OrderParams) (string, error) {
	if params.AmountCents <= 0 {
		return "", &Error{Op: "create order", Err: fmt.Errorf("amount must be positive")}
	}
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}

	body, err := json.Marshal(orderRequest{
		Amount:   params.AmountCents,
		Currency: currency,
		Receipt:  params.Receipt,
		Notes:    params.Notes,
	})
	if err != nil {
		return "", &Error{Op: "create order", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "create order", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Op: "create order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Error{Op: "create order", Err: fmt.Errorf("provider returned %d: %s", resp.StatusCode, snippet)}
	}

	var decoded orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &Error{Op: "create order", Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.ID == "" {
		return "", &Error{Op: "create order", Err: fmt.Errorf("provider response missing order id")}
	}

	return decoded.ID, nil
}

// VerifyPaymentSignature recomputes the expected signature and compares in
// constant time.
func (c *HTTPClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
