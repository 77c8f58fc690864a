package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"swiftdrop/internal/service/payment"
)

// Payment is the provider's view of a charge, as returned by its read API.
type Payment struct {
	TransactionID string
	Status        string
	GatewayRef    string
	Amount        float64
	Currency      string
	UpdatedAt     time.Time
}

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payments gateway: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the payment provider over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a payments gateway client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type chargeBody struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type chargeReply struct {
	Approved   bool   `json:"approved"`
	GatewayRef string `json:"gateway_ref"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Charge submits a charge synchronously. A decline is a successful call
// with Approved=false; only transport and provider failures are errors.
// Charge is not idempotent on the provider side and must not be retried
// blindly.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	body, err := json.Marshal(chargeBody{
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("payments gateway: marshal charge: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments gateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var reply chargeReply
	if err := c.do(httpReq, &reply); err != nil {
		return nil, err
	}
	return &payment.ChargeResult{
		Approved:   reply.Approved,
		GatewayRef: reply.GatewayRef,
		Code:       reply.Code,
		Message:    reply.Message,
	}, nil
}

type paymentReply struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	GatewayRef    string    `json:"gateway_ref"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FetchPayment reads the provider's record for a transaction, or nil when
// the provider does not know it. Safe to retry.
func (c *Client) FetchPayment(ctx context.Context, transactionID string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/charges/"+transactionID, nil)
	if err != nil {
		return nil, fmt.Errorf("payments gateway: build request: %w", err)
	}

	var reply paymentReply
	if err := c.do(httpReq, &reply); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Payment{
		TransactionID: reply.TransactionID,
		Status:        reply.Status,
		GatewayRef:    reply.GatewayRef,
		Amount:        reply.Amount,
		Currency:      reply.Currency,
		UpdatedAt:     reply.UpdatedAt,
	}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("payments gateway: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payments gateway: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
