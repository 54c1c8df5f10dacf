package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"marketplace.backend/internal/config"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/infrastructure/metrics"
	"marketplace.backend/pkg/logger"
)

const maxErrorBody = 512

// ErrUnexpectedResponse is returned when the provider answers with a payload
// the client cannot use.
var ErrUnexpectedResponse = errors.New("unexpected gateway response")

// Client talks to the payment provider's JSON API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a gateway client. m may be nil.
func NewClient(cfg config.GatewayConfig, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Customer    customer        `json:"customer"`
	CallbackURL string          `json:"callbackUrl"`
}

type customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type transactionResponse struct {
	ID         string `json:"id"`
	PaymentURL string `json:"paymentUrl"`
	Status     string `json:"status"`
}

// CreateTransaction opens a hosted payment and returns where to send the payer
func (c *Client) CreateTransaction(ctx context.Context, input entities.CreateTransactionInput) (*entities.GatewayTransaction, error) {
	start := time.Now()
	var out transactionResponse
	err := c.do(ctx, http.MethodPost, "/v1/transactions", createTransactionRequest{
		Amount:      input.Amount,
		Description: input.Description,
		Customer:    customer{Email: input.CustomerEmail, Name: input.CustomerName},
		CallbackURL: input.CallbackURL,
	}, &out)
	if err == nil && (out.ID == "" || out.PaymentURL == "") {
		err = fmt.Errorf("%w: missing id or paymentUrl", ErrUnexpectedResponse)
	}
	c.metrics.ObserveGateway("create_transaction", err, time.Since(start))
	if err != nil {
		logger.Error(ctx, "Gateway create transaction failed", zap.Error(err))
		return nil, err
	}

	logger.Info(ctx, "Gateway transaction created", zap.String("transaction_id", out.ID))
	return &entities.GatewayTransaction{ID: out.ID, PaymentURL: out.PaymentURL}, nil
}

// VerifyTransaction asks the provider for the authoritative transaction status
func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (*entities.GatewayVerification, error) {
	start := time.Now()
	var out transactionResponse
	err := c.do(ctx, http.MethodGet, "/v1/transactions/"+url.PathEscape(transactionID), nil, &out)
	var status entities.GatewayTransactionStatus
	if err == nil {
		status, err = normalizeStatus(out.Status)
	}
	c.metrics.ObserveGateway("verify_transaction", err, time.Since(start))
	if err != nil {
		logger.Error(ctx, "Gateway verify transaction failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		return nil, err
	}

	id := out.ID
	if id == "" {
		id = transactionID
	}
	return &entities.GatewayVerification{ID: id, Status: status}, nil
}

// normalizeStatus folds provider vocabularies onto approved/pending/declined
func normalizeStatus(raw string) (entities.GatewayTransactionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "paid", "succeeded", "success", "completed":
		return entities.GatewayApproved, nil
	case "pending", "processing", "created":
		return entities.GatewayPending, nil
	case "declined", "failed", "cancelled", "canceled", "expired":
		return entities.GatewayDeclined, nil
	}
	return "", fmt.Errorf("%w: status %q", ErrUnexpectedResponse, raw)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}
