package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/env"
)

// ErrGatewayUnavailable marks a transient gateway failure (timeout, 5xx).
// Safe for the client to retry; never treated as a denial or a grant.
var ErrGatewayUnavailable = errors.New("payment: gateway unavailable")

// Gateway creates checkout orders on the external payment provider.
type Gateway interface {
	CreateGatewayOrder(ctx context.Context, amountMinorUnits int64, currency string) (string, error)
}

const gatewayTimeout = 15 * time.Second

// HTTPGateway talks to a Razorpay-style orders API with key/secret basic auth.
type HTTPGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// NewHTTPGatewayFromEnv builds a gateway client from environment configuration.
func NewHTTPGatewayFromEnv() *HTTPGateway {
	return &HTTPGateway{
		baseURL:   env.GetEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
		keyID:     env.GetEnv("GATEWAY_KEY_ID", ""),
		keySecret: env.GetEnv("GATEWAY_KEY_SECRET", ""),
		client:    &http.Client{Timeout: gatewayTimeout},
	}
}

type gatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type gatewayOrderResponse struct {
	ID string `json:"id"`
}

// CreateGatewayOrder registers an order with the provider and returns the
// provider's order id. Network and 5xx failures surface as
// ErrGatewayUnavailable.
func (g *HTTPGateway) CreateGatewayOrder(ctx context.Context, amountMinorUnits int64, currency string) (string, error) {
	body, err := json.Marshal(gatewayOrderRequest{Amount: amountMinorUnits, Currency: currency})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment: gateway rejected order creation with status %d", resp.StatusCode)
	}

	var out gatewayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if out.ID == "" {
		return "", errors.New("payment: gateway returned empty order id")
	}
	return out.ID, nil
}
