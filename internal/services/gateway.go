package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"go.uber.org/zap"
)

// PaymentGateway is the mobile-money provider surface used to collect
// payments (C2B), query their state and pay vendors out (B2C).
type PaymentGateway interface {
	SubmitPayment(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error)

	CheckStatus(ctx context.Context, referencia string) (*models.GatewayStatus, error)

	SubmitPayout(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error)
}

var errGatewayServer = errors.New("gateway internal server error")

// msisdnPattern accepts Mozambican mobile numbers without the country
// code, as the providers expect them.
var msisdnPattern = regexp.MustCompile(`^8[4-7][0-9]{7}$`)

func ValidPhone(telefone string) bool {
	return msisdnPattern.MatchString(telefone)
}

func ValidMethod(metodo models.PaymentMethod) bool {
	return metodo == models.MethodMpesa || metodo == models.MethodEmola
}

// E2PaymentsClient talks to the e2Payments HTTP API.
type E2PaymentsClient struct {
	endpoint string
	walletID string
}

func NewE2PaymentsClient(endpoint string, walletID string) *E2PaymentsClient {
	return &E2PaymentsClient{
		endpoint: endpoint,
		walletID: walletID,
	}
}

type gatewayChargeRequest struct {
	WalletID  string  `json:"wallet_id"`
	Phone     string  `json:"phone"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
}

type gatewayChargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type gatewayStatusResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

const defaultRetryAfterDuration = 60

func (c *E2PaymentsClient) SubmitPayment(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error) {
	url := fmt.Sprintf("%s/v1/c2b/%s-payment/%s", c.endpoint, metodo, c.walletID)

	return c.submit(ctx, url, telefone, valor, referencia)
}

func (c *E2PaymentsClient) SubmitPayout(ctx context.Context, metodo models.PaymentMethod, valor float64, telefone string, referencia string) (*models.GatewayResponse, error) {
	url := fmt.Sprintf("%s/v1/b2c/%s-payment/%s", c.endpoint, metodo, c.walletID)

	return c.submit(ctx, url, telefone, valor, referencia)
}

func (c *E2PaymentsClient) submit(ctx context.Context, url string, telefone string, valor float64, referencia string) (*models.GatewayResponse, error) {
	body, err := json.Marshal(gatewayChargeRequest{
		WalletID:  c.walletID,
		Phone:     telefone,
		Amount:    valor,
		Reference: referencia,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	client := &http.Client{}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))

	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("failed to send data by using POST method: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode == http.StatusInternalServerError {
		return nil, errGatewayServer
	}

	var parsedData gatewayChargeResponse
	var buf bytes.Buffer

	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("failed to read from response body: %w", err)
	}

	if err := json.Unmarshal(buf.Bytes(), &parsedData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &models.GatewayResponse{
		Success:       parsedData.Success,
		TransactionID: parsedData.TransactionID,
		Status:        parsedData.Status,
		Message:       parsedData.Message,
	}, nil
}

// CheckStatus queries the provider for the state of a collection
// request. A payment the provider doesn't know yet yields (nil, nil)
// so the caller keeps polling. A 429 pauses the caller for the
// Retry-After window.
func (c *E2PaymentsClient) CheckStatus(ctx context.Context, referencia string) (*models.GatewayStatus, error) {
	client := &http.Client{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/payments/%s", c.endpoint, referencia), nil)

	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("failed to send data by using GET method: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusNotFound {
		logger.Log.Debug("payment isn't registered at the gateway yet", zap.String("referencia", referencia))
		return nil, nil
	}

	if res.StatusCode == http.StatusTooManyRequests {
		retryAfter, err := strconv.Atoi(res.Header.Get("Retry-After"))

		if err != nil {
			retryAfter = defaultRetryAfterDuration
		}

		logger.Log.Info("gateway rate limited status checks", zap.Int("retryAfter", retryAfter))

		select {
		case <-time.After(time.Second * time.Duration(retryAfter)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		return nil, nil
	}

	if res.StatusCode == http.StatusInternalServerError {
		return nil, errGatewayServer
	}

	var parsedData gatewayStatusResponse
	var buf bytes.Buffer

	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("failed to read from response body: %w", err)
	}

	if err := json.Unmarshal(buf.Bytes(), &parsedData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &models.GatewayStatus{
		Status:  parsedData.Status,
		Message: parsedData.Message,
	}, nil
}
