package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nutrio/subscription-service/internal/domain"
	"github.com/nutrio/subscription-service/pkg/logger"
)

const ordersPath = "/v1/orders"

// OrderRequest представляет запрос на создание заказа в Razorpay
type OrderRequest struct {
	AmountMinorUnits int64
	Currency         string
	Receipt          string
	Notes            map[string]string
}

// Order представляет заказ, созданный на стороне Razorpay
type Order struct {
	ID               string `json:"id"`
	Entity           string `json:"entity"`
	AmountMinorUnits int64  `json:"amount"`
	Currency         string `json:"currency"`
	Receipt          string `json:"receipt"`
	Status           string `json:"status"`
	CreatedAt        int64  `json:"created_at"`
}

// PaymentGateway интерфейс платежного шлюза
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Client клиент для работы с Razorpay REST API
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	cb            *gobreaker.CircuitBreaker
	log           *logger.Logger
}

// Config конфигурация клиента Razorpay
type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
}

// NewClient создает новый клиент Razorpay
func NewClient(cfg Config, log *logger.Logger) *Client {
	client := &Client{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		log:           log,
	}

	// Настройка circuit breaker
	client.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "razorpay-api",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker '%s' changed from %s to %s", name, from, to)
		},
	})

	return client
}

// orderPayload тело запроса к API заказов
type orderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// apiError тело ошибки Razorpay API
type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder создает заказ на стороне Razorpay.
// Локальная запись подписки создается только после успешного ответа шлюза.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	c.log.Debug("Creating Razorpay order, receipt: %s, amount: %d %s",
		req.Receipt, req.AmountMinorUnits, req.Currency)

	body, err := json.Marshal(orderPayload{
		Amount:   req.AmountMinorUnits,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return Order{}, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.doCreateOrder(ctx, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return Order{}, domain.NewGatewayError("circuit_open", "payment gateway temporarily unavailable", http.StatusServiceUnavailable, err)
		}
		return Order{}, err
	}

	order := result.(Order)
	c.log.Info("Created Razorpay order: %s", order.ID)
	return order, nil
}

// doCreateOrder выполняет HTTP запрос к API заказов
func (c *Client) doCreateOrder(ctx context.Context, body []byte) (Order, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("failed to build order request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Order{}, domain.NewGatewayError("network", "failed to reach payment gateway", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, domain.NewGatewayError("read_body", "failed to read gateway response", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Code != "" {
			return Order{}, domain.NewGatewayError(apiErr.Error.Code, apiErr.Error.Description, resp.StatusCode, nil)
		}
		return Order{}, domain.NewGatewayError("http_error",
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), resp.StatusCode, nil)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return Order{}, domain.NewGatewayError("decode", "failed to decode gateway response", resp.StatusCode, err)
	}

	if order.ID == "" {
		return Order{}, domain.NewGatewayError("empty_order", "gateway returned order without id", resp.StatusCode, nil)
	}

	return order, nil
}
