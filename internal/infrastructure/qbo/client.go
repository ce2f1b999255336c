// Package qbo is the HTTP client for the QuickBooks Online accounting API.
package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sangkips/qbo-connector/internal/domain/remote"
	"github.com/sangkips/qbo-connector/internal/domain/repository"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// QBO answers a read of a missing entity with this fault code.
const faultObjectNotFound = "610"

// Config holds client settings
type Config struct {
	BaseURL           string
	MinorVersion      string
	Timeout           time.Duration
	RequestsPerMinute int
	Breaker           BreakerConfig
}

// Client calls the accounting API with the stored bearer token. Calls are
// rate limited to the Intuit quota and pass through a circuit breaker.
type Client struct {
	baseURL      string
	minorVersion string
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *circuitBreaker
	settings     repository.SettingsRepository
	logger       *logrus.Logger
}

// NewClient creates a new QuickBooks client
func NewClient(cfg Config, settings repository.SettingsRepository, logger *logrus.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 500
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = DefaultBreakerConfig()
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		minorVersion: cfg.MinorVersion,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 10),
		breaker:      newCircuitBreaker(breakerCfg, logger),
		settings:     settings,
		logger:       logger,
	}
}

type invoiceEnvelope struct {
	Invoice *remote.Invoice `json:"Invoice"`
}

type paymentEnvelope struct {
	Payment *remote.Payment `json:"Payment"`
}

type customerEnvelope struct {
	Customer *remote.Customer `json:"Customer"`
}

type itemEnvelope struct {
	Item *remote.Item `json:"Item"`
}

// GetInvoice fetches the current snapshot of an invoice
func (c *Client) GetInvoice(ctx context.Context, realmID, id string) (*remote.Invoice, error) {
	var env invoiceEnvelope
	if err := c.do(ctx, http.MethodGet, realmID, "invoice/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Invoice == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Invoice", nil)
	}
	return env.Invoice, nil
}

// GetPayment fetches the current snapshot of a payment
func (c *Client) GetPayment(ctx context.Context, realmID, id string) (*remote.Payment, error) {
	var env paymentEnvelope
	if err := c.do(ctx, http.MethodGet, realmID, "payment/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Payment == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Payment", nil)
	}
	return env.Payment, nil
}

// GetItem fetches an item, mainly for its SyncToken
func (c *Client) GetItem(ctx context.Context, id string) (*remote.Item, error) {
	var env itemEnvelope
	if err := c.do(ctx, http.MethodGet, "", "item/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Item == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Item", nil)
	}
	return env.Item, nil
}

func (c *Client) CreateInvoice(ctx context.Context, invoice *remote.Invoice) (*remote.Invoice, error) {
	var env invoiceEnvelope
	if err := c.do(ctx, http.MethodPost, "", "invoice", nil, invoice, &env); err != nil {
		return nil, err
	}
	if env.Invoice == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Invoice", nil)
	}
	return env.Invoice, nil
}

func (c *Client) CreatePayment(ctx context.Context, payment *remote.Payment) (*remote.Payment, error) {
	var env paymentEnvelope
	if err := c.do(ctx, http.MethodPost, "", "payment", nil, payment, &env); err != nil {
		return nil, err
	}
	if env.Payment == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Payment", nil)
	}
	return env.Payment, nil
}

func (c *Client) CreateCustomer(ctx context.Context, customer *remote.Customer) (*remote.Customer, error) {
	var env customerEnvelope
	if err := c.do(ctx, http.MethodPost, "", "customer", nil, customer, &env); err != nil {
		return nil, err
	}
	if env.Customer == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Customer", nil)
	}
	return env.Customer, nil
}

// UpdateItem sends a sparse item update
func (c *Client) UpdateItem(ctx context.Context, item *remote.Item) (*remote.Item, error) {
	var env itemEnvelope
	query := url.Values{"operation": {"update"}}
	if err := c.do(ctx, http.MethodPost, "", "item", query, item, &env); err != nil {
		return nil, err
	}
	if env.Item == nil {
		return nil, apperror.NewTransientError("QuickBooks response has no Item", nil)
	}
	return env.Item, nil
}

type rawResponse struct {
	status int
	body   []byte
}

// serverError is a 5xx answer; it is the only status that counts against
// the breaker
type serverError struct {
	status int
	body   []byte
}

func (e *serverError) Error() string {
	return fmt.Sprintf("QuickBooks returned %d", e.status)
}

func (c *Client) do(ctx context.Context, method, realmID, path string, query url.Values, body, out interface{}) error {
	settings, err := c.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load QuickBooks settings: %w", err)
	}
	if !settings.IsConnected() {
		return apperror.ErrNotConnected
	}
	if realmID == "" {
		realmID = settings.RealmID
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	if c.minorVersion != "" {
		query.Set("minorversion", c.minorVersion)
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s", c.baseURL, url.PathEscape(realmID), path)
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.NewTransientError("QuickBooks rate limit wait aborted", err)
	}

	result, err := c.breaker.execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+settings.AccessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &serverError{status: resp.StatusCode, body: data}
		}
		return &rawResponse{status: resp.StatusCode, body: data}, nil
	})
	if err != nil {
		return c.transportError(method, path, err)
	}

	raw := result.(*rawResponse)
	if raw.status >= http.StatusOK && raw.status < http.StatusMultipleChoices {
		if err := json.Unmarshal(raw.body, out); err != nil {
			return apperror.NewTransientError("unreadable QuickBooks response", err)
		}
		return nil
	}
	return c.statusError(method, path, raw)
}

func (c *Client) transportError(method, path string, err error) error {
	fields := logrus.Fields{"method": method, "path": path}

	var srvErr *serverError
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return apperror.NewTransientError("QuickBooks temporarily unavailable", err)
	case errors.As(err, &srvErr):
		fields["status"] = srvErr.status
		c.logger.WithFields(fields).Warn("QuickBooks server error")
		return apperror.NewTransientError(faultMessage(srvErr.body, srvErr.Error()), err)
	default:
		c.logger.WithFields(fields).WithError(err).Warn("QuickBooks request failed")
		return apperror.NewTransientError("QuickBooks request failed", err)
	}
}

func (c *Client) statusError(method, path string, raw *rawResponse) error {
	var fault remote.Fault
	_ = json.Unmarshal(raw.body, &fault)
	message := faultMessage(raw.body, fmt.Sprintf("QuickBooks returned %d", raw.status))
	cause := fmt.Errorf("%s %s: status %d", method, path, raw.status)

	switch {
	case raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden:
		return apperror.NewAuthenticationError(message, cause)
	case raw.status == http.StatusNotFound || hasFaultCode(&fault, faultObjectNotFound):
		return apperror.NewNotFoundError("QuickBooks " + path)
	case raw.status == http.StatusTooManyRequests:
		c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Warn("QuickBooks throttled the request")
		return apperror.NewTransientError(message, cause)
	default:
		return apperror.NewRemoteValidationError(message, cause)
	}
}

func faultMessage(body []byte, fallback string) string {
	var fault remote.Fault
	if err := json.Unmarshal(body, &fault); err != nil {
		return fallback
	}
	if msg := fault.Message(); msg != "" {
		return msg
	}
	return fallback
}

func hasFaultCode(fault *remote.Fault, code string) bool {
	for _, e := range fault.Fault.Error {
		if e.Code == code {
			return true
		}
	}
	return false
}
