package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const _maxResponseBytes = 1 << 20

// apiClient is the provider-agnostic HTTP plumbing shared by the adapters.
// It never retries.
type apiClient struct {
	gateway string
	baseURL string
	http    *http.Client
	metrics metric.Gateway
	log     logger.Logger
}

func newAPIClient(gateway, baseURL string, timeout time.Duration, metrics metric.Gateway, log logger.Logger) *apiClient {
	return &apiClient{
		gateway: gateway,
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: metrics,
		log:     log,
	}
}

type apiResponse struct {
	StatusCode int
	Body       []byte
}

// do sends a JSON request and returns the raw response. Transport failures,
// timeouts and 5xx answers are ErrGatewayUnavailable; 401/403 are
// ErrGatewayMisconfigured. Other statuses are returned to the adapter.
func (c *apiClient) do(
	ctx context.Context,
	operation, method, path string,
	payload any,
	headers map[string]string,
) (*apiResponse, error) {
	op := "gateway." + c.gateway + "." + operation

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Call(c.gateway, operation, "transport_error", time.Since(start))
		c.log.LogAttrs(ctx, logger.WarnLevel, "gateway request failed",
			logger.String("operation", op),
			logger.String("gateway", c.gateway),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, _maxResponseBytes))
	if err != nil {
		c.metrics.Call(c.gateway, operation, "transport_error", time.Since(start))
		return nil, fmt.Errorf("%s: read response: %w: %w", op, entity.ErrGatewayUnavailable, err)
	}

	c.metrics.Call(c.gateway, operation, outcome(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, entity.ErrGatewayUnavailable)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, entity.ErrGatewayMisconfigured)
	}

	return &apiResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}

func outcome(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "ok"
	}
}

// decode unmarshals a provider response. A body that is not the expected JSON
// means we learned nothing, so it is treated like an unreachable gateway.
func decode(op string, raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: malformed response: %w: %w", op, entity.ErrGatewayUnavailable, err)
	}
	return nil
}

// SignWebhook returns the hex HMAC-SHA512 of body, the signature both
// gateways put in their webhook header.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyHMACSHA512 compares in constant time. An empty secret never verifies.
func verifyHMACSHA512(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

var errMissingReference = errors.New("event carries no transaction reference")
