package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/shopspring/decimal"
)

const (
	paystackSignatureHeader = "X-Paystack-Signature"
	// Paystack amounts are in kobo.
	paystackMinorUnitExp = 2
)

var paystackStatuses = map[string]entity.ResultStatus{
	"success":    entity.ResultSuccess,
	"failed":     entity.ResultFailed,
	"reversed":   entity.ResultFailed,
	"abandoned":  entity.ResultPending,
	"ongoing":    entity.ResultPending,
	"pending":    entity.ResultPending,
	"processing": entity.ResultPending,
	"queued":     entity.ResultPending,
}

var paystackEvents = map[string]entity.WebhookKind{
	"charge.success":        entity.WebhookChargeSuccess,
	"charge.failed":         entity.WebhookChargeFailed,
	"charge.dispute.create": entity.WebhookDispute,
}

// PaystackAdapter is the redirect + webhook gateway. The caller's transaction
// id is sent as the Paystack reference and is the only verification key.
type PaystackAdapter struct {
	api       *apiClient
	secretKey string
}

var _ Adapter = (*PaystackAdapter)(nil)

func NewPaystack(cfg config.Paystack, metrics metric.Gateway, log logger.Logger) (*PaystackAdapter, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("gateway.NewPaystack: secret key: %w", entity.ErrGatewayMisconfigured)
	}

	return &PaystackAdapter{
		api:       newAPIClient(Paystack, strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, metrics, log),
		secretKey: cfg.SecretKey,
	}, nil
}

func (p *PaystackAdapter) Name() string {
	return Paystack
}

func (p *PaystackAdapter) SignatureHeader() string {
	return paystackSignatureHeader
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransaction struct {
	ID              int64            `json:"id"`
	Status          string           `json:"status"`
	Reference       string           `json:"reference"`
	Amount          *decimal.Decimal `json:"amount"`
	Currency        string           `json:"currency"`
	GatewayResponse string           `json:"gateway_response"`
	PaidAt          *time.Time       `json:"paid_at"`
}

func (p *PaystackAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.secretKey}
}

func (p *PaystackAdapter) InitiateCharge(
	ctx context.Context,
	req *entity.ChargeRequest,
) (*entity.ChargeInitiation, error) {
	const op = "gateway.paystack.InitiateCharge"

	metadata := map[string]any{
		"transaction_id": req.TransactionID,
		"customer_id":    req.Customer.ID.String(),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	payload := map[string]any{
		"email":        req.Customer.Email,
		"amount":       req.Amount.Shift(paystackMinorUnitExp).Round(0).String(),
		"currency":     req.Currency,
		"reference":    req.TransactionID,
		"callback_url": req.CallbackURL,
		"metadata":     metadata,
	}

	resp, err := p.api.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", payload, p.authHeaders())
	if err != nil {
		return nil, err
	}

	var env paystackEnvelope
	if err = decode(op, resp.Body, &env); err != nil {
		return nil, err
	}
	if !env.Status || resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: rejected (%d): %s: %w",
			op, resp.StatusCode, env.Message, entity.ErrGatewayMisconfigured)
	}

	var data paystackInitData
	if err = decode(op, env.Data, &data); err != nil {
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%s: no authorization url: %w", op, entity.ErrGatewayUnavailable)
	}

	return &entity.ChargeInitiation{
		ProviderReference: data.AccessCode,
		AuthorizationURL:  data.AuthorizationURL,
		AccessCode:        data.AccessCode,
		Raw:               resp.Body,
	}, nil
}

// VerifyCharge looks the charge up by the caller's transaction id. An unknown
// reference is reported as ResultUnknown, not as an error.
func (p *PaystackAdapter) VerifyCharge(ctx context.Context, key string) (*entity.GatewayResult, error) {
	const op = "gateway.paystack.VerifyCharge"

	resp, err := p.api.do(ctx, "verify", http.MethodGet,
		"/transaction/verify/"+url.PathEscape(key), nil, p.authHeaders())
	if err != nil {
		return nil, err
	}

	result := &entity.GatewayResult{
		Gateway:       Paystack,
		TransactionID: key,
		Status:        entity.ResultUnknown,
		Raw:           resp.Body,
		Timestamp:     time.Now().UTC(),
	}

	var env paystackEnvelope
	if err = decode(op, resp.Body, &env); err != nil {
		return nil, err
	}
	if !env.Status || resp.StatusCode != http.StatusOK {
		result.ProviderStatus = env.Message
		return result, nil
	}

	var tx paystackTransaction
	if err = decode(op, env.Data, &tx); err != nil {
		return nil, err
	}

	if tx.Reference != "" {
		result.TransactionID = tx.Reference
	}
	if tx.ID != 0 {
		result.ProviderReference = strconv.FormatInt(tx.ID, 10)
	}
	result.ProviderStatus = tx.Status
	result.Status = normalize(paystackStatuses, tx.Status)
	if tx.Amount != nil {
		amount := tx.Amount.Shift(-paystackMinorUnitExp)
		result.ReportedAmount = &amount
	}
	if tx.PaidAt != nil {
		result.Timestamp = *tx.PaidAt
	}

	return result, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the body keyed with the secret key.
func (p *PaystackAdapter) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return verifyHMACSHA512(p.secretKey, rawBody, strings.ToLower(strings.TrimSpace(signature)))
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference   string `json:"reference"`
		Transaction struct {
			Reference string `json:"reference"`
		} `json:"transaction"`
	} `json:"data"`
}

func (p *PaystackAdapter) ParseWebhookEvent(rawBody []byte) (*entity.WebhookEvent, error) {
	const op = "gateway.paystack.ParseWebhookEvent"

	var ev paystackEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrMalformedWebhook, err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%s: missing event type: %w", op, entity.ErrMalformedWebhook)
	}

	kind, ok := paystackEvents[ev.Event]
	if !ok {
		kind = entity.WebhookUnhandled
	}

	ref := ev.Data.Reference
	if ref == "" {
		ref = ev.Data.Transaction.Reference
	}
	if ref == "" && kind != entity.WebhookUnhandled {
		return nil, fmt.Errorf("%s: %s: %w: %w", op, ev.Event, entity.ErrMalformedWebhook, errMissingReference)
	}

	return &entity.WebhookEvent{
		Kind:      kind,
		Type:      ev.Event,
		Reference: ref,
		Raw:       rawBody,
	}, nil
}

func normalize(table map[string]entity.ResultStatus, providerStatus string) entity.ResultStatus {
	if s, ok := table[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return s
	}
	return entity.ResultUnknown
}
