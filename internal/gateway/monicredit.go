package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"

	"github.com/shopspring/decimal"
)

const monicreditSignatureHeader = "X-Monicredit-Signature"

var monicreditStatuses = map[string]entity.ResultStatus{
	"approved":   entity.ResultSuccess,
	"success":    entity.ResultSuccess,
	"successful": entity.ResultSuccess,
	"paid":       entity.ResultSuccess,
	"failed":     entity.ResultFailed,
	"declined":   entity.ResultFailed,
	"cancelled":  entity.ResultFailed,
	"pending":    entity.ResultPending,
	"processing": entity.ResultPending,
}

var monicreditEvents = map[string]entity.WebhookKind{
	"transaction.successful": entity.WebhookChargeSuccess,
	"transaction.failed":     entity.WebhookChargeFailed,
	"transaction.dispute":    entity.WebhookDispute,
}

// MonicreditAdapter is the wallet/inline gateway. Verification accepts either
// the caller's order id or the Monicredit transaction id, and amounts are
// already in naira.
type MonicreditAdapter struct {
	api           *apiClient
	publicKey     string
	privateKey    string
	webhookSecret string
	revenueHead   string
}

var _ Adapter = (*MonicreditAdapter)(nil)

func NewMonicredit(cfg config.Monicredit, metrics metric.Gateway, log logger.Logger) (*MonicreditAdapter, error) {
	switch {
	case cfg.PublicKey == "":
		return nil, fmt.Errorf("gateway.NewMonicredit: public key: %w", entity.ErrGatewayMisconfigured)
	case cfg.PrivateKey == "":
		return nil, fmt.Errorf("gateway.NewMonicredit: private key: %w", entity.ErrGatewayMisconfigured)
	case cfg.WebhookSecret == "":
		return nil, fmt.Errorf("gateway.NewMonicredit: webhook secret: %w", entity.ErrGatewayMisconfigured)
	}

	return &MonicreditAdapter{
		api:           newAPIClient(Monicredit, strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, metrics, log),
		publicKey:     cfg.PublicKey,
		privateKey:    cfg.PrivateKey,
		webhookSecret: cfg.WebhookSecret,
		revenueHead:   cfg.RevenueHead,
	}, nil
}

func (m *MonicreditAdapter) Name() string {
	return Monicredit
}

func (m *MonicreditAdapter) SignatureHeader() string {
	return monicreditSignatureHeader
}

type monicreditItem struct {
	Item            string `json:"item"`
	RevenueHeadCode string `json:"revenue_head_code,omitempty"`
	UnitCost        string `json:"unit_cost"`
}

type monicreditCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type monicreditInitRequest struct {
	OrderID     string             `json:"order_id"`
	PublicKey   string             `json:"public_key"`
	Customer    monicreditCustomer `json:"customer"`
	FeeBearer   string             `json:"fee_bearer"`
	Items       []monicreditItem   `json:"items"`
	Currency    string             `json:"currency"`
	CallbackURL string             `json:"callback_url,omitempty"`
	Paytype     string             `json:"paytype"`
}

type monicreditInitResponse struct {
	Status           bool   `json:"status"`
	Message          string `json:"message"`
	ID               string `json:"id"`
	AuthorizationURL string `json:"authorization_url"`
}

type monicreditVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status        string           `json:"status"`
		OrderID       string           `json:"order_id"`
		TransactionID string           `json:"transaction_id"`
		Amount        *decimal.Decimal `json:"amount"`
		DatePaid      string           `json:"date_paid"`
	} `json:"data"`
}

func (m *MonicreditAdapter) InitiateCharge(
	ctx context.Context,
	req *entity.ChargeRequest,
) (*entity.ChargeInitiation, error) {
	const op = "gateway.monicredit.InitiateCharge"

	first, last := splitName(req.Customer.Name)
	payload := monicreditInitRequest{
		OrderID:   req.TransactionID,
		PublicKey: m.publicKey,
		Customer: monicreditCustomer{
			FirstName: first,
			LastName:  last,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		FeeBearer:   "client",
		Items:       m.items(req),
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Paytype:     "inline",
	}

	resp, err := m.api.do(ctx, "initialize", http.MethodPost,
		"/payment/transactions/init-transaction", payload, nil)
	if err != nil {
		return nil, err
	}

	var out monicreditInitResponse
	if err = decode(op, resp.Body, &out); err != nil {
		return nil, err
	}
	if !out.Status || resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s: rejected (%d): %s: %w",
			op, resp.StatusCode, out.Message, entity.ErrGatewayMisconfigured)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%s: no transaction id: %w", op, entity.ErrGatewayUnavailable)
	}

	return &entity.ChargeInitiation{
		ProviderReference: out.ID,
		AuthorizationURL:  out.AuthorizationURL,
		Raw:               resp.Body,
	}, nil
}

// items sends one entry per line item. Delivery is billed as its own item so
// the provider total equals the payment amount.
func (m *MonicreditAdapter) items(req *entity.ChargeRequest) []monicreditItem {
	items := make([]monicreditItem, 0, len(req.LineItems)+1)
	var sum decimal.Decimal
	for _, li := range req.LineItems {
		items = append(items, monicreditItem{
			Item:            li.Name,
			RevenueHeadCode: m.revenueHead,
			UnitCost:        li.Amount.StringFixed(2),
		})
		sum = sum.Add(li.Amount)
	}
	if rest := req.Amount.Sub(sum); rest.IsPositive() {
		items = append(items, monicreditItem{
			Item:            "Delivery",
			RevenueHeadCode: m.revenueHead,
			UnitCost:        rest.StringFixed(2),
		})
	}
	return items
}

func (m *MonicreditAdapter) VerifyCharge(ctx context.Context, key string) (*entity.GatewayResult, error) {
	const op = "gateway.monicredit.VerifyCharge"

	payload := map[string]string{
		"transaction_id": key,
		"private_key":    m.privateKey,
	}

	resp, err := m.api.do(ctx, "verify", http.MethodPost,
		"/payment/transactions/verify-transaction", payload, nil)
	if err != nil {
		return nil, err
	}

	var out monicreditVerifyResponse
	if err = decode(op, resp.Body, &out); err != nil {
		return nil, err
	}

	result := &entity.GatewayResult{
		Gateway:       Monicredit,
		TransactionID: key,
		Status:        entity.ResultUnknown,
		Raw:           resp.Body,
		Timestamp:     time.Now().UTC(),
	}
	if !out.Status || resp.StatusCode != http.StatusOK {
		result.ProviderStatus = out.Message
		return result, nil
	}

	if out.Data.OrderID != "" {
		result.TransactionID = out.Data.OrderID
	}
	result.ProviderReference = out.Data.TransactionID
	result.ProviderStatus = out.Data.Status
	result.Status = normalize(monicreditStatuses, out.Data.Status)
	result.ReportedAmount = out.Data.Amount
	if paid, perr := time.Parse(time.DateTime, out.Data.DatePaid); perr == nil {
		result.Timestamp = paid.UTC()
	}

	return result, nil
}

func (m *MonicreditAdapter) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return verifyHMACSHA512(m.webhookSecret, rawBody, strings.ToLower(strings.TrimSpace(signature)))
}

type monicreditEvent struct {
	Event string `json:"event"`
	Data  struct {
		OrderID       string `json:"order_id"`
		TransactionID string `json:"transaction_id"`
	} `json:"data"`
}

func (m *MonicreditAdapter) ParseWebhookEvent(rawBody []byte) (*entity.WebhookEvent, error) {
	const op = "gateway.monicredit.ParseWebhookEvent"

	var ev monicreditEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrMalformedWebhook, err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%s: missing event type: %w", op, entity.ErrMalformedWebhook)
	}

	kind, ok := monicreditEvents[ev.Event]
	if !ok {
		kind = entity.WebhookUnhandled
	}

	ref := ev.Data.OrderID
	if ref == "" {
		ref = ev.Data.TransactionID
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

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Customer", "Customer"
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
