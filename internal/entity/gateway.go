package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResultStatus is the gateway-independent verification outcome.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailed  ResultStatus = "failed"
	ResultPending ResultStatus = "pending"
	ResultUnknown ResultStatus = "unknown"
)

type GatewayResult struct {
	Gateway           string
	TransactionID     string
	ProviderReference string
	Status            ResultStatus
	ProviderStatus    string
	Raw               json.RawMessage
	// ReportedAmount is in the major currency unit; nil when the provider did not report one.
	ReportedAmount *decimal.Decimal
	Timestamp      time.Time
}

type Customer struct {
	ID    uuid.UUID
	Email string
	Name  string
	Phone string
}

type ChargeRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Customer      Customer
	LineItems     []LineItem
	CallbackURL   string
	Metadata      map[string]string
}

type ChargeInitiation struct {
	ProviderReference string          `json:"provider_reference"`
	AuthorizationURL  string          `json:"authorization_url,omitempty"`
	AccessCode        string          `json:"access_code,omitempty"`
	Raw               json.RawMessage `json:"-"`
}

type WebhookKind string

const (
	WebhookChargeSuccess WebhookKind = "charge_success"
	WebhookChargeFailed  WebhookKind = "charge_failed"
	WebhookDispute       WebhookKind = "dispute"
	WebhookUnhandled     WebhookKind = "unhandled"
)

type WebhookEvent struct {
	Kind      WebhookKind
	Type      string
	Reference string
	Raw       json.RawMessage
}
