package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentDisputed   PaymentStatus = "disputed"
	PaymentSuspicious PaymentStatus = "suspicious"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentDisputed, PaymentSuspicious:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
// failed is not terminal: a later confirmed success may still complete the payment.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed || next == PaymentSuspicious ||
			next == PaymentPending
	case PaymentFailed:
		return next == PaymentCompleted || next == PaymentSuspicious
	case PaymentCompleted:
		return next == PaymentDisputed
	default:
		return false
	}
}

// ValidateTransition rejects a compare-and-transition request whose expected
// statuses include one the state machine does not allow to move to next.
func ValidateTransition(expected []PaymentStatus, next PaymentStatus) error {
	if len(expected) == 0 {
		return fmt.Errorf("no expected status: %w", ErrInvalidData)
	}
	for _, from := range expected {
		if !from.CanTransitionTo(next) {
			return fmt.Errorf("transition %s -> %s not allowed: %w", from, next, ErrInvalidData)
		}
	}
	return nil
}

type ResourceType string

const (
	ResourceVehicle ResourceType = "vehicle"
	ResourceLicense ResourceType = "license"
)

type LineItem struct {
	FeeID  int64           `json:"fee_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type PaymentMetadata struct {
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	DeliveryContact string            `json:"delivery_contact,omitempty"`
	StateID         *int64            `json:"state_id,omitempty"`
	LGAID           *int64            `json:"lga_id,omitempty"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	LicenseYears    int               `json:"license_years,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

func (m PaymentMetadata) HasDelivery() bool {
	return m.StateID != nil
}

type Payment struct {
	ID                uuid.UUID       `json:"id"`
	TransactionID     string          `json:"transaction_id"`
	Slug              string          `json:"slug"`
	UserID            uuid.UUID       `json:"user_id"`
	ResourceType      ResourceType    `json:"resource_type"`
	ResourceID        uuid.UUID       `json:"resource_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	Gateway           string          `json:"gateway"`
	ProviderReference *string         `json:"provider_reference,omitempty"`
	RawResponse       json.RawMessage `json:"-"`
	LineItems         []LineItem      `json:"line_items"`
	Metadata          PaymentMetadata `json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// ExpectedAmount is the sum of line items plus the delivery fee.
func (p *Payment) ExpectedAmount() decimal.Decimal {
	total := p.Metadata.DeliveryFee
	for _, item := range p.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}

func (p *Payment) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// PaymentPatch carries the columns a status transition may rewrite alongside the status.
type PaymentPatch struct {
	RawResponse       json.RawMessage
	ProviderReference *string
}
