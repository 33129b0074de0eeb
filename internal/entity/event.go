package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventPaymentCompleted = "payment.completed"

// PaymentCompletedEvent signals that an order is paid and ready for agent payout.
type PaymentCompletedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	Type          string          `json:"type"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderType     OrderType       `json:"order_type"`
	UserID        uuid.UUID       `json:"user_id"`
	ResourceType  ResourceType    `json:"resource_type"`
	ResourceID    uuid.UUID       `json:"resource_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
