// nolint: revive,staticcheck
// swagger:meta
package httpt

import (
	"time"

	"motoka/internal/entity"

	"github.com/shopspring/decimal"
)

// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// swagger:model SuccessResponse
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// swagger:model DeliveryRequest
type DeliveryRequest struct {
	Address string `json:"address"  binding:"required,max=500"`
	Contact string `json:"contact"  binding:"required,max=50"`
	StateID int64  `json:"state_id" binding:"required,gt=0"`
	LGAID   *int64 `json:"lga_id,omitempty" binding:"omitempty,gt=0"`
}

// swagger:model InitializeRequest
type InitializeRequest struct {
	ResourceType string            `json:"resource_type" binding:"required,oneof=vehicle license"`
	ResourceSlug string            `json:"resource_slug" binding:"required,max=64"`
	FeeIDs       []int64           `json:"fee_ids"       binding:"required,min=1,dive,gt=0"`
	Gateway      string            `json:"gateway,omitempty"       binding:"omitempty,oneof=paystack monicredit"`
	LicenseYears int               `json:"license_years,omitempty" binding:"omitempty,min=1"`
	Delivery     *DeliveryRequest  `json:"delivery,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// swagger:model PaymentSummary
type PaymentSummary struct {
	TransactionID string            `json:"transaction_id"`
	Slug          string            `json:"slug"`
	Status        string            `json:"status"`
	Gateway       string            `json:"gateway"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	DeliveryFee   decimal.Decimal   `json:"delivery_fee"`
	LineItems     []entity.LineItem `json:"line_items"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// swagger:model OrderSummary
type OrderSummary struct {
	ID        string          `json:"id"`
	OrderType string          `json:"order_type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// swagger:model InitializeResponse
type InitializeResponse struct {
	AuthorizationURL  string          `json:"authorization_url,omitempty"`
	AccessCode        string          `json:"access_code,omitempty"`
	ProviderReference string          `json:"provider_reference"`
	Total             decimal.Decimal `json:"total"`
	Payment           PaymentSummary  `json:"payment"`
}

// swagger:model VerifyResponse
type VerifyResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Payment PaymentSummary `json:"payment"`
	Order   *OrderSummary  `json:"order,omitempty"`
}

// swagger:model ReceiptResponse
type ReceiptResponse struct {
	Payment PaymentSummary `json:"payment"`
	Order   *OrderSummary  `json:"order,omitempty"`
}

func toPaymentSummary(p *entity.Payment) PaymentSummary {
	return PaymentSummary{
		TransactionID: p.TransactionID,
		Slug:          p.Slug,
		Status:        string(p.Status),
		Gateway:       p.Gateway,
		Amount:        p.Amount,
		Currency:      p.Currency,
		DeliveryFee:   p.Metadata.DeliveryFee,
		LineItems:     p.LineItems,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

func toOrderSummary(o *entity.Order) *OrderSummary {
	if o == nil {
		return nil
	}
	return &OrderSummary{
		ID:        o.ID.String(),
		OrderType: string(o.OrderType),
		Amount:    o.Amount,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}
