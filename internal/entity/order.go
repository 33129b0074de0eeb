package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderInsurance           OrderType = "insurance"
	OrderRoadworthiness      OrderType = "roadworthiness"
	OrderVehicleLicense      OrderType = "vehicle_license"
	OrderDriversLicense      OrderType = "drivers_license"
	OrderPlateNumber         OrderType = "plate_number"
	OrderVehicleRegistration OrderType = "vehicle_registration"
	OrderChangeOfOwnership   OrderType = "change_of_ownership"
	OrderHackneyPermit       OrderType = "hackney_permit"
	OrderTintedPermit        OrderType = "tinted_permit"
	OrderGeneral             OrderType = "general"
)

// OrderStatusPending is the status of a new order awaiting fulfilment.
const OrderStatusPending = "pending"

type Order struct {
	ID              uuid.UUID       `json:"id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	UserID          uuid.UUID       `json:"user_id"`
	ResourceType    ResourceType    `json:"resource_type"`
	ResourceID      uuid.UUID       `json:"resource_id"`
	OrderType       OrderType       `json:"order_type"`
	Amount          decimal.Decimal `json:"amount"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	DeliveryContact string          `json:"delivery_contact,omitempty"`
	StateID         *int64          `json:"state_id,omitempty"`
	LGAID           *int64          `json:"lga_id,omitempty"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}
