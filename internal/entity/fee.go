package entity

import "github.com/shopspring/decimal"

type FeeSchedule struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Active bool            `json:"active"`
}

type DeliveryFee struct {
	StateID int64           `json:"state_id"`
	LGAID   *int64          `json:"lga_id,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}
