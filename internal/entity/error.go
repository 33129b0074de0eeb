package entity

import (
	"errors"
)

var (
	ErrDataNotFound     = errors.New("data not found")
	ErrConflictingData  = errors.New("data conflicts with existing data in unique column")
	ErrInvalidData      = errors.New("invalid data")
	ErrConfigPathNotSet = errors.New("CONFIG_PATH not set and -config flag not provided")

	ErrForbidden                 = errors.New("resource does not belong to caller")
	ErrUnauthorized              = errors.New("caller identity missing or invalid")
	ErrUnknownFee                = errors.New("unknown or inactive fee schedule")
	ErrDeliveryFeeNotConfigured  = errors.New("no delivery fee configured for location")
	ErrAmountMismatch            = errors.New("payment amount does not match line items")
	ErrUnknownGateway            = errors.New("unknown payment gateway")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrGatewayMisconfigured      = errors.New("payment gateway misconfigured")
	ErrInvalidSignature          = errors.New("invalid webhook signature")
	ErrMalformedWebhook          = errors.New("malformed webhook payload")
	ErrResourceNotFound          = errors.New("owning resource not found")
	ErrSweepInProgress           = errors.New("sweep already in progress")
	ErrTransactionIDImmutable    = errors.New("transaction id cannot be changed")
)
