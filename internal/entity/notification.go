package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationRenewal NotificationType = "renewal_payment"
	NotificationPayment NotificationType = "payment"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PaymentID uuid.UUID
	Type      NotificationType
	Title     string
	Body      string
	CreatedAt time.Time
}

type Reminder struct {
	ResourceType ResourceType
	ResourceID   uuid.UUID
	UserID       uuid.UUID
	Message      string
	DaysLeft     int
	RemindAt     time.Time
}
