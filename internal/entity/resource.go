package entity

import (
	"time"

	"github.com/google/uuid"
)

const ResourceStatusActive = "active"

// Resource is the payment-relevant view of a vehicle or driver's license.
type Resource struct {
	ID        uuid.UUID
	Slug      string
	Type      ResourceType
	UserID    uuid.UUID
	Label     string
	Status    string
	ExpiresAt *time.Time
}
