package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"motoka/internal/entity"
)

const _reminderHorizonDays = 30

var orderTypeByName = map[string]entity.OrderType{
	"insurance":                   entity.OrderInsurance,
	"third party insurance":       entity.OrderInsurance,
	"comprehensive insurance":     entity.OrderInsurance,
	"road worthiness":             entity.OrderRoadworthiness,
	"roadworthiness":              entity.OrderRoadworthiness,
	"road worthiness certificate": entity.OrderRoadworthiness,
	"vehicle license":             entity.OrderVehicleLicense,
	"vehicle licence":             entity.OrderVehicleLicense,
	"motor vehicle license":       entity.OrderVehicleLicense,
	"drivers license":             entity.OrderDriversLicense,
	"driver's license":            entity.OrderDriversLicense,
	"drivers licence":             entity.OrderDriversLicense,
	"driver's licence":            entity.OrderDriversLicense,
	"plate number":                entity.OrderPlateNumber,
	"number plate":                entity.OrderPlateNumber,
	"vehicle registration":        entity.OrderVehicleRegistration,
	"change of ownership":         entity.OrderChangeOfOwnership,
	"hackney permit":              entity.OrderHackneyPermit,
	"tinted glass permit":         entity.OrderTintedPermit,
	"tinted permit":               entity.OrderTintedPermit,
}

type keywordRule struct {
	keyword   string
	orderType entity.OrderType
}

// Checked in order; more specific phrases come first.
var orderTypeKeywords = []keywordRule{
	{"change of ownership", entity.OrderChangeOfOwnership},
	{"hackney", entity.OrderHackneyPermit},
	{"tint", entity.OrderTintedPermit},
	{"insurance", entity.OrderInsurance},
	{"road worthiness", entity.OrderRoadworthiness},
	{"roadworthiness", entity.OrderRoadworthiness},
	{"plate", entity.OrderPlateNumber},
	{"registration", entity.OrderVehicleRegistration},
}

// ClassifyOrder picks the order type from the most expensive classifiable
// line item. Equal amounts keep their original order.
func ClassifyOrder(resourceType entity.ResourceType, items []entity.LineItem) entity.OrderType {
	sorted := make([]entity.LineItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})

	for _, item := range sorted {
		if t := classifyItem(resourceType, item.Name); t != entity.OrderGeneral {
			return t
		}
	}

	return entity.OrderGeneral
}

func classifyItem(resourceType entity.ResourceType, name string) entity.OrderType {
	normalized := strings.Join(strings.Fields(strings.ToLower(name)), " ")

	if t, ok := orderTypeByName[normalized]; ok {
		return t
	}

	for _, rule := range orderTypeKeywords {
		if strings.Contains(normalized, rule.keyword) {
			return rule.orderType
		}
	}

	if strings.Contains(normalized, "license") || strings.Contains(normalized, "licence") {
		if resourceType == entity.ResourceLicense || strings.Contains(normalized, "driver") {
			return entity.OrderDriversLicense
		}
		return entity.OrderVehicleLicense
	}

	return entity.OrderGeneral
}

// IsRenewal reports whether any line item names a renewal.
func IsRenewal(items []entity.LineItem) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), "renew") {
			return true
		}
	}
	return false
}

type ReminderAction int

const (
	ReminderSkip ReminderAction = iota
	ReminderDelete
	ReminderUpsert
)

type ReminderPlan struct {
	Action   ReminderAction
	Reminder *entity.Reminder
}

// DaysUntil counts calendar days from now until expiry, both taken in UTC.
func DaysUntil(now, expiry time.Time) int {
	from := truncateDay(now)
	to := truncateDay(expiry)
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PlanReminder derives the expiry reminder for a resource. More than 30 days
// out removes any reminder, 1 to 30 days counts down, and expired resources
// get an expired notice. Resources without an expiry are left alone.
func PlanReminder(resource *entity.Resource, now time.Time) ReminderPlan {
	if resource.ExpiresAt == nil {
		return ReminderPlan{Action: ReminderSkip}
	}

	days := DaysUntil(now, *resource.ExpiresAt)
	if days > _reminderHorizonDays {
		return ReminderPlan{Action: ReminderDelete}
	}

	subject := resourceNoun(resource)
	var message string
	switch {
	case days == 1:
		message = fmt.Sprintf("Your %s expires tomorrow.", subject)
	case days > 1:
		message = fmt.Sprintf("Your %s expires in %d days.", subject, days)
	default:
		message = fmt.Sprintf("Your %s has expired.", subject)
	}

	return ReminderPlan{
		Action: ReminderUpsert,
		Reminder: &entity.Reminder{
			ResourceType: resource.Type,
			ResourceID:   resource.ID,
			UserID:       resource.UserID,
			Message:      message,
			DaysLeft:     days,
			RemindAt:     now.UTC(),
		},
	}
}

func resourceNoun(resource *entity.Resource) string {
	if resource.Type == entity.ResourceLicense {
		return "driver's license " + resource.Label
	}
	return "vehicle papers for " + resource.Label
}

func BuildNotification(payment *entity.Payment, resource *entity.Resource, now time.Time) *entity.Notification {
	n := &entity.Notification{
		UserID:    payment.UserID,
		PaymentID: payment.ID,
		Type:      entity.NotificationPayment,
		Title:     "Payment successful",
		CreatedAt: now.UTC(),
	}

	if IsRenewal(payment.LineItems) {
		n.Type = entity.NotificationRenewal
		n.Title = "Renewal payment successful"
	}

	n.Body = fmt.Sprintf("Your payment of %s %s for %s was successful. Reference: %s.",
		payment.Currency, payment.Amount.StringFixed(2), resource.Label, payment.TransactionID)

	return n
}
