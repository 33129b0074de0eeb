package entity_test

import (
	"errors"
	"testing"

	"motoka/internal/entity"

	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	var (
		pending    = entity.PaymentPending
		completed  = entity.PaymentCompleted
		failed     = entity.PaymentFailed
		disputed   = entity.PaymentDisputed
		suspicious = entity.PaymentSuspicious
	)
	from := func(s ...entity.PaymentStatus) []entity.PaymentStatus { return s }

	testCases := []struct {
		desc     string
		expected []entity.PaymentStatus
		next     entity.PaymentStatus
		allowed  bool
	}{
		{desc: "Success from pending or failed", expected: from(pending, failed), next: completed, allowed: true},
		{desc: "Mismatch from pending or failed", expected: from(pending, failed), next: suspicious, allowed: true},
		{desc: "Failure from pending", expected: from(pending), next: failed, allowed: true},
		{desc: "Reference patch keeps pending", expected: from(pending), next: pending, allowed: true},
		{desc: "Dispute from completed", expected: from(completed), next: disputed, allowed: true},
		{desc: "Completed never fails", expected: from(completed), next: failed},
		{desc: "Completed never returns to pending", expected: from(completed), next: pending},
		{desc: "Dispute from pending", expected: from(pending), next: disputed},
		{desc: "Suspicious is terminal", expected: from(suspicious), next: completed},
		{desc: "One disallowed source rejects the set", expected: from(pending, completed), next: failed},
		{desc: "Empty expected set", next: completed},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := entity.ValidateTransition(tc.expected, tc.next)
			if tc.allowed {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, entity.ErrInvalidData))
		})
	}
}
