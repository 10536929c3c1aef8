package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_CanTransition_FromPending(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusPaid))
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusFailed))
	assert.False(t, PaymentStatusPending.CanTransition(PaymentStatusRefunded))
}

func TestPaymentStatus_CanTransition_FromPaid(t *testing.T) {
	assert.True(t, PaymentStatusPaid.CanTransition(PaymentStatusRefunded))
	assert.False(t, PaymentStatusPaid.CanTransition(PaymentStatusPending))
	assert.False(t, PaymentStatusPaid.CanTransition(PaymentStatusFailed))
}

func TestPaymentStatus_TerminalStates(t *testing.T) {
	for _, to := range []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded} {
		assert.False(t, PaymentStatusFailed.CanTransition(to))
		assert.False(t, PaymentStatusRefunded.CanTransition(to))
	}
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod("COD"))
	assert.True(t, ValidPaymentMethod("Balance"))
	assert.False(t, ValidPaymentMethod("Card"))
	assert.False(t, ValidPaymentMethod(""))
}
