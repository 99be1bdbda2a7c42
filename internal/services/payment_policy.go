package services

import "cuahang/internal/models"

// PaymentPolicy decides the payment status a new order starts in. The
// store historically treats every non-COD order as paid the moment it is
// placed, because gateway confirmation happens out of band; the policy
// makes that assumption explicit and swappable.
type PaymentPolicy interface {
	// InitialPaymentStatus returns the starting payment status for the
	// method and whether paidAt should be stamped immediately.
	InitialPaymentStatus(method models.PaymentMethod) (models.PaymentStatus, bool)
}

// ImmediatePaidPolicy marks non-COD orders paid at creation time. This is
// the default and reproduces the store's optimistic-payment behavior.
type ImmediatePaidPolicy struct{}

func (ImmediatePaidPolicy) InitialPaymentStatus(method models.PaymentMethod) (models.PaymentStatus, bool) {
	if method == models.PaymentMethodCOD {
		return models.PaymentUnpaid, false
	}
	return models.PaymentPaid, true
}

// AwaitConfirmationPolicy starts every order unpaid and leaves marking it
// paid to a later gateway callback or PayOrder call.
type AwaitConfirmationPolicy struct{}

func (AwaitConfirmationPolicy) InitialPaymentStatus(models.PaymentMethod) (models.PaymentStatus, bool) {
	return models.PaymentUnpaid, false
}
