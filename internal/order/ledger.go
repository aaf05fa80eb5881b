package order

import "github.com/shopspring/decimal"

// Reconcile reduces the full payment set of an order into its payment status.
// Only completed payments count toward the paid total. The reduction is pure
// and independent of payment order, so voiding an earlier payment and
// recomputing always lands on the right verdict.
//
// PaymentRefunded is never produced here; it is a terminal override applied by
// an explicit refund action.
func Reconcile(price decimal.Decimal, payments []Payment) PaymentStatus {
	paid := completedTotal(payments)
	switch {
	case paid.GreaterThanOrEqual(price):
		return PaymentPaid
	case paid.Sign() > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

func completedTotal(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// paymentStateGraph: pending can resolve any way; a completed payment can
// still be voided (failed) or charged back (rejected). failed and rejected
// are terminal.
var paymentStateGraph = map[PaymentState][]PaymentState{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentRejected},
	PaymentCompleted: {PaymentFailed, PaymentRejected},
}

// CheckPaymentTransition validates a payment status change.
func CheckPaymentTransition(current, requested PaymentState) error {
	for _, next := range paymentStateGraph[current] {
		if next == requested {
			return nil
		}
	}
	return ErrInvalidTransition
}

// ValidPaymentState reports whether s is a known payment state.
func ValidPaymentState(s PaymentState) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRejected:
		return true
	}
	return false
}
