package order

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pay(amount string, state PaymentState) Payment {
	return Payment{Amount: dec(amount), Status: state}
}

func TestReconcile_Verdicts(t *testing.T) {
	price := dec("1000.00")

	cases := []struct {
		name     string
		payments []Payment
		want     PaymentStatus
	}{
		{"no payments", nil, PaymentUnpaid},
		{"only pending", []Payment{pay("400.00", PaymentPending)}, PaymentUnpaid},
		{"only failed and rejected", []Payment{pay("400.00", PaymentFailed), pay("600.00", PaymentRejected)}, PaymentUnpaid},
		{"partial", []Payment{pay("400.00", PaymentCompleted), pay("400.00", PaymentCompleted)}, PaymentPartial},
		{"exact", []Payment{pay("400.00", PaymentCompleted), pay("400.00", PaymentCompleted), pay("200.00", PaymentCompleted)}, PaymentPaid},
		{"overpaid", []Payment{pay("1200.00", PaymentCompleted)}, PaymentPaid},
		{"mixed states count only completed", []Payment{pay("999.99", PaymentPending), pay("100.00", PaymentCompleted)}, PaymentPartial},
	}
	for _, tc := range cases {
		if got := Reconcile(price, tc.payments); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestReconcile_ZeroPriceIsPaid(t *testing.T) {
	if got := Reconcile(decimal.Zero, nil); got != PaymentPaid {
		t.Fatalf("zero-price order: got %s, want %s", got, PaymentPaid)
	}
}

// The reduction must not care about the order payments are fed in, and
// running it twice on the same input must agree with itself.
func TestReconcile_PermutationInvariantAndIdempotent(t *testing.T) {
	price := dec("1000.00")
	payments := []Payment{
		pay("400.00", PaymentCompleted),
		pay("400.00", PaymentCompleted),
		pay("150.00", PaymentPending),
		pay("50.00", PaymentFailed),
	}

	want := Reconcile(price, payments)
	if want != PaymentPartial {
		t.Fatalf("baseline: got %s, want %s", want, PaymentPartial)
	}

	perms := [][]int{
		{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1},
	}
	for _, idx := range perms {
		shuffled := make([]Payment, 0, len(payments))
		for _, i := range idx {
			shuffled = append(shuffled, payments[i])
		}
		if got := Reconcile(price, shuffled); got != want {
			t.Errorf("permutation %v: got %s, want %s", idx, got, want)
		}
	}

	if again := Reconcile(price, payments); again != want {
		t.Errorf("second run: got %s, want %s", again, want)
	}
}

// Worked example: 400+400 is partial, +200 is paid, voiding the first 400
// demotes back to partial.
func TestReconcile_VoidDemotes(t *testing.T) {
	price := dec("1000.00")
	payments := []Payment{
		pay("400.00", PaymentCompleted),
		pay("400.00", PaymentCompleted),
	}
	if got := Reconcile(price, payments); got != PaymentPartial {
		t.Fatalf("two payments: got %s, want partial", got)
	}

	payments = append(payments, pay("200.00", PaymentCompleted))
	if got := Reconcile(price, payments); got != PaymentPaid {
		t.Fatalf("three payments: got %s, want paid", got)
	}

	payments[0].Status = PaymentFailed
	if got := Reconcile(price, payments); got != PaymentPartial {
		t.Fatalf("after void: got %s, want partial", got)
	}
}

func TestCheckPaymentTransition(t *testing.T) {
	allowed := []struct{ from, to PaymentState }{
		{PaymentPending, PaymentCompleted},
		{PaymentPending, PaymentFailed},
		{PaymentPending, PaymentRejected},
		{PaymentCompleted, PaymentFailed},
		{PaymentCompleted, PaymentRejected},
	}
	for _, e := range allowed {
		if err := CheckPaymentTransition(e.from, e.to); err != nil {
			t.Errorf("%s -> %s: unexpected %v", e.from, e.to, err)
		}
	}

	denied := []struct{ from, to PaymentState }{
		{PaymentFailed, PaymentCompleted},
		{PaymentRejected, PaymentPending},
		{PaymentCompleted, PaymentPending},
		{PaymentPending, PaymentPending},
	}
	for _, e := range denied {
		if err := CheckPaymentTransition(e.from, e.to); err == nil {
			t.Errorf("%s -> %s: expected ErrInvalidTransition", e.from, e.to)
		}
	}
}
