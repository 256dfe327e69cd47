package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// ParsePaymentStatus accepts the four ledger states, case-insensitively.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch ps := PaymentStatus(strings.ToLower(strings.TrimSpace(raw))); ps {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded:
		return ps, nil
	default:
		return "", ValidationError{Field: "payment_status", Msg: "must be one of pending, partial, paid, refunded"}
	}
}

// Ledger holds the monetary fields of a booking.
type Ledger struct {
	Total         decimal.Decimal `json:"total_amount"`
	Paid          decimal.Decimal `json:"paid_amount"`
	Pending       decimal.Decimal `json:"pending_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// RecomputeLedger derives pending and payment status from total and paid.
func RecomputeLedger(total, paid decimal.Decimal) Ledger {
	pending := total.Sub(paid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	status := PaymentPartial
	switch {
	case paid.IsZero():
		status = PaymentPending
	case paid.GreaterThanOrEqual(total):
		status = PaymentPaid
	}

	return Ledger{
		Total:         total,
		Paid:          paid,
		Pending:       pending,
		PaymentStatus: status,
	}
}

// Apply computes the ledger to persist after a write carrying total and paid.
// An explicit override always wins. Without one, a previously set refunded
// status survives as long as total and paid are unchanged.
func (l Ledger) Apply(total, paid decimal.Decimal, override PaymentStatus) (Ledger, error) {
	if total.IsNegative() {
		return Ledger{}, ValidationError{Field: "total_amount", Msg: "must not be negative"}
	}
	if paid.IsNegative() {
		return Ledger{}, ValidationError{Field: "paid_amount", Msg: "must not be negative"}
	}

	next := RecomputeLedger(total, paid)
	if override != "" {
		ps, err := ParsePaymentStatus(string(override))
		if err != nil {
			return Ledger{}, err
		}
		next.PaymentStatus = ps
		return next, nil
	}

	unchanged := l.Total.Equal(total) && l.Paid.Equal(paid)
	if unchanged && l.PaymentStatus == PaymentRefunded {
		next.PaymentStatus = PaymentRefunded
	}
	return next, nil
}

// PendingOrFallback returns the stored pending amount, or max(total-paid, 0)
// when none was stored. Read paths only; nothing is persisted.
func PendingOrFallback(total, paid decimal.Decimal, stored decimal.NullDecimal) decimal.Decimal {
	if stored.Valid {
		return stored.Decimal
	}
	return RecomputeLedger(total, paid).Pending
}

// LedgerFromStored rebuilds a ledger from persisted columns. A blank stored
// payment status is derived from the amounts, without persisting it.
func LedgerFromStored(total, paid decimal.Decimal, pending decimal.NullDecimal, paymentStatus string) Ledger {
	l := Ledger{
		Total:         total,
		Paid:          paid,
		Pending:       PendingOrFallback(total, paid, pending),
		PaymentStatus: PaymentStatus(strings.ToLower(strings.TrimSpace(paymentStatus))),
	}
	if l.PaymentStatus == "" {
		l.PaymentStatus = RecomputeLedger(total, paid).PaymentStatus
	}
	return l
}
