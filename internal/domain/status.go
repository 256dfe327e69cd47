package domain

import (
	"sort"
	"strings"
)

// Status is a booking lifecycle state.
type Status string

const (
	StatusPendingApproval          Status = "pending_approval"
	StatusNewBooking               Status = "new_booking"
	StatusPendingBooking           Status = "pending_booking"
	StatusTicketBooked             Status = "ticket_booked"
	StatusNotBooked                Status = "not_booked"
	StatusCancelled                Status = "cancelled"
	StatusRefundAmount             Status = "refund_amount"
	StatusTicketDeliveryPaidAmount Status = "ticket_delivery_paid_amount"
	StatusTicketDeliveryDueAmount  Status = "ticket_delivery_duse_amount"
	StatusPendingAmountByCustomer  Status = "pending_amount_by_customer"
)

// DefaultStaffStatus is the initial state of a staff-created booking when none is chosen.
const DefaultStaffStatus = StatusPendingBooking

var canonicalStatuses = []Status{
	StatusPendingApproval,
	StatusNewBooking,
	StatusPendingBooking,
	StatusTicketBooked,
	StatusNotBooked,
	StatusCancelled,
	StatusRefundAmount,
	StatusTicketDeliveryPaidAmount,
	StatusTicketDeliveryDueAmount,
	StatusPendingAmountByCustomer,
}

// legacy spellings still found in old rows and old clients
var statusAliases = map[string]Status{
	"pending":         StatusPendingBooking,
	"partial_booking": StatusPendingBooking,
	"confirmed":       StatusTicketBooked,
	"booked":          StatusTicketBooked,
	"completed":       StatusTicketBooked,
}

// NormalizeStatus folds legacy aliases into canonical states.
// Unknown values pass through trimmed and lowercased.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canon, ok := statusAliases[s]; ok {
		return canon
	}
	return Status(s)
}

// CanonicalStatuses lists every known lifecycle state.
func CanonicalStatuses() []Status {
	out := make([]Status, len(canonicalStatuses))
	copy(out, canonicalStatuses)
	return out
}

func (s Status) IsCanonical() bool {
	for _, c := range canonicalStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// RequiresTicket reports whether the state denotes a booked or delivered ticket.
func (s Status) RequiresTicket() bool {
	switch NormalizeStatus(string(s)) {
	case StatusTicketBooked, StatusTicketDeliveryPaidAmount, StatusTicketDeliveryDueAmount:
		return true
	default:
		return false
	}
}

// MatchValues returns the stored spellings that normalize to s, canonical first.
// Used when filtering rows that may predate normalization.
func (s Status) MatchValues() []string {
	canon := NormalizeStatus(string(s))
	aliases := []string{}
	for alias, target := range statusAliases {
		if target == canon {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return append([]string{string(canon)}, aliases...)
}

// TriageAction is one of the two exits from pending_approval.
type TriageAction string

const (
	TriageAccept TriageAction = "accept"
	TriageReject TriageAction = "reject"
)

// Target returns the state a triage action leads to.
func (a TriageAction) Target() (Status, bool) {
	switch a {
	case TriageAccept:
		return StatusNewBooking, true
	case TriageReject:
		return StatusCancelled, true
	default:
		return "", false
	}
}

// CheckTransition validates a staff status change from current to next.
// pending_approval is only left through a triage action and never re-entered.
func CheckTransition(current, next Status) error {
	current = NormalizeStatus(string(current))
	next = NormalizeStatus(string(next))
	if next == "" {
		return ValidationError{Field: "status", Msg: "required"}
	}
	if next == StatusPendingApproval && current != StatusPendingApproval {
		return ValidationError{Field: "status", Msg: "pending_approval is reserved for customer submissions"}
	}
	if current == StatusPendingApproval && next != StatusPendingApproval {
		return ConflictError{Resource: "booking", Msg: "awaiting approval, use accept or reject"}
	}
	return nil
}

// CheckTicket enforces the ticket PDF precondition for ticket-bearing states.
func CheckTicket(status Status, ticketURL string) error {
	if status.RequiresTicket() && strings.TrimSpace(ticketURL) == "" {
		return ValidationError{Field: "ticket_pdf_url", Msg: "required when status is " + string(NormalizeStatus(string(status)))}
	}
	return nil
}
