package services

import (
	"context"
	"fmt"
	"strings"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
	"travelagency/internal/events"
	"travelagency/internal/utils"

	"github.com/shopspring/decimal"
)

// BookingService runs every booking mutation through the status and ledger
// rules before it reaches storage.
type BookingService struct {
	Bookings BookingStore
	Staff    domain.StaffDirectory
	Query    QueryService
	Events   events.Publisher
	Now      utils.Clock
}

func (s BookingService) now() utils.Clock {
	if s.Now != nil {
		return s.Now
	}
	return utils.SystemClock
}

// Create stores a new booking. Anonymous actors always land in pending_approval
// with no user_id; staff bookings carry the actor's id and a staff-chosen status.
func (s BookingService) Create(ctx context.Context, actor domain.Actor, in models.CreateBookingInput) (models.BookingView, error) {
	customer, err := customerFromInput(in)
	if err != nil {
		return models.BookingView{}, err
	}

	if !actor.IsStaff() {
		// customers cannot declare payments or pick a lifecycle state
		in.PaidAmount = decimal.Zero
		in.PaymentStatus = ""
		in.Status = string(domain.StatusPendingApproval)
		in.TicketPDFURL = nil
	}

	b, passengers, err := buildBooking(in.BookingInput, 0)
	if err != nil {
		return models.BookingView{}, err
	}

	status, err := initialStatus(actor, in.Status)
	if err != nil {
		return models.BookingView{}, err
	}
	if err := domain.CheckTicket(status, b.TicketURL()); err != nil {
		return models.BookingView{}, err
	}
	b.Status = status

	b.Ledger, err = domain.Ledger{}.Apply(b.Ledger.Total, b.Ledger.Paid, b.Ledger.PaymentStatus)
	if err != nil {
		return models.BookingView{}, err
	}

	if actor.IsStaff() {
		if err := s.requireStaffAccount(ctx, actor.UserID); err != nil {
			return models.BookingView{}, err
		}
		uid := actor.UserID
		b.UserID = &uid
	}

	now := s.now()()
	customer.CreatedAt = now
	b.CreatedAt = now
	b.UpdatedAt = now

	id, err := s.Bookings.Create(ctx, customer, b, passengers)
	if err != nil {
		utils.LogError(ctx, "booking", "create", err)
		return models.BookingView{}, domain.Storage("create booking", err)
	}
	b.ID = id

	utils.LogEvent(ctx, "booking", "create", fmt.Sprintf("booking_id=%d status=%s staff=%t", id, b.Status, actor.IsStaff()))
	s.emit(ctx, events.BookingCreated, actor, b)
	return s.Query.GetBooking(ctx, id)
}

// Update applies a full update. A status change goes through the same
// transition rules as SetStatus; a nil ticket URL keeps the stored one.
func (s BookingService) Update(ctx context.Context, actor domain.Actor, id int64, in models.BookingInput) (models.BookingView, error) {
	existing, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, domain.Storage("get booking", err)
	}

	if in.Passengers <= 0 && len(in.PassengerList) == 0 {
		in.Passengers = existing.Passengers
	}
	b, passengers, err := buildBooking(in, id)
	if err != nil {
		return models.BookingView{}, err
	}

	b.Status = existing.Status
	if next := domain.NormalizeStatus(in.Status); next != "" && next != existing.Status {
		if err := domain.CheckTransition(existing.Status, next); err != nil {
			return models.BookingView{}, err
		}
		b.Status = next
	}

	if in.TicketPDFURL == nil {
		b.TicketPDFURL = existing.TicketPDFURL
	}
	if err := domain.CheckTicket(b.Status, b.TicketURL()); err != nil {
		return models.BookingView{}, err
	}

	b.Ledger, err = existing.Ledger.Apply(b.Ledger.Total, b.Ledger.Paid, b.Ledger.PaymentStatus)
	if err != nil {
		return models.BookingView{}, err
	}

	b.CustomerID = existing.CustomerID
	b.UserID = existing.UserID
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = s.now()()

	if err := s.Bookings.Update(ctx, b, passengers); err != nil {
		utils.LogError(ctx, "booking", "update", err)
		return models.BookingView{}, domain.Storage("update booking", err)
	}

	utils.LogEvent(ctx, "booking", "update", fmt.Sprintf("booking_id=%d status=%s", id, b.Status))
	s.emit(ctx, events.BookingUpdated, actor, b)
	if b.Status != existing.Status {
		s.emit(ctx, events.BookingStatusChanged, actor, b)
	}
	return s.Query.GetBooking(ctx, id)
}

// SetStatus is the explicit staff status action.
func (s BookingService) SetStatus(ctx context.Context, actor domain.Actor, id int64, change models.StatusChange) (models.BookingView, error) {
	next := domain.NormalizeStatus(change.Status)
	if next == "" {
		return models.BookingView{}, domain.ValidationError{Field: "status", Msg: "required"}
	}

	existing, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, domain.Storage("get booking", err)
	}
	if err := domain.CheckTransition(existing.Status, next); err != nil {
		return models.BookingView{}, err
	}

	ticket := existing.TicketPDFURL
	if change.TicketPDFURL != nil {
		ticket = utils.OptionalString(change.TicketPDFURL)
	}
	if err := domain.CheckTicket(next, utils.Deref(ticket)); err != nil {
		return models.BookingView{}, err
	}
	notes := existing.Notes
	if change.Notes != nil {
		notes = strings.TrimSpace(*change.Notes)
	}

	if err := s.Bookings.UpdateStatus(ctx, id, next, ticket, notes, s.now()()); err != nil {
		utils.LogError(ctx, "booking", "set_status", err)
		return models.BookingView{}, domain.Storage("update status", err)
	}

	existing.Status = next
	existing.TicketPDFURL = ticket
	utils.LogEvent(ctx, "booking", "set_status", fmt.Sprintf("booking_id=%d status=%s", id, next))
	s.emit(ctx, events.BookingStatusChanged, actor, existing.Booking)
	return s.Query.GetBooking(ctx, id)
}

// UpdatePayment changes ledger fields only. Omitted amounts keep their stored value.
func (s BookingService) UpdatePayment(ctx context.Context, actor domain.Actor, id int64, upd models.PaymentUpdate) (models.BookingView, error) {
	existing, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, domain.Storage("get booking", err)
	}

	total := existing.Ledger.Total
	if upd.TotalAmount != nil {
		total = *upd.TotalAmount
	}
	paid := existing.Ledger.Paid
	if upd.PaidAmount != nil {
		paid = *upd.PaidAmount
	}
	ledger, err := existing.Ledger.Apply(total, paid, domain.PaymentStatus(strings.TrimSpace(upd.PaymentStatus)))
	if err != nil {
		return models.BookingView{}, err
	}

	if err := s.Bookings.UpdateLedger(ctx, id, ledger, s.now()()); err != nil {
		utils.LogError(ctx, "booking", "update_payment", err)
		return models.BookingView{}, domain.Storage("update ledger", err)
	}

	existing.Ledger = ledger
	utils.LogEvent(ctx, "booking", "update_payment", fmt.Sprintf("booking_id=%d payment_status=%s pending=%s", id, ledger.PaymentStatus, utils.FormatMoney(ledger.Pending)))
	s.emit(ctx, events.BookingPaymentUpdated, actor, existing.Booking)
	return s.Query.GetBooking(ctx, id)
}

// Delete hard-deletes the booking and its passengers.
func (s BookingService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if err := s.Bookings.Delete(ctx, id); err != nil {
		return domain.Storage("delete booking", err)
	}
	utils.LogEvent(ctx, "booking", "delete", fmt.Sprintf("booking_id=%d", id))
	s.emit(ctx, events.BookingDeleted, actor, models.Booking{ID: id})
	return nil
}

// Accept moves a triage booking to new_booking.
func (s BookingService) Accept(ctx context.Context, actor domain.Actor, id int64) (models.BookingView, error) {
	return s.triage(ctx, actor, id, domain.TriageAccept)
}

// Reject moves a triage booking to cancelled.
func (s BookingService) Reject(ctx context.Context, actor domain.Actor, id int64) (models.BookingView, error) {
	return s.triage(ctx, actor, id, domain.TriageReject)
}

// triage reads then writes without a status guard on the UPDATE, so two
// concurrent accepts of the same booking both succeed.
func (s BookingService) triage(ctx context.Context, actor domain.Actor, id int64, action domain.TriageAction) (models.BookingView, error) {
	target, ok := action.Target()
	if !ok {
		return models.BookingView{}, domain.ValidationError{Field: "action", Msg: "must be accept or reject"}
	}

	existing, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, domain.Storage("get booking", err)
	}
	if domain.NormalizeStatus(string(existing.Status)) != domain.StatusPendingApproval {
		return models.BookingView{}, domain.ConflictError{Resource: "booking", Msg: "not awaiting approval"}
	}

	if err := s.Bookings.UpdateStatus(ctx, id, target, existing.TicketPDFURL, existing.Notes, s.now()()); err != nil {
		utils.LogError(ctx, "triage", string(action), err)
		return models.BookingView{}, domain.Storage("update status", err)
	}

	existing.Status = target
	utils.LogEvent(ctx, "triage", string(action), fmt.Sprintf("booking_id=%d status=%s", id, target))
	s.emit(ctx, events.BookingStatusChanged, actor, existing.Booking)
	return s.Query.GetBooking(ctx, id)
}

// requireStaffAccount rejects a staff id that matches no account, so a stored
// user_id is never dangling.
func (s BookingService) requireStaffAccount(ctx context.Context, userID int64) error {
	if s.Staff == nil {
		return nil
	}
	admin, err := s.Staff.FindAdmin(ctx, userID)
	if err != nil {
		return domain.Storage("find admin", err)
	}
	if admin != nil {
		return nil
	}
	staff, err := s.Staff.FindStaff(ctx, userID)
	if err != nil {
		return domain.Storage("find staff", err)
	}
	if staff == nil {
		return domain.NotFoundError{Resource: "staff account"}
	}
	return nil
}

func (s BookingService) emit(ctx context.Context, kind string, actor domain.Actor, b models.Booking) {
	ev := events.BookingEvent{
		Type:       kind,
		BookingID:  b.ID,
		ActorID:    actor.UserID,
		OccurredAt: s.now()(),
	}
	if kind != events.BookingDeleted {
		ev.Status = string(b.Status)
		ev.PaymentStatus = string(b.Ledger.PaymentStatus)
		ev.TotalAmount = utils.FormatMoney(b.Ledger.Total)
		ev.PaidAmount = utils.FormatMoney(b.Ledger.Paid)
		ev.PendingAmount = utils.FormatMoney(b.Ledger.Pending)
	}
	events.Emit(ctx, s.Events, ev)
}

func initialStatus(actor domain.Actor, raw string) (domain.Status, error) {
	if !actor.IsStaff() {
		return domain.StatusPendingApproval, nil
	}
	status := domain.NormalizeStatus(raw)
	if status == "" {
		return domain.DefaultStaffStatus, nil
	}
	if status == domain.StatusPendingApproval {
		return "", domain.ValidationError{Field: "status", Msg: "pending_approval is reserved for customer submissions"}
	}
	return status, nil
}

func customerFromInput(in models.CreateBookingInput) (models.Customer, error) {
	name := utils.NormalizeSpace(in.CustomerName)
	if name == "" {
		return models.Customer{}, domain.ValidationError{Field: "customer_name", Msg: "required"}
	}
	phone, err := models.NormalizePhone(in.CustomerPhone)
	if err != nil {
		return models.Customer{}, err
	}
	return models.Customer{
		Name:    name,
		Phone:   phone,
		Email:   strings.TrimSpace(in.CustomerEmail),
		Address: strings.TrimSpace(in.CustomerAddress),
	}, nil
}

// buildBooking validates trip fields and returns the booking with an
// unreconciled ledger (typed total, paid, override) plus normalized passengers.
// passengers is nil when no list was submitted.
func buildBooking(in models.BookingInput, id int64) (models.Booking, []models.Passenger, error) {
	service, err := models.ParseService(in.Service)
	if err != nil {
		return models.Booking{}, nil, err
	}
	from := utils.NormalizeSpace(in.FromLocation)
	if from == "" {
		return models.Booking{}, nil, domain.ValidationError{Field: "from_location", Msg: "required"}
	}
	to := utils.NormalizeSpace(in.ToLocation)
	if to == "" {
		return models.Booking{}, nil, domain.ValidationError{Field: "to_location", Msg: "required"}
	}

	var passengers []models.Passenger
	count := in.Passengers
	if len(in.PassengerList) > 0 {
		passengers, err = models.NormalizePassengers(in.PassengerList)
		if err != nil {
			return models.Booking{}, nil, err
		}
		count = len(passengers)
	}
	if count < models.MinPassengers || count > models.MaxPassengers {
		return models.Booking{}, nil, domain.ValidationError{
			Field: "passengers",
			Msg:   fmt.Sprintf("must be between %d and %d", models.MinPassengers, models.MaxPassengers),
		}
	}

	carrier := models.CarrierInfo{
		TrainNumber:   utils.OptionalString(in.Carrier.TrainNumber),
		TrainName:     utils.OptionalString(in.Carrier.TrainName),
		TravelClass:   utils.OptionalString(in.Carrier.TravelClass),
		DepartureTime: utils.OptionalString(in.Carrier.DepartureTime),
		ArrivalTime:   utils.OptionalString(in.Carrier.ArrivalTime),
		Duration:      utils.OptionalString(in.Carrier.Duration),
		FarePerPerson: in.Carrier.FarePerPerson,
	}
	if carrier.FarePerPerson.Valid && carrier.FarePerPerson.Decimal.IsNegative() {
		return models.Booking{}, nil, domain.ValidationError{Field: "fare_per_person", Msg: "must not be negative"}
	}

	override := domain.PaymentStatus("")
	if raw := strings.TrimSpace(in.PaymentStatus); raw != "" {
		ps, err := domain.ParsePaymentStatus(raw)
		if err != nil {
			return models.Booking{}, nil, err
		}
		override = ps
	}

	b := models.Booking{
		ID:           id,
		Service:      service,
		FromLocation: from,
		ToLocation:   to,
		TravelDate:   in.TravelDate,
		BookingDate:  in.BookingDate,
		Passengers:   count,
		Carrier:      carrier,
		Ledger: domain.Ledger{
			Total:         utils.ComputeTotal(carrier.FarePerPerson, count, in.TotalAmount),
			Paid:          in.PaidAmount,
			PaymentStatus: override,
		},
		Notes:        strings.TrimSpace(in.Notes),
		TicketPDFURL: utils.OptionalString(in.TicketPDFURL),
	}
	return b, passengers, nil
}
