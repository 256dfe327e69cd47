package services

import (
	"context"
	"fmt"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
	"travelagency/internal/utils"
)

// QueryService builds the read projections of bookings. It never writes.
type QueryService struct {
	Bookings   BookingStore
	Passengers PassengerStore
	Resolver   domain.AttributionResolver
	Now        utils.Clock
}

func (s QueryService) now() utils.Clock {
	if s.Now != nil {
		return s.Now
	}
	return utils.SystemClock
}

// ListBookings returns the staff booking list. pending_approval rows never appear here.
func (s QueryService) ListBookings(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error) {
	rows, err := s.Bookings.List(ctx, f, s.now()())
	if err != nil {
		return nil, domain.Storage("list bookings", err)
	}
	kept := rows[:0]
	for _, row := range rows {
		if domain.NormalizeStatus(string(row.Status)) == domain.StatusPendingApproval {
			continue
		}
		kept = append(kept, row)
	}
	utils.LogEvent(ctx, "query", "list_bookings", fmt.Sprintf("count=%d", len(kept)))
	return s.project(ctx, kept)
}

// GetTriageBookings returns customer submissions awaiting accept or reject.
func (s QueryService) GetTriageBookings(ctx context.Context) ([]models.BookingView, error) {
	rows, err := s.Bookings.ListTriage(ctx)
	if err != nil {
		return nil, domain.Storage("list triage", err)
	}
	kept := rows[:0]
	for _, row := range rows {
		if domain.NormalizeStatus(string(row.Status)) != domain.StatusPendingApproval || row.OwnerUserID() > 0 {
			continue
		}
		kept = append(kept, row)
	}
	return s.project(ctx, kept)
}

func (s QueryService) GetBooking(ctx context.Context, id int64) (models.BookingView, error) {
	row, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.BookingView{}, domain.Storage("get booking", err)
	}
	views, err := s.project(ctx, []models.BookingRow{row})
	if err != nil {
		return models.BookingView{}, err
	}
	return views[0], nil
}

func (s QueryService) project(ctx context.Context, rows []models.BookingRow) ([]models.BookingView, error) {
	out := make([]models.BookingView, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	passengers, err := s.Passengers.ListByBookingIDs(ctx, ids)
	if err != nil {
		return nil, domain.Storage("list passengers", err)
	}

	// owners resolved once per user id for this call only
	owners := map[int64]domain.Owner{}
	for _, row := range rows {
		uid := row.OwnerUserID()
		owner, ok := owners[uid]
		if !ok {
			owner, err = s.resolve(ctx, uid)
			if err != nil {
				return nil, err
			}
			owners[uid] = owner
		}
		view := Project(row, owner)
		if ps, ok := passengers[row.ID]; ok {
			view.PassengerList = ps
		}
		out = append(out, view)
	}
	return out, nil
}

func (s QueryService) resolve(ctx context.Context, userID int64) (domain.Owner, error) {
	if s.Resolver == nil {
		return domain.StaffResolver{}.Resolve(ctx, userID)
	}
	owner, err := s.Resolver.Resolve(ctx, userID)
	if err != nil {
		return domain.Owner{}, domain.Storage("resolve owner", err)
	}
	return owner, nil
}

// Project combines a stored row with its resolved owner. Customer-originated
// rows always show the customer and carry no staff identity.
func Project(row models.BookingRow, owner domain.Owner) models.BookingView {
	view := models.BookingView{
		Booking:           row.Booking,
		CustomerName:      row.CustomerName,
		CustomerPhone:     row.CustomerPhone,
		CustomerEmail:     row.CustomerEmail,
		OwnerKind:         owner.Kind,
		OwnerName:         domain.DisplayOwner(owner, row.CustomerName),
		CreatedByCustomer: owner.IsCustomer(),
		PassengerList:     []models.Passenger{},
	}
	view.Status = domain.NormalizeStatus(string(row.Status))

	if owner.IsCustomer() {
		view.UserID = nil
		view.StaffID = nil
		view.StaffUsername = nil
		view.StaffName = nil
		return view
	}
	if owner.Staff != nil {
		id := owner.Staff.ID
		username := owner.Staff.Username
		name := owner.DisplayName
		view.StaffID = &id
		view.StaffUsername = &username
		view.StaffName = &name
	}
	return view
}
