package services

import (
	"context"
	"fmt"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
	"travelagency/internal/events"
	"travelagency/internal/utils"
)

// PassengerService manages the ordered passenger list owned by a booking.
type PassengerService struct {
	Bookings   BookingStore
	Passengers PassengerStore
	Events     events.Publisher
	Now        utils.Clock
}

// Replace validates the list and swaps it in atomically. The booking's
// passenger count follows the new list.
func (s PassengerService) Replace(ctx context.Context, actor domain.Actor, bookingID int64, in []models.PassengerInput) ([]models.Passenger, error) {
	passengers, err := models.NormalizePassengers(in)
	if err != nil {
		return nil, err
	}

	now := utils.SystemClock()
	if s.Now != nil {
		now = s.Now()
	}
	if err := s.Passengers.Replace(ctx, bookingID, passengers, now); err != nil {
		utils.LogError(ctx, "passenger", "replace", err)
		return nil, domain.Storage("replace passengers", err)
	}

	utils.LogEvent(ctx, "passenger", "replace", fmt.Sprintf("booking_id=%d count=%d", bookingID, len(passengers)))
	events.Emit(ctx, s.Events, events.BookingEvent{
		Type:       events.BookingUpdated,
		BookingID:  bookingID,
		ActorID:    actor.UserID,
		OccurredAt: now,
	})
	return s.Passengers.ListByBookingID(ctx, bookingID)
}

// List returns the passengers of an existing booking in display order.
func (s PassengerService) List(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	if _, err := s.Bookings.GetByID(ctx, bookingID); err != nil {
		return nil, domain.Storage("get booking", err)
	}
	ps, err := s.Passengers.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, domain.Storage("list passengers", err)
	}
	return ps, nil
}
