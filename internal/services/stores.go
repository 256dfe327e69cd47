package services

import (
	"context"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
)

// BookingStore persists bookings. repositories.BookingRepository and
// repositories.MemoryStore implement it.
type BookingStore interface {
	// Create finds or inserts the customer by phone and stores the booking
	// under it; a failure leaves neither row behind.
	Create(ctx context.Context, c models.Customer, b models.Booking, passengers []models.Passenger) (int64, error)
	GetByID(ctx context.Context, id int64) (models.BookingRow, error)
	// Update rewrites the booking; a non-nil passenger list is replaced in the same transaction.
	Update(ctx context.Context, b models.Booking, passengers []models.Passenger) error
	UpdateStatus(ctx context.Context, id int64, status domain.Status, ticketURL *string, notes string, at time.Time) error
	UpdateLedger(ctx context.Context, id int64, l domain.Ledger, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f models.BookingFilter, now time.Time) ([]models.BookingRow, error)
	ListTriage(ctx context.Context) ([]models.BookingRow, error)
}

type PassengerStore interface {
	Replace(ctx context.Context, bookingID int64, passengers []models.Passenger, at time.Time) error
	ListByBookingID(ctx context.Context, bookingID int64) ([]models.Passenger, error)
	ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]models.Passenger, error)
}

// AccountStore backs staff login and account creation.
type AccountStore interface {
	FindCredentials(ctx context.Context, username string) (*domain.StaffCredentials, error)
	CreateStaff(ctx context.Context, acc domain.StaffAccount, passwordHash string) (domain.StaffAccount, error)
}
