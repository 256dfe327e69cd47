package services

import (
	"context"
	"testing"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
	"travelagency/internal/events"
	"travelagency/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *repositories.MemoryStore
	events     *events.Recorder
	bookings   BookingService
	query      QueryService
	passengers PassengerService
	clock      *fakeClock
	admin      domain.Actor
	staff      domain.Actor
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	rec := &events.Recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local)}

	admin := store.SeedAdmin(domain.StaffAccount{Username: "root", FullName: "Root Admin"}, "")
	staff, err := store.CreateStaff(context.Background(), domain.StaffAccount{Username: "priya", FullName: "Priya Shah"}, "")
	require.NoError(t, err)

	query := QueryService{
		Bookings:   store,
		Passengers: store,
		Resolver:   domain.StaffResolver{Directory: store},
		Now:        clock.Now,
	}
	return &fixture{
		store:  store,
		events: rec,
		bookings: BookingService{
			Bookings: store,
			Staff:    store,
			Query:    query,
			Events:   rec,
			Now:      clock.Now,
		},
		query: query,
		passengers: PassengerService{
			Bookings:   store,
			Passengers: store,
			Events:     rec,
			Now:        clock.Now,
		},
		clock: clock,
		admin: domain.Actor{UserID: admin.ID, Username: admin.Username, Role: domain.RoleAdmin},
		staff: domain.Actor{UserID: staff.ID, Username: staff.Username, Role: domain.RoleStaff},
	}
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func bookingInput(total, paid int64) models.CreateBookingInput {
	return models.CreateBookingInput{
		BookingInput: models.BookingInput{
			Service:      "train",
			FromLocation: "Mumbai",
			ToLocation:   "Pune",
			Passengers:   1,
			TotalAmount:  amount(total),
			PaidAmount:   amount(paid),
		},
		CustomerName:  "Asha",
		CustomerPhone: "98765 43210",
	}
}

func viewIDs(views []models.BookingView) []int64 {
	out := make([]int64, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}
