package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributionCustomerShowsCustomerName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.bookings.Create(ctx, domain.Anonymous, bookingInput(0, 0))
	require.NoError(t, err)
	_, err = f.bookings.Accept(ctx, f.staff, created.ID)
	require.NoError(t, err)

	list, err := f.query.ListBookings(ctx, models.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	v := list[0]
	assert.Equal(t, "Asha", v.OwnerName)
	assert.Equal(t, domain.OwnerCustomer, v.OwnerKind)
	assert.True(t, v.CreatedByCustomer)
	assert.Nil(t, v.StaffID)
	assert.Nil(t, v.StaffUsername)
	assert.Nil(t, v.StaffName)
}

func TestAttributionStaffAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byStaff, err := f.bookings.Create(ctx, f.staff, bookingInput(100, 0))
	require.NoError(t, err)
	assert.Equal(t, "Priya Shah", byStaff.OwnerName)
	assert.Equal(t, domain.OwnerStaff, byStaff.OwnerKind)
	require.NotNil(t, byStaff.StaffUsername)
	assert.Equal(t, "priya", *byStaff.StaffUsername)
	assert.False(t, byStaff.CreatedByCustomer)

	byAdmin, err := f.bookings.Create(ctx, f.admin, bookingInput(100, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.AdminOwnerLabel, byAdmin.OwnerName)
	assert.Equal(t, domain.OwnerAdmin, byAdmin.OwnerKind)
	assert.NotEqual(t, "Asha", byAdmin.OwnerName)
}

func TestAttributionUnknownUserFailsOpenToAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dangling := int64(77)
	id, err := f.store.Create(ctx, models.Customer{Name: "Asha", Phone: "9876543210"}, models.Booking{
		UserID:     &dangling,
		Service:    models.ServiceBus,
		Passengers: 1,
		Status:     domain.StatusNewBooking,
		CreatedAt:  f.clock.now,
	}, nil)
	require.NoError(t, err)

	v, err := f.query.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerUnknown, v.OwnerKind)
	assert.Equal(t, domain.FallbackOwnerLabel, v.OwnerName)
	assert.Nil(t, v.StaffID)
}

type failingDirectory struct{}

func (failingDirectory) FindAdmin(context.Context, int64) (*domain.StaffAccount, error) {
	return nil, errors.New("connection refused")
}

func (failingDirectory) FindStaff(context.Context, int64) (*domain.StaffAccount, error) {
	return nil, errors.New("connection refused")
}

func TestDirectoryFailureIsStorageError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.bookings.Create(ctx, f.staff, bookingInput(100, 0))
	require.NoError(t, err)

	q := f.query
	q.Resolver = domain.StaffResolver{Directory: failingDirectory{}}
	_, err = q.ListBookings(ctx, models.BookingFilter{})
	assert.True(t, domain.IsStorage(err), "got %v", err)
}

func TestListBookingsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	train, err := f.bookings.Create(ctx, f.staff, bookingInput(100, 0))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	busIn := bookingInput(100, 0)
	busIn.Service = "bus"
	busIn.FromLocation = "Goa"
	busIn.ToLocation = "Hubli"
	tomorrow := f.clock.now.AddDate(0, 0, 1)
	busIn.TravelDate = &tomorrow
	bus, err := f.bookings.Create(ctx, f.admin, busIn)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	url := "https://files.example/t.pdf"
	cabIn := bookingInput(100, 0)
	cabIn.Service = "cab"
	cabIn.Status = "booked"
	cabIn.TicketPDFURL = &url
	cab, err := f.bookings.Create(ctx, f.staff, cabIn)
	require.NoError(t, err)

	cases := []struct {
		name   string
		filter models.BookingFilter
		want   []int64
	}{
		{"all newest first", models.BookingFilter{}, []int64{cab.ID, bus.ID, train.ID}},
		{"search from", models.BookingFilter{Search: "GOA"}, []int64{bus.ID}},
		{"search service", models.BookingFilter{Search: "rai"}, []int64{train.ID}},
		{"service", models.BookingFilter{Service: "CAB"}, []int64{cab.ID}},
		{"status alias", models.BookingFilter{Status: "confirmed"}, []int64{cab.ID}},
		{"status default", models.BookingFilter{Status: "pending_booking"}, []int64{bus.ID, train.ID}},
		{"pending approval never listed", models.BookingFilter{Status: "pending_approval"}, []int64{}},
		{"tomorrow by travel date", models.BookingFilter{DateBucket: models.BucketTomorrow}, []int64{bus.ID}},
		{"today by created at", models.BookingFilter{DateBucket: models.BucketToday}, []int64{cab.ID, train.ID}},
		{"yesterday", models.BookingFilter{DateBucket: models.BucketYesterday}, []int64{}},
		{"owner", models.BookingFilter{OwnerUserID: &f.admin.UserID}, []int64{bus.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.query.ListBookings(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, viewIDs(got))
		})
	}
}

func TestProjectForcesStaffFieldsNullForCustomer(t *testing.T) {
	zero := int64(0)
	row := models.BookingRow{
		Booking:      models.Booking{ID: 1, UserID: &zero, Status: "pending"},
		CustomerName: "",
	}
	v := Project(row, domain.Owner{Kind: domain.OwnerCustomer, Staff: &domain.StaffAccount{ID: 3, Username: "leak"}})
	assert.Nil(t, v.UserID)
	assert.Nil(t, v.StaffID)
	assert.Nil(t, v.StaffUsername)
	assert.Equal(t, domain.CustomerOwnerLabel, v.OwnerName)
	assert.Equal(t, domain.StatusPendingBooking, v.Status)
	assert.NotNil(t, v.PassengerList)
}
