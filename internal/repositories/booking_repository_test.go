package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

var bookingColumns = []string{
	"id", "customer_id", "user_id", "service", "from_location", "to_location",
	"travel_date", "booking_date", "passengers",
	"train_number", "train_name", "travel_class",
	"departure_time", "arrival_time", "duration", "fare_per_person",
	"total_amount", "paid_amount", "pending_amount", "payment_status",
	"status", "notes", "ticket_pdf_url",
	"created_at", "updated_at",
	"customer_name", "customer_phone", "customer_email",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var customerColumns = []string{"id", "name", "phone", "email", "address", "created_at"}

func sampleCustomer() models.Customer {
	return models.Customer{Name: "Asha", Phone: "9876543210", CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)}
}

// expectExistingCustomer makes the in-transaction phone lookup hit customer id.
func expectExistingCustomer(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery("FROM customers WHERE phone=").WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows(customerColumns).AddRow(id, "Asha", "9876543210", "", "", time.Now()))
}

func sampleBooking() models.Booking {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	return models.Booking{
		CustomerID:   3,
		Service:      models.ServiceTrain,
		FromLocation: "Mumbai",
		ToLocation:   "Pune",
		Passengers:   2,
		Ledger:       domain.RecomputeLedger(decimal.NewFromInt(2000), decimal.NewFromInt(500)),
		Status:       domain.StatusPendingApproval,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestBookingCreateInsertsPassengersInOneTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectBegin()
	expectExistingCustomer(mock, 3)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO booking_passengers").
		WithArgs(int64(42), 1, "Asha", 31, "female", int64(42), 2, "Ravi", 35, "male").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), sampleCustomer(), sampleBooking(), []models.Passenger{
		{Name: "Asha", Age: 31, Gender: models.GenderFemale},
		{Name: "Ravi", Age: 35, Gender: models.GenderMale},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingCreateRollsBackWhenPassengerInsertFails(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectBegin()
	expectExistingCustomer(mock, 3)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO booking_passengers").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), sampleCustomer(), sampleBooking(), []models.Passenger{{Name: "Asha", Age: 31, Gender: models.GenderFemale}})
	if !domain.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectQuery("FROM bookings b").WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(bookingColumns))

	_, err := repo.GetByID(context.Background(), 9)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingGetByIDNormalizesLegacyRow(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.Local)

	mock.ExpectQuery("FROM bookings b").WithArgs(int64(5)).WillReturnRows(
		sqlmock.NewRows(bookingColumns).AddRow(
			int64(5), int64(3), nil, "Train", "Mumbai", "Pune",
			nil, nil, int64(1),
			"12127", "Intercity", nil,
			nil, nil, nil, nil,
			"2000.00", "500.00", nil, "",
			" Confirmed ", "", "https://files.example/t.pdf",
			created, created,
			"Asha", "9876543210", "",
		))

	row, err := repo.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if row.Status != domain.StatusTicketBooked {
		t.Fatalf("expected ticket_booked, got %q", row.Status)
	}
	if row.UserID != nil {
		t.Fatalf("expected nil user_id, got %v", *row.UserID)
	}
	if !row.Ledger.Pending.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected fallback pending 1500, got %s", row.Ledger.Pending)
	}
	if row.Ledger.PaymentStatus != domain.PaymentPartial {
		t.Fatalf("expected derived partial, got %q", row.Ledger.PaymentStatus)
	}
	if row.Service != models.ServiceTrain || row.Carrier.TrainNumber == nil || *row.Carrier.TrainNumber != "12127" {
		t.Fatalf("carrier or service not mapped: %+v", row)
	}
	if row.CustomerName != "Asha" {
		t.Fatalf("expected customer join, got %q", row.CustomerName)
	}
}

func TestBookingListBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	owner := int64(7)

	mock.ExpectQuery(regexp.QuoteMeta("b.status <> ? AND b.status IN (?,?,?) AND b.service = ? AND (LOWER(b.from_location) LIKE ?")).
		WithArgs("pending_approval", "pending_booking", "partial_booking", "pending", "bus",
			"%pu\\_ne%", "%pu\\_ne%", "%pu\\_ne%", "2025-03-09", owner).
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	rows, err := repo.List(context.Background(), models.BookingFilter{
		Search:      " PU_NE ",
		Status:      "pending",
		Service:     "Bus",
		DateBucket:  models.BucketYesterday,
		OwnerUserID: &owner,
	}, now)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingListTriageOnlyCustomerSubmissions(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.status = ? AND (b.user_id IS NULL OR b.user_id = 0) ORDER BY b.created_at DESC, b.id DESC")).
		WithArgs("pending_approval").
		WillReturnRows(sqlmock.NewRows(bookingColumns))

	if _, err := repo.ListTriage(context.Background()); err != nil {
		t.Fatalf("ListTriage returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingUpdateStatusConcurrentWritersBothSucceed(t *testing.T) {
	db, mock := newMock(t)
	mock.MatchExpectationsInOrder(false)
	repo := BookingRepository{DB: db}

	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status=?")).
			WithArgs("new_booking", nil, nil, sqlmock.AnyArg(), int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.UpdateStatus(context.Background(), 11, domain.StatusNewBooking, nil, "", time.Now())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update failed: %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingUpdateLedgerMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec("UPDATE bookings SET total_amount").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings WHERE id=?")).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.UpdateLedger(context.Background(), 4, domain.RecomputeLedger(decimal.NewFromInt(10), decimal.Zero), time.Now())
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingDeleteMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id=?")).WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 8); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingStorageErrorKeepsCause(t *testing.T) {
	db, mock := newMock(t)
	repo := BookingRepository{DB: db}
	cause := errors.New("connection reset")

	mock.ExpectExec("DELETE FROM bookings").WillReturnError(cause)

	err := repo.Delete(context.Background(), 1)
	if !domain.IsStorage(err) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error wrapping cause, got %v", err)
	}
	if err.Error() != "storage error: delete booking" {
		t.Fatalf("storage error leaks detail: %q", err.Error())
	}
}
