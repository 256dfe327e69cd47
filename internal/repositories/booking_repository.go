package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "travelagency/internal/config"
	intdb "travelagency/internal/db"
	"travelagency/internal/domain"
	"travelagency/internal/domain/models"

	"github.com/shopspring/decimal"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingSelect = `
	SELECT
		b.id, b.customer_id, b.user_id, b.service, b.from_location, b.to_location,
		b.travel_date, b.booking_date, b.passengers,
		b.train_number, b.train_name, b.travel_class,
		b.departure_time, b.arrival_time, b.duration, b.fare_per_person,
		b.total_amount, b.paid_amount, b.pending_amount, b.payment_status,
		b.status, COALESCE(b.notes,''), b.ticket_pdf_url,
		b.created_at, b.updated_at,
		COALESCE(c.name,''), COALESCE(c.phone,''), COALESCE(c.email,'')
	FROM bookings b
	LEFT JOIN customers c ON c.id = b.customer_id`

const bookingOrder = ` ORDER BY b.created_at DESC, b.id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingRow(s rowScanner) (models.BookingRow, error) {
	var (
		row           models.BookingRow
		userID        sql.NullInt64
		travelDate    sql.NullTime
		bookingDate   sql.NullTime
		trainNumber   sql.NullString
		trainName     sql.NullString
		travelClass   sql.NullString
		departure     sql.NullString
		arrival       sql.NullString
		duration      sql.NullString
		ticket        sql.NullString
		fare          decimal.NullDecimal
		pending       decimal.NullDecimal
		total         decimal.Decimal
		paid          decimal.Decimal
		service       string
		paymentStatus string
		st            string
	)
	if err := s.Scan(
		&row.ID, &row.CustomerID, &userID, &service, &row.FromLocation, &row.ToLocation,
		&travelDate, &bookingDate, &row.Passengers,
		&trainNumber, &trainName, &travelClass,
		&departure, &arrival, &duration, &fare,
		&total, &paid, &pending, &paymentStatus,
		&st, &row.Notes, &ticket,
		&row.CreatedAt, &row.UpdatedAt,
		&row.CustomerName, &row.CustomerPhone, &row.CustomerEmail,
	); err != nil {
		return models.BookingRow{}, err
	}

	row.UserID = intdb.Int64Ptr(userID)
	row.Service = models.Service(strings.ToLower(service))
	row.TravelDate = intdb.TimePtr(travelDate)
	row.BookingDate = intdb.TimePtr(bookingDate)
	row.Carrier = models.CarrierInfo{
		TrainNumber:   intdb.StringPtr(trainNumber),
		TrainName:     intdb.StringPtr(trainName),
		TravelClass:   intdb.StringPtr(travelClass),
		DepartureTime: intdb.StringPtr(departure),
		ArrivalTime:   intdb.StringPtr(arrival),
		Duration:      intdb.StringPtr(duration),
		FarePerPerson: fare,
	}
	row.Ledger = domain.LedgerFromStored(total, paid, pending, paymentStatus)
	row.Status = domain.NormalizeStatus(st)
	row.TicketPDFURL = intdb.StringPtr(ticket)
	return row, nil
}

func scanBookingRows(rows *sql.Rows) ([]models.BookingRow, error) {
	defer rows.Close()
	out := []models.BookingRow{}
	for rows.Next() {
		row, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// bookingArgs returns the writable columns in the order of bookingWriteColumns.
func bookingArgs(b models.Booking) []any {
	return []any{
		string(b.Service),
		strings.TrimSpace(b.FromLocation),
		strings.TrimSpace(b.ToLocation),
		intdb.NullTime(b.TravelDate),
		intdb.NullTime(b.BookingDate),
		b.Passengers,
		intdb.NullString(b.Carrier.TrainNumber),
		intdb.NullString(b.Carrier.TrainName),
		intdb.NullString(b.Carrier.TravelClass),
		intdb.NullString(b.Carrier.DepartureTime),
		intdb.NullString(b.Carrier.ArrivalTime),
		intdb.NullString(b.Carrier.Duration),
		b.Carrier.FarePerPerson,
		b.Ledger.Total,
		b.Ledger.Paid,
		b.Ledger.Pending,
		string(b.Ledger.PaymentStatus),
		string(domain.NormalizeStatus(string(b.Status))),
		intdb.NullIfEmpty(b.Notes),
		intdb.NullString(b.TicketPDFURL),
	}
}

var bookingWriteColumns = []string{
	"service", "from_location", "to_location",
	"travel_date", "booking_date", "passengers",
	"train_number", "train_name", "travel_class",
	"departure_time", "arrival_time", "duration", "fare_per_person",
	"total_amount", "paid_amount", "pending_amount", "payment_status",
	"status", "notes", "ticket_pdf_url",
}

// Create resolves the customer by phone and inserts the booking with its
// passengers, all in one transaction.
func (r BookingRepository) Create(ctx context.Context, c models.Customer, b models.Booking, passengers []models.Passenger) (int64, error) {
	cols := append([]string{"customer_id", "user_id"}, bookingWriteColumns...)
	cols = append(cols, "created_at", "updated_at")

	var id int64
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		customerID, err := findOrCreateCustomer(ctx, tx, c)
		if err != nil {
			return err
		}

		args := []any{customerID, intdb.NullInt64(b.UserID)}
		args = append(args, bookingArgs(b)...)
		args = append(args, b.CreatedAt, b.UpdatedAt)

		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (`+strings.Join(cols, ", ")+`) VALUES (`+intdb.Placeholders(len(cols))+`)`,
			args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		return insertPassengers(ctx, tx, id, passengers)
	})
	if err != nil {
		return 0, domain.Storage("create booking", err)
	}
	return id, nil
}

func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.BookingRow, error) {
	if id <= 0 {
		return models.BookingRow{}, domain.NotFoundError{Resource: "booking"}
	}
	db := r.db()
	if db == nil {
		return models.BookingRow{}, domain.StorageError{Op: "get booking", Err: errors.New("db not available")}
	}
	row, err := scanBookingRow(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookingRow{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.BookingRow{}, domain.Storage("get booking", err)
	}
	return row, nil
}

// Update rewrites every mutable column. A non-nil passenger list replaces the
// stored passengers inside the same transaction.
func (r BookingRepository) Update(ctx context.Context, b models.Booking, passengers []models.Passenger) error {
	sets := make([]string, 0, len(bookingWriteColumns)+1)
	for _, col := range bookingWriteColumns {
		sets = append(sets, col+"=?")
	}
	sets = append(sets, "updated_at=?")

	args := bookingArgs(b)
	args = append(args, b.UpdatedAt, b.ID)

	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
		if err != nil {
			return err
		}
		if err := requireRow(ctx, tx, res, b.ID); err != nil {
			return err
		}
		if passengers == nil {
			return nil
		}
		return replacePassengers(ctx, tx, b.ID, passengers)
	})
	return domain.Storage("update booking", err)
}

// UpdateStatus writes status, ticket and notes. There is no guard on the prior
// status: concurrent writers resolve last-write-wins.
func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status, ticketURL *string, notes string, at time.Time) error {
	db := r.db()
	if db == nil {
		return domain.StorageError{Op: "update status", Err: errors.New("db not available")}
	}
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status=?, ticket_pdf_url=?, notes=?, updated_at=? WHERE id=?`,
		string(domain.NormalizeStatus(string(status))), intdb.NullString(ticketURL), intdb.NullIfEmpty(notes), at, id)
	if err != nil {
		return domain.Storage("update status", err)
	}
	return domain.Storage("update status", requireRow(ctx, db, res, id))
}

func (r BookingRepository) UpdateLedger(ctx context.Context, id int64, l domain.Ledger, at time.Time) error {
	db := r.db()
	if db == nil {
		return domain.StorageError{Op: "update ledger", Err: errors.New("db not available")}
	}
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET total_amount=?, paid_amount=?, pending_amount=?, payment_status=?, updated_at=? WHERE id=?`,
		l.Total, l.Paid, l.Pending, string(l.PaymentStatus), at, id)
	if err != nil {
		return domain.Storage("update ledger", err)
	}
	return domain.Storage("update ledger", requireRow(ctx, db, res, id))
}

// Delete removes the booking; passengers go with it through ON DELETE CASCADE.
func (r BookingRepository) Delete(ctx context.Context, id int64) error {
	db := r.db()
	if db == nil {
		return domain.StorageError{Op: "delete booking", Err: errors.New("db not available")}
	}
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id=?`, id)
	if err != nil {
		return domain.Storage("delete booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Storage("delete booking", err)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// List returns bookings matching f, never including pending_approval.
func (r BookingRepository) List(ctx context.Context, f models.BookingFilter, now time.Time) ([]models.BookingRow, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StorageError{Op: "list bookings", Err: errors.New("db not available")}
	}

	where := []string{"b.status <> ?"}
	args := []any{string(domain.StatusPendingApproval)}

	if s := strings.TrimSpace(f.Status); s != "" {
		values := domain.Status(s).MatchValues()
		where = append(where, "b.status IN ("+intdb.Placeholders(len(values))+")")
		for _, v := range values {
			args = append(args, v)
		}
	}
	if svc := strings.ToLower(strings.TrimSpace(f.Service)); svc != "" {
		where = append(where, "b.service = ?")
		args = append(args, svc)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, "(LOWER(b.from_location) LIKE ? OR LOWER(b.to_location) LIKE ? OR LOWER(b.service) LIKE ?)")
		args = append(args, like, like, like)
	}
	if day, ok := f.DateBucket.Day(now); ok {
		where = append(where, "DATE(COALESCE(b.booking_date, b.travel_date, b.created_at)) = ?")
		args = append(args, day.Format("2006-01-02"))
	}
	if f.OwnerUserID != nil {
		where = append(where, "b.user_id = ?")
		args = append(args, *f.OwnerUserID)
	}

	rows, err := db.QueryContext(ctx, bookingSelect+` WHERE `+strings.Join(where, " AND ")+bookingOrder, args...)
	if err != nil {
		return nil, domain.Storage("list bookings", err)
	}
	out, err := scanBookingRows(rows)
	if err != nil {
		return nil, domain.Storage("list bookings", err)
	}
	return out, nil
}

// ListTriage returns customer-submitted bookings awaiting approval.
func (r BookingRepository) ListTriage(ctx context.Context) ([]models.BookingRow, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StorageError{Op: "list triage", Err: errors.New("db not available")}
	}
	rows, err := db.QueryContext(ctx,
		bookingSelect+` WHERE b.status = ? AND (b.user_id IS NULL OR b.user_id = 0)`+bookingOrder,
		string(domain.StatusPendingApproval))
	if err != nil {
		return nil, domain.Storage("list triage", err)
	}
	out, err := scanBookingRows(rows)
	if err != nil {
		return nil, domain.Storage("list triage", err)
	}
	return out, nil
}

// requireRow turns a zero-row UPDATE into NotFound. MySQL reports zero affected
// rows when values are unchanged, so a miss is confirmed with a lookup.
func requireRow(ctx context.Context, q intdb.Querier, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var found int64
	err = q.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id=?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "booking"}
	}
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
