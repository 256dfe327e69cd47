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
)

type PassengerRepository struct {
	DB *sql.DB
}

func (r PassengerRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Replace swaps the whole passenger list of a booking atomically and keeps the
// booking's passenger count in step with it.
func (r PassengerRepository) Replace(ctx context.Context, bookingID int64, passengers []models.Passenger, at time.Time) error {
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		var found int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id=? FOR UPDATE`, bookingID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundError{Resource: "booking", Err: err}
		}
		if err != nil {
			return err
		}
		if err := replacePassengers(ctx, tx, bookingID, passengers); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE bookings SET passengers=?, updated_at=? WHERE id=?`, len(passengers), at, bookingID)
		return err
	})
	return domain.Storage("replace passengers", err)
}

func (r PassengerRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	byBooking, err := r.ListByBookingIDs(ctx, []int64{bookingID})
	if err != nil {
		return nil, err
	}
	if ps, ok := byBooking[bookingID]; ok {
		return ps, nil
	}
	return []models.Passenger{}, nil
}

// ListByBookingIDs loads passengers for many bookings with one query.
func (r PassengerRepository) ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64][]models.Passenger, error) {
	out := map[int64][]models.Passenger{}
	if len(bookingIDs) == 0 {
		return out, nil
	}
	db := r.db()
	if db == nil {
		return nil, domain.StorageError{Op: "list passengers", Err: errors.New("db not available")}
	}

	args := make([]any, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		args = append(args, id)
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_id, position, name, age, gender
		FROM booking_passengers
		WHERE booking_id IN (`+intdb.Placeholders(len(args))+`)
		ORDER BY booking_id, position, id`, args...)
	if err != nil {
		return nil, domain.Storage("list passengers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p      models.Passenger
			gender string
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Position, &p.Name, &p.Age, &gender); err != nil {
			return nil, domain.Storage("list passengers", err)
		}
		p.Gender = models.Gender(strings.ToLower(gender))
		out[p.BookingID] = append(out[p.BookingID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list passengers", err)
	}
	return out, nil
}

func replacePassengers(ctx context.Context, q intdb.Querier, bookingID int64, passengers []models.Passenger) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM booking_passengers WHERE booking_id=?`, bookingID); err != nil {
		return err
	}
	return insertPassengers(ctx, q, bookingID, passengers)
}

func insertPassengers(ctx context.Context, q intdb.Querier, bookingID int64, passengers []models.Passenger) error {
	if len(passengers) == 0 {
		return nil
	}
	values := make([]string, 0, len(passengers))
	args := make([]any, 0, len(passengers)*5)
	for i, p := range passengers {
		values = append(values, "("+intdb.Placeholders(5)+")")
		args = append(args, bookingID, i+1, p.Name, p.Age, string(p.Gender))
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO booking_passengers (booking_id, position, name, age, gender) VALUES `+strings.Join(values, ", "),
		args...)
	return err
}
