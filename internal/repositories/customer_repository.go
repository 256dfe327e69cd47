package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intdb "travelagency/internal/db"
	"travelagency/internal/domain/models"
)

// findOrCreateCustomer returns the id of the customer owning c.Phone, inserting
// c when none exists. Existing records are not modified. It runs on the
// caller's transaction so a failed booking insert also drops a new customer.
func findOrCreateCustomer(ctx context.Context, q intdb.Querier, c models.Customer) (int64, error) {
	existing, err := findCustomerByPhone(ctx, q, c.Phone, false)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO customers (name, phone, email, address, created_at) VALUES (?,?,?,?,?)`,
		strings.TrimSpace(c.Name), c.Phone, intdb.NullIfEmpty(c.Email), intdb.NullIfEmpty(c.Address), c.CreatedAt)
	if err != nil {
		// another request inserted the same phone first
		if intdb.IsDuplicateKey(err) {
			// a locking read sees the committed row regardless of the tx snapshot
			existing, ferr := findCustomerByPhone(ctx, q, c.Phone, true)
			if ferr != nil {
				return 0, ferr
			}
			return existing.ID, nil
		}
		return 0, err
	}
	return res.LastInsertId()
}

func findCustomerByPhone(ctx context.Context, q intdb.Querier, phone string, locking bool) (models.Customer, error) {
	query := `
		SELECT id, name, phone, COALESCE(email,''), COALESCE(address,''), created_at
		FROM customers WHERE phone=? LIMIT 1`
	if locking {
		query += ` LOCK IN SHARE MODE`
	}
	var c models.Customer
	err := q.QueryRowContext(ctx, query, phone).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
	return c, err
}
