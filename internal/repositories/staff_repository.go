package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intconfig "travelagency/internal/config"
	intdb "travelagency/internal/db"
	"travelagency/internal/domain"
)

const (
	adminsTable = "admins"
	staffTable  = "staff_users"
)

// StaffRepository reads the two identity tables a booking's user_id may point at.
type StaffRepository struct {
	DB *sql.DB
}

func (r StaffRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r StaffRepository) FindAdmin(ctx context.Context, id int64) (*domain.StaffAccount, error) {
	return r.findByID(ctx, adminsTable, domain.RoleAdmin, id)
}

func (r StaffRepository) FindStaff(ctx context.Context, id int64) (*domain.StaffAccount, error) {
	return r.findByID(ctx, staffTable, domain.RoleStaff, id)
}

func (r StaffRepository) findByID(ctx context.Context, table, role string, id int64) (*domain.StaffAccount, error) {
	if id <= 0 {
		return nil, nil
	}
	db := r.db()
	if db == nil {
		return nil, errors.New("db not available")
	}
	acc := domain.StaffAccount{Role: role}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, COALESCE(full_name,''), COALESCE(email,'') FROM `+table+` WHERE id=? LIMIT 1`, id).
		Scan(&acc.ID, &acc.Username, &acc.FullName, &acc.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindCredentials looks the username up in admins first, then staff_users.
func (r StaffRepository) FindCredentials(ctx context.Context, username string) (*domain.StaffCredentials, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StorageError{Op: "find credentials", Err: errors.New("db not available")}
	}
	username = strings.TrimSpace(username)
	for _, src := range []struct{ table, role string }{{adminsTable, domain.RoleAdmin}, {staffTable, domain.RoleStaff}} {
		cred := domain.StaffCredentials{Account: domain.StaffAccount{Role: src.role}}
		err := db.QueryRowContext(ctx, `
			SELECT id, username, COALESCE(full_name,''), COALESCE(email,''), password_hash
			FROM `+src.table+` WHERE username=? LIMIT 1`, username).
			Scan(&cred.Account.ID, &cred.Account.Username, &cred.Account.FullName, &cred.Account.Email, &cred.PasswordHash)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, domain.Storage("find credentials", err)
		}
		return &cred, nil
	}
	return nil, nil
}

// CreateStaff inserts a plain staff account. A username already held by a
// staff user or an admin is a conflict.
func (r StaffRepository) CreateStaff(ctx context.Context, acc domain.StaffAccount, passwordHash string) (domain.StaffAccount, error) {
	db := r.db()
	if db == nil {
		return domain.StaffAccount{}, domain.StorageError{Op: "create staff", Err: errors.New("db not available")}
	}
	id, err := insertAccount(ctx, db, staffTable, adminsTable, acc, passwordHash)
	if intdb.IsDuplicateKey(err) || errors.Is(err, errUsernameHeld) {
		return domain.StaffAccount{}, domain.ConflictError{Resource: "staff", Msg: "username already taken", Err: err}
	}
	if err != nil {
		return domain.StaffAccount{}, domain.Storage("create staff", err)
	}
	acc.ID = id
	acc.Role = domain.RoleStaff
	return acc, nil
}

// EnsureAdmin inserts the bootstrap admin unless the username already exists.
// A staff user holding the username is a conflict.
func (r StaffRepository) EnsureAdmin(ctx context.Context, acc domain.StaffAccount, passwordHash string) error {
	db := r.db()
	if db == nil {
		return domain.StorageError{Op: "ensure admin", Err: errors.New("db not available")}
	}
	_, err := insertAccount(ctx, db, adminsTable, staffTable, acc, passwordHash)
	if intdb.IsDuplicateKey(err) {
		return nil
	}
	if errors.Is(err, errUsernameHeld) {
		return domain.ConflictError{Resource: "admin", Msg: "username belongs to a staff account", Err: err}
	}
	return domain.Storage("ensure admin", err)
}

var errUsernameHeld = errors.New("username held by the other account table")

// insertAccount adds acc to table unless other already holds the username.
// The guard is part of the INSERT so the two tables never share a username.
func insertAccount(ctx context.Context, db *sql.DB, table, other string, acc domain.StaffAccount, passwordHash string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO `+table+` (username, full_name, email, password_hash)
		SELECT ?,?,?,? FROM DUAL
		WHERE NOT EXISTS (SELECT 1 FROM `+other+` WHERE username=?)`,
		acc.Username, intdb.NullIfEmpty(acc.FullName), intdb.NullIfEmpty(acc.Email), passwordHash, acc.Username)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errUsernameHeld
	}
	return res.LastInsertId()
}
