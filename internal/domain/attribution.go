package domain

import (
	"context"
	"strings"
)

// OwnerKind tells who originated a booking.
type OwnerKind string

const (
	OwnerCustomer OwnerKind = "customer"
	OwnerStaff    OwnerKind = "staff"
	OwnerAdmin    OwnerKind = "admin"
	OwnerUnknown  OwnerKind = "unknown"
)

const (
	// AdminOwnerLabel is shown for admin-created bookings instead of the admin's name.
	AdminOwnerLabel = "Admin"
	// FallbackOwnerLabel is shown when user_id matches no account. This fails open
	// so listings stay renderable; it can hide a dangling user_id.
	FallbackOwnerLabel = AdminOwnerLabel
	// CustomerOwnerLabel is shown when a customer has no stored name.
	CustomerOwnerLabel = "Customer"
)

// StaffAccount is an identity a booking's user_id can reference.
type StaffAccount struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// StaffCredentials is a login record. The hash never leaves the auth service.
type StaffCredentials struct {
	Account      StaffAccount
	PasswordHash string
}

// StaffDirectory looks up identities by id. A miss returns (nil, nil).
type StaffDirectory interface {
	FindAdmin(ctx context.Context, id int64) (*StaffAccount, error)
	FindStaff(ctx context.Context, id int64) (*StaffAccount, error)
}

// Owner is the resolved originator of a booking.
type Owner struct {
	Kind        OwnerKind
	DisplayName string
	Staff       *StaffAccount
}

func (o Owner) IsCustomer() bool { return o.Kind == OwnerCustomer }

// AttributionResolver decides who owns a booking from its user_id.
type AttributionResolver interface {
	Resolve(ctx context.Context, userID int64) (Owner, error)
}

// StaffResolver resolves owners against a StaffDirectory, admins first.
type StaffResolver struct {
	Directory StaffDirectory
}

func (r StaffResolver) Resolve(ctx context.Context, userID int64) (Owner, error) {
	if userID <= 0 {
		return Owner{Kind: OwnerCustomer}, nil
	}
	if r.Directory == nil {
		return Owner{Kind: OwnerUnknown, DisplayName: FallbackOwnerLabel}, nil
	}

	admin, err := r.Directory.FindAdmin(ctx, userID)
	if err != nil {
		return Owner{}, Storage("find admin", err)
	}
	if admin != nil {
		return Owner{Kind: OwnerAdmin, DisplayName: AdminOwnerLabel, Staff: admin}, nil
	}

	staff, err := r.Directory.FindStaff(ctx, userID)
	if err != nil {
		return Owner{}, Storage("find staff", err)
	}
	if staff != nil {
		name := strings.TrimSpace(staff.FullName)
		if name == "" {
			name = strings.TrimSpace(staff.Username)
		}
		return Owner{Kind: OwnerStaff, DisplayName: name, Staff: staff}, nil
	}

	return Owner{Kind: OwnerUnknown, DisplayName: FallbackOwnerLabel}, nil
}

// DisplayOwner picks the label shown for a booking. Customer-originated bookings
// always show the customer, whatever a join produced for the staff side.
func DisplayOwner(o Owner, customerName string) string {
	if o.IsCustomer() {
		if n := strings.TrimSpace(customerName); n != "" {
			return n
		}
		return CustomerOwnerLabel
	}
	if strings.TrimSpace(o.DisplayName) == "" {
		return FallbackOwnerLabel
	}
	return o.DisplayName
}
