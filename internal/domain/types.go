package domain

import "strings"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Actor carries the caller identity supplied by the session layer.
// A zero UserID means an anonymous customer.
type Actor struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (a Actor) IsStaff() bool {
	return a.UserID > 0
}

func (a Actor) IsAdmin() bool {
	return a.IsStaff() && strings.EqualFold(a.Role, RoleAdmin)
}

// Anonymous is the actor used for public self-service requests.
var Anonymous = Actor{}
