package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService issues staff session tokens and manages staff accounts.
type AuthService struct {
	Accounts AccountStore
	Secret   []byte
	TTL      time.Duration
	Now      utils.Clock
}

// Claims is the JWT payload carried by staff sessions.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Account   domain.StaffAccount `json:"user"`
}

type CreateStaffInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.SystemClock()
}

// Login checks the password against admins, then staff_users.
func (s AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "username", Msg: "username and password are required"}
	}

	cred, err := s.Accounts.FindCredentials(ctx, username)
	if err != nil {
		return LoginResult{}, domain.Storage("find credentials", err)
	}
	if cred == nil || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		utils.LogEvent(ctx, "auth", "login_failed", "username="+username)
		return LoginResult{}, domain.AuthError{Msg: "invalid username or password"}
	}

	token, exp, err := s.Issue(cred.Account)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "could not issue token", Err: err}
	}
	utils.LogEvent(ctx, "auth", "login", fmt.Sprintf("user_id=%d role=%s", cred.Account.ID, cred.Account.Role))
	return LoginResult{Token: token, ExpiresAt: exp, Account: cred.Account}, nil
}

// Issue signs an HS256 token for acc.
func (s AuthService) Issue(acc domain.StaffAccount) (string, time.Time, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:   acc.ID,
		Username: acc.Username,
		Role:     acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseActor verifies a bearer token and returns the identity it carries.
func (s AuthService) ParseActor(token string) (domain.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID <= 0 {
		return domain.Actor{}, domain.AuthError{Msg: "invalid or expired token"}
	}
	return domain.Actor{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// CreateStaff registers a plain staff account. Only admins may call it.
func (s AuthService) CreateStaff(ctx context.Context, actor domain.Actor, in CreateStaffInput) (domain.StaffAccount, error) {
	if !actor.IsAdmin() {
		return domain.StaffAccount{}, domain.ForbiddenError{Msg: "admin role required"}
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return domain.StaffAccount{}, domain.ValidationError{Field: "username", Msg: "required"}
	}
	if len(in.Password) < minPasswordLength {
		return domain.StaffAccount{}, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	existing, err := s.Accounts.FindCredentials(ctx, username)
	if err != nil {
		return domain.StaffAccount{}, domain.Storage("find credentials", err)
	}
	if existing != nil {
		return domain.StaffAccount{}, domain.ConflictError{Resource: "staff", Msg: "username already taken"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.StaffAccount{}, domain.InternalError{Msg: "could not hash password", Err: err}
	}
	acc, err := s.Accounts.CreateStaff(ctx, domain.StaffAccount{
		Username: username,
		FullName: utils.NormalizeSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
	}, string(hash))
	if err != nil {
		return domain.StaffAccount{}, domain.Storage("create staff", err)
	}
	utils.LogEvent(ctx, "auth", "create_staff", fmt.Sprintf("user_id=%d by=%d", acc.ID, actor.UserID))
	return acc, nil
}
