package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	intconfig "travelagency/internal/config"
	"travelagency/internal/domain"
	"travelagency/internal/events"
	"travelagency/internal/http/handlers"
	"travelagency/internal/repositories"
	"travelagency/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	events *events.Recorder
}

func newTestServer(t *testing.T, burst int) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.EnsureAdmin(context.Background(), domain.StaffAccount{Username: "root", FullName: "Root Admin"}, string(hash)))

	rec := &events.Recorder{}
	query := services.QueryService{
		Bookings:   store,
		Passengers: store,
		Resolver:   domain.StaffResolver{Directory: store},
	}
	h := handlers.Handlers{
		Bookings: services.BookingService{
			Bookings: store,
			Staff:    store,
			Query:    query,
			Events:   rec,
		},
		Query: query,
		Passengers: services.PassengerService{
			Bookings:   store,
			Passengers: store,
			Events:     rec,
		},
		Auth: services.AuthService{Accounts: store, Secret: []byte("test-secret"), TTL: time.Hour},
		Docs: services.DocsService{Query: query},
	}
	env := intconfig.Env{PublicRatePerMin: 60, PublicRateBurst: burst}
	return testServer{router: NewRouter(env, h), events: rec}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func publicBooking() gin.H {
	return gin.H{
		"service":        "train",
		"from_location":  "Mumbai",
		"to_location":    "Pune",
		"travel_date":    "2025-03-12",
		"passengers":     1,
		"total_amount":   "1000",
		"paid_amount":    "500",
		"status":         "ticket_booked",
		"customer_name":  "Asha",
		"customer_phone": "98765 43210",
	}
}

func bookingPath(id int64, suffix string) string {
	return "/api/bookings/" + strconv.FormatInt(id, 10) + suffix
}

func TestHealthAndDBCheck(t *testing.T) {
	s := newTestServer(t, 10)
	w := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/api/db-check", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", decode(t, w)["storage"])

	w = s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaffRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 10)

	w := s.do(t, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/triage", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "root", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["code"])
}

func TestCustomerSubmissionTriageFlow(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t, "root", "admin-pass")

	w := s.do(t, http.MethodPost, "/api/public/bookings", "", publicBooking())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := int64(created["id"].(float64))
	assert.Equal(t, string(domain.StatusPendingApproval), created["status"])
	assert.Nil(t, created["user_id"])
	ledger := created["ledger"].(map[string]any)
	assert.Equal(t, "0", ledger["paid_amount"])
	assert.Equal(t, "1000", ledger["pending_amount"])

	w = s.do(t, http.MethodGet, "/api/bookings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/triage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(t, http.MethodPost, "/api/triage/"+strconv.FormatInt(id, 10)+"/accept", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode(t, w)
	assert.Equal(t, string(domain.StatusNewBooking), accepted["status"])
	assert.Equal(t, "Asha", accepted["owner_name"])
	assert.Nil(t, accepted["staff_name"])

	w = s.do(t, http.MethodPost, "/api/triage/"+strconv.FormatInt(id, 10)+"/reject", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/bookings?status=new_booking&date=all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/bookings?date=last_week", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{events.BookingCreated, events.BookingStatusChanged}, s.events.Types())
}

func TestStaffBookingLifecycle(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t, "root", "admin-pass")

	body := publicBooking()
	body["status"] = ""
	body["passenger_list"] = []gin.H{{"name": "Asha", "age": 30, "gender": "female"}}
	w := s.do(t, http.MethodPost, "/api/bookings", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := int64(created["id"].(float64))
	assert.Equal(t, string(domain.StatusPendingBooking), created["status"])
	assert.Equal(t, domain.AdminOwnerLabel, created["owner_name"])

	w = s.do(t, http.MethodPut, bookingPath(id, "/payment"), token, gin.H{"total_amount": 1000, "paid_amount": 400})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ledger := decode(t, w)["ledger"].(map[string]any)
	assert.Equal(t, "600", ledger["pending_amount"])
	assert.Equal(t, string(domain.PaymentPartial), ledger["payment_status"])

	w = s.do(t, http.MethodPut, bookingPath(id, "/payment"), token, gin.H{"paid_amount": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, bookingPath(id, "/status"), token, gin.H{"status": "ticket_booked"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, bookingPath(id, "/status"), token, gin.H{"status": "ticket_booked", "ticket_pdf_url": "https://files.example/t.pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(domain.StatusTicketBooked), decode(t, w)["status"])

	w = s.do(t, http.MethodPut, bookingPath(id, "/passengers"), token, gin.H{"passengers": []gin.H{
		{"name": "Asha", "age": 30, "gender": "female"},
		{"name": "Ravi", "age": 32, "gender": "male"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, bookingPath(id, "/passengers"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["passengers"], 2)

	w = s.do(t, http.MethodGet, bookingPath(id, "/invoice"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INVOICE_")

	w = s.do(t, http.MethodDelete, bookingPath(id, ""), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, bookingPath(id, ""), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/bookings/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStaffRequiresAdmin(t *testing.T) {
	s := newTestServer(t, 10)
	admin := s.login(t, "root", "admin-pass")

	w := s.do(t, http.MethodPost, "/api/auth/staff", admin, gin.H{"username": "priya", "password": "longenough", "full_name": "Priya Shah"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	staff := s.login(t, "priya", "longenough")
	w = s.do(t, http.MethodPost, "/api/auth/staff", staff, gin.H{"username": "ravi", "password": "longenough"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/staff", "", gin.H{"username": "ravi", "password": "longenough"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := publicBooking()
	w = s.do(t, http.MethodPost, "/api/bookings", staff, body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "ticket_booked without a ticket url")

	body["ticket_pdf_url"] = "https://files.example/ticket.pdf"
	w = s.do(t, http.MethodPost, "/api/bookings", staff, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Priya Shah", created["owner_name"])
	assert.Equal(t, "ticket_booked", created["status"])
}

func TestPublicFormIsRateLimited(t *testing.T) {
	s := newTestServer(t, 1)

	w := s.do(t, http.MethodPost, "/api/public/bookings", "", publicBooking())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/public/bookings", "", publicBooking())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode(t, w)["code"])
}

func TestEmptyBodyIsRejected(t *testing.T) {
	s := newTestServer(t, 10)
	w := s.do(t, http.MethodPost, "/api/public/bookings", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["code"])
}
