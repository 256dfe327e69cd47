package models

import (
	"strings"
	"time"

	"travelagency/internal/domain"

	"github.com/shopspring/decimal"
)

// Service is the travel mode of a booking.
type Service string

const (
	ServiceTrain  Service = "train"
	ServiceBus    Service = "bus"
	ServiceFlight Service = "flight"
	ServiceCab    Service = "cab"
)

func ParseService(raw string) (Service, error) {
	switch s := Service(strings.ToLower(strings.TrimSpace(raw))); s {
	case ServiceTrain, ServiceBus, ServiceFlight, ServiceCab:
		return s, nil
	default:
		return "", domain.ValidationError{Field: "service", Msg: "must be one of train, bus, flight, cab"}
	}
}

// CarrierInfo is optional operator metadata, mostly filled for trains.
type CarrierInfo struct {
	TrainNumber   *string             `json:"train_number"`
	TrainName     *string             `json:"train_name"`
	TravelClass   *string             `json:"travel_class"`
	DepartureTime *string             `json:"departure_time"`
	ArrivalTime   *string             `json:"arrival_time"`
	Duration      *string             `json:"duration"`
	FarePerPerson decimal.NullDecimal `json:"fare_per_person"`
}

// Booking is one persisted journey record.
// UserID is nil for customer self-service bookings.
type Booking struct {
	ID           int64         `json:"id"`
	CustomerID   int64         `json:"customer_id"`
	UserID       *int64        `json:"user_id"`
	Service      Service       `json:"service"`
	FromLocation string        `json:"from_location"`
	ToLocation   string        `json:"to_location"`
	TravelDate   *time.Time    `json:"travel_date"`
	BookingDate  *time.Time    `json:"booking_date"`
	Passengers   int           `json:"passengers"`
	Carrier      CarrierInfo   `json:"carrier"`
	Ledger       domain.Ledger `json:"ledger"`
	Status       domain.Status `json:"status"`
	Notes        string        `json:"notes"`
	TicketPDFURL *string       `json:"ticket_pdf_url"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// OwnerUserID returns user_id with nil folded to zero.
func (b Booking) OwnerUserID() int64 {
	if b.UserID == nil {
		return 0
	}
	return *b.UserID
}

func (b Booking) TicketURL() string {
	if b.TicketPDFURL == nil {
		return ""
	}
	return *b.TicketPDFURL
}

// EffectiveDate is the day a booking is bucketed under: booking date,
// then travel date, then creation time.
func (b Booking) EffectiveDate() time.Time {
	switch {
	case b.BookingDate != nil:
		return *b.BookingDate
	case b.TravelDate != nil:
		return *b.TravelDate
	default:
		return b.CreatedAt
	}
}

// BookingRow is a booking joined with its customer, as read from storage.
type BookingRow struct {
	Booking
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

// BookingInput carries the trip, ledger and lifecycle fields of a create or full update.
type BookingInput struct {
	Service       string
	FromLocation  string
	ToLocation    string
	TravelDate    *time.Time
	BookingDate   *time.Time
	Passengers    int
	PassengerList []PassengerInput
	Carrier       CarrierInfo
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	PaymentStatus string
	Status        string
	Notes         string
	TicketPDFURL  *string
}

// CreateBookingInput adds the customer identity used for the phone lookup.
type CreateBookingInput struct {
	BookingInput
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
}

// PaymentUpdate changes ledger fields only. Nil amounts keep the stored value.
type PaymentUpdate struct {
	TotalAmount   *decimal.Decimal
	PaidAmount    *decimal.Decimal
	PaymentStatus string
}

// StatusChange is an explicit staff status action.
type StatusChange struct {
	Status       string
	TicketPDFURL *string
	Notes        *string
}

// BookingView is the read projection handed to the presentation layer.
type BookingView struct {
	Booking
	CustomerName      string           `json:"customer_name"`
	CustomerPhone     string           `json:"customer_phone"`
	CustomerEmail     string           `json:"customer_email"`
	OwnerKind         domain.OwnerKind `json:"owner_kind"`
	OwnerName         string           `json:"owner_name"`
	CreatedByCustomer bool             `json:"created_by_customer"`
	StaffID           *int64           `json:"staff_id"`
	StaffUsername     *string          `json:"staff_username"`
	StaffName         *string          `json:"staff_name"`
	PassengerList     []Passenger      `json:"passenger_list"`
}
