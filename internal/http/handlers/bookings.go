package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
	"travelagency/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// bookingRequest is the JSON body of create and full update. Amounts accept
// numbers or decimal strings; dates are YYYY-MM-DD.
type bookingRequest struct {
	Service       string                  `json:"service"`
	FromLocation  string                  `json:"from_location"`
	ToLocation    string                  `json:"to_location"`
	TravelDate    string                  `json:"travel_date"`
	BookingDate   string                  `json:"booking_date"`
	Passengers    int                     `json:"passengers"`
	PassengerList []models.PassengerInput `json:"passenger_list"`
	TrainNumber   *string                 `json:"train_number"`
	TrainName     *string                 `json:"train_name"`
	TravelClass   *string                 `json:"travel_class"`
	DepartureTime *string                 `json:"departure_time"`
	ArrivalTime   *string                 `json:"arrival_time"`
	Duration      *string                 `json:"duration"`
	FarePerPerson decimal.NullDecimal     `json:"fare_per_person"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	PaidAmount    decimal.Decimal         `json:"paid_amount"`
	PaymentStatus string                  `json:"payment_status"`
	Status        string                  `json:"status"`
	Notes         string                  `json:"notes"`
	TicketPDFURL  *string                 `json:"ticket_pdf_url"`
}

type createBookingRequest struct {
	bookingRequest
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`
}

type statusRequest struct {
	Status       string  `json:"status"`
	TicketPDFURL *string `json:"ticket_pdf_url"`
	Notes        *string `json:"notes"`
}

type paymentRequest struct {
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
	PaymentStatus string           `json:"payment_status"`
}

func (r bookingRequest) toInput() (models.BookingInput, error) {
	travel, err := utils.ParseOptionalDate(r.TravelDate)
	if err != nil {
		return models.BookingInput{}, domain.ValidationError{Field: "travel_date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	booked, err := utils.ParseOptionalDate(r.BookingDate)
	if err != nil {
		return models.BookingInput{}, domain.ValidationError{Field: "booking_date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	return models.BookingInput{
		Service:       r.Service,
		FromLocation:  r.FromLocation,
		ToLocation:    r.ToLocation,
		TravelDate:    travel,
		BookingDate:   booked,
		Passengers:    r.Passengers,
		PassengerList: r.PassengerList,
		Carrier: models.CarrierInfo{
			TrainNumber:   r.TrainNumber,
			TrainName:     r.TrainName,
			TravelClass:   r.TravelClass,
			DepartureTime: r.DepartureTime,
			ArrivalTime:   r.ArrivalTime,
			Duration:      r.Duration,
			FarePerPerson: r.FarePerPerson,
		},
		TotalAmount:   r.TotalAmount,
		PaidAmount:    r.PaidAmount,
		PaymentStatus: r.PaymentStatus,
		Status:        r.Status,
		Notes:         r.Notes,
		TicketPDFURL:  r.TicketPDFURL,
	}, nil
}

func (r createBookingRequest) toInput() (models.CreateBookingInput, error) {
	in, err := r.bookingRequest.toInput()
	if err != nil {
		return models.CreateBookingInput{}, err
	}
	return models.CreateBookingInput{
		BookingInput:    in,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerEmail:   r.CustomerEmail,
		CustomerAddress: r.CustomerAddress,
	}, nil
}

// CreatePublicBooking handles the customer self-service form. The booking
// lands in the approval queue whatever the body says.
func (h Handlers) CreatePublicBooking(c *gin.Context) {
	h.createBooking(c, domain.Anonymous)
}

// CreateBooking handles staff-entered bookings.
func (h Handlers) CreateBooking(c *gin.Context) {
	h.createBooking(c, actor(c))
}

func (h Handlers) createBooking(c *gin.Context, a domain.Actor) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	view, err := h.Bookings.Create(c.Request.Context(), a, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListBookings supports ?search=&status=&service=&date=today|yesterday|tomorrow|all&user_id=.
func (h Handlers) ListBookings(c *gin.Context) {
	bucket, err := models.ParseDateBucket(c.Query("date"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	f := models.BookingFilter{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		Service:    c.Query("service"),
		DateBucket: bucket,
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || uid <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "user_id must be a positive integer", nil)
			return
		}
		f.OwnerUserID = &uid
	}

	views, err := h.Query.ListBookings(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "count": len(views)})
}

func (h Handlers) GetBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.Query.GetBooking(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Handlers) UpdateBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	view, err := h.Bookings.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Handlers) DeleteBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Bookings.Delete(c.Request.Context(), actor(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted", "id": id})
}

func (h Handlers) SetStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := h.Bookings.SetStatus(c.Request.Context(), actor(c), id, models.StatusChange{
		Status:       req.Status,
		TicketPDFURL: req.TicketPDFURL,
		Notes:        req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h Handlers) UpdatePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	view, err := h.Bookings.UpdatePayment(c.Request.Context(), actor(c), id, models.PaymentUpdate{
		TotalAmount:   req.TotalAmount,
		PaidAmount:    req.PaidAmount,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
