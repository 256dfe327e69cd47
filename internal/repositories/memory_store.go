package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
)

// MemoryStore keeps every table in process memory. It backs STORAGE=memory and
// the service and handler tests; it is the store itself, not a cache in front of MySQL.
type MemoryStore struct {
	mutex sync.RWMutex

	bookings   map[int64]models.Booking
	passengers map[int64][]models.Passenger
	customers  map[int64]models.Customer
	admins     map[int64]domain.StaffCredentials
	staff      map[int64]domain.StaffCredentials

	nextBooking   int64
	nextPassenger int64
	nextCustomer  int64
	// admins and staff share one id sequence so a user_id names one account
	nextAccount   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:   make(map[int64]models.Booking),
		passengers: make(map[int64][]models.Passenger),
		customers:  make(map[int64]models.Customer),
		admins:     make(map[int64]domain.StaffCredentials),
		staff:      make(map[int64]domain.StaffCredentials),
	}
}

func (s *MemoryStore) Create(_ context.Context, c models.Customer, b models.Booking, passengers []models.Passenger) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b.CustomerID = s.customerLocked(c).ID
	s.nextBooking++
	b.ID = s.nextBooking
	b.Status = domain.NormalizeStatus(string(b.Status))
	s.bookings[b.ID] = cloneBooking(b)
	s.setPassengersLocked(b.ID, passengers)
	return b.ID, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (models.BookingRow, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return models.BookingRow{}, domain.NotFoundError{Resource: "booking"}
	}
	return s.rowLocked(b), nil
}

func (s *MemoryStore) Update(_ context.Context, b models.Booking, passengers []models.Passenger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.bookings[b.ID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.CustomerID = existing.CustomerID
	b.UserID = existing.UserID
	b.CreatedAt = existing.CreatedAt
	b.Status = domain.NormalizeStatus(string(b.Status))
	s.bookings[b.ID] = cloneBooking(b)
	if passengers != nil {
		s.setPassengersLocked(b.ID, passengers)
	}
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, status domain.Status, ticketURL *string, notes string, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.Status = domain.NormalizeStatus(string(status))
	b.TicketPDFURL = copyString(ticketURL)
	b.Notes = strings.TrimSpace(notes)
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

func (s *MemoryStore) UpdateLedger(_ context.Context, id int64, l domain.Ledger, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.Ledger = l
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	delete(s.bookings, id)
	delete(s.passengers, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, f models.BookingFilter, now time.Time) ([]models.BookingRow, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var status domain.Status
	if raw := strings.TrimSpace(f.Status); raw != "" {
		status = domain.NormalizeStatus(raw)
	}
	service := strings.ToLower(strings.TrimSpace(f.Service))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := []models.BookingRow{}
	for _, b := range s.bookings {
		st := domain.NormalizeStatus(string(b.Status))
		if st == domain.StatusPendingApproval {
			continue
		}
		if status != "" && st != status {
			continue
		}
		if service != "" && string(b.Service) != service {
			continue
		}
		if search != "" && !matchesSearch(b, search) {
			continue
		}
		if !f.DateBucket.Contains(now, b.EffectiveDate()) {
			continue
		}
		if f.OwnerUserID != nil && b.OwnerUserID() != *f.OwnerUserID {
			continue
		}
		out = append(out, s.rowLocked(b))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListTriage(_ context.Context) ([]models.BookingRow, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := []models.BookingRow{}
	for _, b := range s.bookings {
		if domain.NormalizeStatus(string(b.Status)) != domain.StatusPendingApproval || b.OwnerUserID() > 0 {
			continue
		}
		out = append(out, s.rowLocked(b))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Replace(_ context.Context, bookingID int64, passengers []models.Passenger, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	s.setPassengersLocked(bookingID, passengers)
	b.Passengers = len(passengers)
	b.UpdatedAt = at
	s.bookings[bookingID] = b
	return nil
}

func (s *MemoryStore) ListByBookingID(_ context.Context, bookingID int64) ([]models.Passenger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]models.Passenger{}, s.passengers[bookingID]...), nil
}

func (s *MemoryStore) ListByBookingIDs(_ context.Context, bookingIDs []int64) (map[int64][]models.Passenger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[int64][]models.Passenger, len(bookingIDs))
	for _, id := range bookingIDs {
		if ps, ok := s.passengers[id]; ok {
			out[id] = append([]models.Passenger{}, ps...)
		}
	}
	return out, nil
}

// customerLocked returns the customer owning c.Phone, inserting c when none exists.
func (s *MemoryStore) customerLocked(c models.Customer) models.Customer {
	for _, existing := range s.customers {
		if existing.Phone == c.Phone {
			return existing
		}
	}
	s.nextCustomer++
	c.ID = s.nextCustomer
	s.customers[c.ID] = c
	return c
}

func (s *MemoryStore) FindAdmin(_ context.Context, id int64) (*domain.StaffAccount, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if cred, ok := s.admins[id]; ok {
		acc := cred.Account
		return &acc, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindStaff(_ context.Context, id int64) (*domain.StaffAccount, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if cred, ok := s.staff[id]; ok {
		acc := cred.Account
		return &acc, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindCredentials(_ context.Context, username string) (*domain.StaffCredentials, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	username = strings.TrimSpace(username)
	for _, table := range []map[int64]domain.StaffCredentials{s.admins, s.staff} {
		for _, cred := range table {
			if cred.Account.Username == username {
				c := cred
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateStaff(_ context.Context, acc domain.StaffAccount, passwordHash string) (domain.StaffAccount, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.usernameTakenLocked(acc.Username) {
		return domain.StaffAccount{}, domain.ConflictError{Resource: "staff", Msg: "username already taken"}
	}
	s.nextAccount++
	acc.ID = s.nextAccount
	acc.Role = domain.RoleStaff
	s.staff[acc.ID] = domain.StaffCredentials{Account: acc, PasswordHash: passwordHash}
	return acc, nil
}

// SeedAdmin registers an admin account, used to bootstrap memory mode.
func (s *MemoryStore) SeedAdmin(acc domain.StaffAccount, passwordHash string) domain.StaffAccount {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.seedAdminLocked(acc, passwordHash)
}

// EnsureAdmin seeds the admin unless the username is already registered.
func (s *MemoryStore) EnsureAdmin(_ context.Context, acc domain.StaffAccount, passwordHash string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, a := range s.admins {
		if strings.EqualFold(a.Account.Username, acc.Username) {
			return nil
		}
	}
	if s.usernameTakenLocked(acc.Username) {
		return domain.ConflictError{Resource: "admin", Msg: "username belongs to a staff account"}
	}
	s.seedAdminLocked(acc, passwordHash)
	return nil
}

// usernameTakenLocked reports whether an admin or staff account holds username.
func (s *MemoryStore) usernameTakenLocked(username string) bool {
	for _, table := range []map[int64]domain.StaffCredentials{s.admins, s.staff} {
		for _, cred := range table {
			if strings.EqualFold(cred.Account.Username, username) {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) seedAdminLocked(acc domain.StaffAccount, passwordHash string) domain.StaffAccount {
	s.nextAccount++
	acc.ID = s.nextAccount
	acc.Role = domain.RoleAdmin
	s.admins[acc.ID] = domain.StaffCredentials{Account: acc, PasswordHash: passwordHash}
	return acc
}

func (s *MemoryStore) setPassengersLocked(bookingID int64, passengers []models.Passenger) {
	if len(passengers) == 0 {
		delete(s.passengers, bookingID)
		return
	}
	list := make([]models.Passenger, 0, len(passengers))
	for i, p := range passengers {
		s.nextPassenger++
		p.ID = s.nextPassenger
		p.BookingID = bookingID
		p.Position = i + 1
		list = append(list, p)
	}
	s.passengers[bookingID] = list
}

func (s *MemoryStore) rowLocked(b models.Booking) models.BookingRow {
	row := models.BookingRow{Booking: cloneBooking(b)}
	if c, ok := s.customers[b.CustomerID]; ok {
		row.CustomerName = c.Name
		row.CustomerPhone = c.Phone
		row.CustomerEmail = c.Email
	}
	return row
}

func matchesSearch(b models.Booking, q string) bool {
	return strings.Contains(strings.ToLower(b.FromLocation), q) ||
		strings.Contains(strings.ToLower(b.ToLocation), q) ||
		strings.Contains(strings.ToLower(string(b.Service)), q)
}

func sortNewestFirst(rows []models.BookingRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
}

func cloneBooking(b models.Booking) models.Booking {
	b.UserID = copyInt64(b.UserID)
	b.TravelDate = copyTime(b.TravelDate)
	b.BookingDate = copyTime(b.BookingDate)
	b.TicketPDFURL = copyString(b.TicketPDFURL)
	b.Carrier.TrainNumber = copyString(b.Carrier.TrainNumber)
	b.Carrier.TrainName = copyString(b.Carrier.TrainName)
	b.Carrier.TravelClass = copyString(b.Carrier.TravelClass)
	b.Carrier.DepartureTime = copyString(b.Carrier.DepartureTime)
	b.Carrier.ArrivalTime = copyString(b.Carrier.ArrivalTime)
	b.Carrier.Duration = copyString(b.Carrier.Duration)
	return b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	x := *t
	return &x
}
