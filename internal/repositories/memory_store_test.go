package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
)

func seedBooking(t *testing.T, s *MemoryStore, b models.Booking) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), models.Customer{Name: "Asha", Phone: "9876543210"}, b, nil)
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return id
}

func TestMemoryStoreListExcludesPendingApproval(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

	triage := sampleBooking()
	triage.CreatedAt = base
	seedBooking(t, s, triage)

	staffUser := int64(3)
	visible := sampleBooking()
	visible.Status = domain.Status("confirmed")
	visible.UserID = &staffUser
	visible.CreatedAt = base.Add(time.Hour)
	visibleID := seedBooking(t, s, visible)

	rows, err := s.List(ctx, models.BookingFilter{}, base)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != visibleID {
		t.Fatalf("expected only the staff booking, got %+v", rows)
	}
	if rows[0].Status != domain.StatusTicketBooked {
		t.Fatalf("expected stored status normalized, got %q", rows[0].Status)
	}

	triaged, err := s.ListTriage(ctx)
	if err != nil {
		t.Fatalf("ListTriage returned error: %v", err)
	}
	if len(triaged) != 1 || triaged[0].CustomerName != "Asha" {
		t.Fatalf("expected one customer-joined triage row, got %+v", triaged)
	}
}

func TestMemoryStoreDateBucketFallsBackToCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2025, 3, 10, 23, 30, 0, 0, time.Local)
	travel := time.Date(2025, 3, 11, 0, 0, 0, 0, time.Local)

	noDates := sampleBooking()
	noDates.Status = domain.StatusNewBooking
	noDates.CreatedAt = now.Add(-time.Hour)
	todayID := seedBooking(t, s, noDates)

	withTravel := sampleBooking()
	withTravel.Status = domain.StatusNewBooking
	withTravel.TravelDate = &travel
	withTravel.CreatedAt = now
	tomorrowID := seedBooking(t, s, withTravel)

	today, _ := s.List(context.Background(), models.BookingFilter{DateBucket: models.BucketToday}, now)
	if len(today) != 1 || today[0].ID != todayID {
		t.Fatalf("today bucket mismatch: %+v", today)
	}
	tomorrow, _ := s.List(context.Background(), models.BookingFilter{DateBucket: models.BucketTomorrow}, now)
	if len(tomorrow) != 1 || tomorrow[0].ID != tomorrowID {
		t.Fatalf("tomorrow bucket mismatch: %+v", tomorrow)
	}
}

func TestMemoryStoreReplacePassengersLeavesNoLeftovers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := seedBooking(t, s, sampleBooking())

	first := []models.Passenger{{Name: "A", Age: 20, Gender: models.GenderMale}, {Name: "B", Age: 30, Gender: models.GenderFemale}}
	second := []models.Passenger{{Name: "C", Age: 40, Gender: models.GenderOther}}

	if err := s.Replace(ctx, id, first, time.Now()); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := s.Replace(ctx, id, second, time.Now()); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, _ := s.ListByBookingID(ctx, id)
	if len(got) != 1 || got[0].Name != "C" || got[0].Position != 1 {
		t.Fatalf("expected only passenger C, got %+v", got)
	}
	row, _ := s.GetByID(ctx, id)
	if row.Passengers != 1 {
		t.Fatalf("expected passenger count 1, got %d", row.Passengers)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = s.ListByBookingID(ctx, id)
	if len(got) != 0 {
		t.Fatalf("expected passengers deleted with booking, got %+v", got)
	}
}

func TestMemoryStoreEnsureAdminConcurrentSeedsOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.EnsureAdmin(ctx, domain.StaffAccount{Username: "root", FullName: "Root Admin"}, "hash"); err != nil {
				t.Errorf("EnsureAdmin returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if len(s.admins) != 1 {
		t.Fatalf("expected one admin row, got %d", len(s.admins))
	}
}

func TestMemoryStoreUsernamesUniqueAcrossAccountTables(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.SeedAdmin(domain.StaffAccount{Username: "root"}, "hash")

	if _, err := s.CreateStaff(ctx, domain.StaffAccount{Username: "root"}, "hash"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for admin username, got %v", err)
	}
	if _, err := s.CreateStaff(ctx, domain.StaffAccount{Username: "priya"}, "hash"); err != nil {
		t.Fatalf("CreateStaff returned error: %v", err)
	}
	if err := s.EnsureAdmin(ctx, domain.StaffAccount{Username: "priya"}, "hash"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for staff username, got %v", err)
	}
}
