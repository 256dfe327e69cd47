package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"travelagency/internal/domain"
	"travelagency/internal/domain/models"
)

func TestDocsServiceGenerateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := bookingInput(1500, 500)
	in.PassengerList = []models.PassengerInput{{Name: "Asha", Age: 30, Gender: "female"}}
	created, err := f.bookings.Create(ctx, f.staff, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	docs := DocsService{Query: f.query, Now: f.clock.Now}
	pdf, filename, err := docs.GenerateInvoice(ctx, created.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", pdf[:8])
	}
	if !strings.HasPrefix(filename, "INVOICE_") || !strings.HasSuffix(filename, "_Asha.pdf") {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestDocsServiceMissingBooking(t *testing.T) {
	f := newFixture(t)
	docs := DocsService{Query: f.query, Now: f.clock.Now}
	if _, _, err := docs.GenerateInvoice(context.Background(), 99); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSafeFilenamePart(t *testing.T) {
	cases := map[string]string{
		"":                     "NA",
		"  Asha Rao ":          "Asha_Rao",
		"a/b\\c:d":             "a_b_c_d",
		strings.Repeat("x", 50): strings.Repeat("x", 40),
	}
	for in, want := range cases {
		if got := safeFilenamePart(in); got != want {
			t.Fatalf("safeFilenamePart(%q)=%q want %q", in, got, want)
		}
	}
}
