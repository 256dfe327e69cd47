package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"travelagency/internal/domain/models"
	"travelagency/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking documents as PDF.
type DocsService struct {
	Query QueryService
	Now   utils.Clock
}

// GenerateInvoice renders the invoice of one booking and returns the PDF with
// its download filename.
func (s DocsService) GenerateInvoice(ctx context.Context, bookingID int64) ([]byte, string, error) {
	view, err := s.Query.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	now := utils.SystemClock
	if s.Now != nil {
		now = s.Now
	}
	utils.LogEvent(ctx, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d", bookingID))
	return buildInvoicePDF(view, utils.FormatDateTime(now()))
}

func buildInvoicePDF(v models.BookingView, issuedAt string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice No : "+invoiceNumber(v))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued     : "+issuedAt)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Status     : "+string(v.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Name  : "+safe(v.CustomerName, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Phone : "+safe(v.CustomerPhone, "-"))
	pdf.Ln(7)
	if strings.TrimSpace(v.CustomerEmail) != "" {
		pdf.Cell(0, 7, "Email : "+v.CustomerEmail)
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Journey:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Service     : %s", strings.ToUpper(string(v.Service))),
		fmt.Sprintf("Route       : %s -> %s", safe(v.FromLocation, "-"), safe(v.ToLocation, "-")),
		fmt.Sprintf("Travel date : %s", utils.FormatOptionalDate(v.TravelDate, "-")),
		fmt.Sprintf("Passengers  : %d", v.Passengers),
	}
	if v.Carrier.TrainNumber != nil || v.Carrier.TrainName != nil {
		lines = append(lines, fmt.Sprintf("Carrier     : %s %s",
			safe(utils.Deref(v.Carrier.TrainNumber), ""), safe(utils.Deref(v.Carrier.TrainName), "")))
	}
	if v.Carrier.TravelClass != nil {
		lines = append(lines, "Class       : "+*v.Carrier.TravelClass)
	}
	for _, line := range lines {
		pdf.Cell(0, 6, strings.TrimSpace(line))
		pdf.Ln(6)
	}

	if len(v.PassengerList) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Travellers:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, p := range v.PassengerList {
			pdf.Cell(0, 6, fmt.Sprintf("%s: %s, %d, %s", p.Label(), p.Name, p.Age, p.Gender))
			pdf.Ln(6)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Payment:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	if v.Carrier.FarePerPerson.Valid {
		pdf.Cell(0, 6, "Fare per person : "+utils.FormatRupees(v.Carrier.FarePerPerson.Decimal))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Total           : "+utils.FormatRupees(v.Ledger.Total))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Paid            : "+utils.FormatRupees(v.Ledger.Paid))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Balance due     : "+utils.FormatRupees(v.Ledger.Pending))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Payment status  : "+string(v.Ledger.PaymentStatus))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Booked by "+v.OwnerName+". Please keep this invoice for your records.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("INVOICE_%d_%s.pdf", v.ID, safeFilenamePart(v.CustomerName))
	return buf.Bytes(), filename, nil
}

func invoiceNumber(v models.BookingView) string {
	return fmt.Sprintf("INV-%s-%d", v.CreatedAt.Format("20060102"), v.ID)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
