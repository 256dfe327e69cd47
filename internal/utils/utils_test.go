package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func TestComputeTotal(t *testing.T) {
	fare := decimal.NewNullDecimal(decimal.NewFromInt(450))
	if got := ComputeTotal(fare, 3, decimal.Zero); !got.Equal(decimal.NewFromInt(1350)) {
		t.Fatalf("fare total: got %s", got)
	}
	typed := decimal.NewFromInt(1000)
	if got := ComputeTotal(fare, 3, typed); !got.Equal(typed) {
		t.Fatalf("typed total must win, got %s", got)
	}
	if got := ComputeTotal(decimal.NullDecimal{}, 3, decimal.Zero); !got.IsZero() {
		t.Fatalf("no fare: got %s", got)
	}
}

func TestFormatRupees(t *testing.T) {
	cases := map[string]string{
		"0":          "Rs 0.00",
		"999.5":      "Rs 999.50",
		"1500":       "Rs 1,500.00",
		"1234567.89": "Rs 1,234,567.89",
		"-2500":      "-Rs 2,500.00",
	}
	for in, want := range cases {
		if got := FormatRupees(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatRupees(%s)=%q want %q", in, got, want)
		}
	}
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate(" ")
	if err != nil || d != nil {
		t.Fatalf("blank date: %v %v", d, err)
	}
	d, err = ParseOptionalDate("2025-03-10")
	if err != nil || FormatOptionalDate(d, "-") != "2025-03-10" {
		t.Fatalf("date: %v %v", d, err)
	}
	if _, err := ParseOptionalDate("10/03/2025"); err == nil {
		t.Fatalf("expected error for bad layout")
	}
	if FormatOptionalDate(nil, "-") != "-" {
		t.Fatalf("nil date should use fallback")
	}
}

func TestLogEventCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFmt := Logger.Out, Logger.Formatter
	Logger.SetOutput(&buf)
	Logger.SetFormatter(&logrus.JSONFormatter{})
	defer func() {
		Logger.SetOutput(prevOut)
		Logger.SetFormatter(prevFmt)
	}()

	ctx := WithRequestID(context.Background(), " req-1 ")
	LogEvent(ctx, "booking", "create", "booking_id=7")
	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"module":"BOOKING"`, `"action":"create"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %s", out, want)
		}
	}
	if RequestIDFrom(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}

func TestFormatDateTime(t *testing.T) {
	at := time.Date(2025, 3, 10, 14, 5, 9, 0, time.Local)
	if got := FormatDateTime(at); got != "2025-03-10 14:05:09" {
		t.Fatalf("got %q", got)
	}
}
