package models

import (
	"strings"
	"time"

	"travelagency/internal/domain"
)

// DateBucket selects bookings by calendar day relative to now.
type DateBucket string

const (
	BucketAll       DateBucket = "all"
	BucketToday     DateBucket = "today"
	BucketYesterday DateBucket = "yesterday"
	BucketTomorrow  DateBucket = "tomorrow"
)

func ParseDateBucket(raw string) (DateBucket, error) {
	switch b := DateBucket(strings.ToLower(strings.TrimSpace(raw))); b {
	case "", BucketAll:
		return BucketAll, nil
	case BucketToday, BucketYesterday, BucketTomorrow:
		return b, nil
	default:
		return "", domain.ValidationError{Field: "date", Msg: "must be today, yesterday, tomorrow or all"}
	}
}

// Day returns local midnight of the bucket's day, or false for "all".
func (b DateBucket) Day(now time.Time) (time.Time, bool) {
	now = now.In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch b {
	case BucketToday:
		return today, true
	case BucketYesterday:
		return today.AddDate(0, 0, -1), true
	case BucketTomorrow:
		return today.AddDate(0, 0, 1), true
	default:
		return time.Time{}, false
	}
}

// Contains reports whether t falls on the bucket's local calendar day.
func (b DateBucket) Contains(now, t time.Time) bool {
	day, ok := b.Day(now)
	if !ok {
		return true
	}
	t = t.In(time.Local)
	return t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day()
}

// BookingFilter narrows the general booking list.
type BookingFilter struct {
	Search      string
	Status      string
	Service     string
	DateBucket  DateBucket
	OwnerUserID *int64
}
