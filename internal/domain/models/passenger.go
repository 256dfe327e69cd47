package models

import (
	"fmt"
	"strings"

	"travelagency/internal/domain"
)

const (
	MinPassengers = 1
	MaxPassengers = 10
	MinAge        = 1
	MaxAge        = 120
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Passenger is one traveller on a booking. Position is 1-based display order.
type Passenger struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"booking_id"`
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    Gender `json:"gender"`
}

// Label is the display heading, e.g. "Passenger 2".
func (p Passenger) Label() string {
	return fmt.Sprintf("Passenger %d", p.Position)
}

type PassengerInput struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// NormalizePassengers validates a submitted list and returns it cleaned and positioned.
func NormalizePassengers(in []PassengerInput) ([]Passenger, error) {
	if len(in) < MinPassengers || len(in) > MaxPassengers {
		return nil, domain.ValidationError{
			Field: "passengers",
			Msg:   fmt.Sprintf("must contain between %d and %d entries", MinPassengers, MaxPassengers),
		}
	}

	out := make([]Passenger, 0, len(in))
	for i, p := range in {
		field := fmt.Sprintf("passengers[%d]", i)
		name := strings.Join(strings.Fields(p.Name), " ")
		if name == "" {
			return nil, domain.ValidationError{Field: field + ".name", Msg: "required"}
		}
		if p.Age < MinAge || p.Age > MaxAge {
			return nil, domain.ValidationError{Field: field + ".age", Msg: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)}
		}
		gender := Gender(strings.ToLower(strings.TrimSpace(p.Gender)))
		switch gender {
		case GenderMale, GenderFemale, GenderOther:
		case "":
			return nil, domain.ValidationError{Field: field + ".gender", Msg: "required"}
		default:
			return nil, domain.ValidationError{Field: field + ".gender", Msg: "must be male, female or other"}
		}
		out = append(out, Passenger{
			Position: i + 1,
			Name:     name,
			Age:      p.Age,
			Gender:   gender,
		})
	}
	return out, nil
}
