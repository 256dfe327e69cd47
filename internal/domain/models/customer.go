package models

import (
	"regexp"
	"strings"
	"time"

	"travelagency/internal/domain"
)

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// NormalizePhone strips separators and checks the remaining digits.
func NormalizePhone(raw string) (string, error) {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")
	phone := replacer.Replace(strings.TrimSpace(raw))
	if phone == "" {
		return "", domain.ValidationError{Field: "customer_phone", Msg: "required"}
	}
	if !phonePattern.MatchString(phone) {
		return "", domain.ValidationError{Field: "customer_phone", Msg: "must be 10 to 15 digits"}
	}
	return phone, nil
}
