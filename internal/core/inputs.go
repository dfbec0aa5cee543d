package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Input shapes produced by the boundary layer. They carry already-parsed
// plain data; Validate rejects anything the composers must never see.

type (
	DeceasedInput struct {
		Name        string `json:"name"`
		NationalID  string `json:"national_id"`
		DateOfDeath Date   `json:"date_of_death"`
	}

	GuardianInput struct {
		Name            string `json:"name"`
		NationalID      string `json:"national_id"`
		Phone           string `json:"phone"`
		Relationship    int    `json:"relationship"`
		AppointmentDate Date   `json:"appointment_date"`
	}

	OrphanInput struct {
		ID          int64  `json:"id,omitempty"` // 0 means new
		Name        string `json:"name"`
		NationalID  string `json:"national_id"`
		DateOfBirth Date   `json:"date_of_birth"`
		Gender      Gender `json:"gender"`
	}

	TransactionInput struct {
		ID       int64           `json:"id,omitempty"` // 0 means new
		Currency string          `json:"currency"`
		Type     TransactionType `json:"type"`
		Amount   decimal.Decimal `json:"amount"`
		Date     Date            `json:"date"`
		Note     string          `json:"note,omitempty"`
	}
)

// ValidNationalID reports whether s is exactly nine numeric characters.
func ValidNationalID(s string) bool {
	if len(s) != 9 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func validateDate(field string, d Date) error {
	if d.IsEmpty() {
		return Validationf("%s is required", field)
	}
	if d.After(Today().Time) {
		return Validationf("%s cannot be in the future", field)
	}
	return nil
}

func (in DeceasedInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Validationf("deceased name is required")
	}
	if !ValidNationalID(in.NationalID) {
		return Validationf("deceased national id must be 9 digits")
	}
	return validateDate("date of death", in.DateOfDeath)
}

func (in GuardianInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Validationf("guardian name is required")
	}
	if !ValidNationalID(in.NationalID) {
		return Validationf("guardian national id must be 9 digits")
	}
	if in.Relationship <= 0 {
		return Validationf("guardian relationship is required")
	}
	return validateDate("appointment date", in.AppointmentDate)
}

func (in OrphanInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Validationf("orphan name is required")
	}
	if !ValidNationalID(in.NationalID) {
		return Validationf("orphan national id must be 9 digits")
	}
	if !in.Gender.Valid() {
		return Validationf("orphan gender is required")
	}
	return validateDate("date of birth", in.DateOfBirth)
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Currency) == "" {
		return Validationf("transaction currency is required")
	}
	if !in.Type.Valid() {
		return Validationf("transaction type is required")
	}
	if !in.Amount.IsPositive() {
		return Validationf("transaction amount must be positive")
	}
	if len(in.Note) > 255 {
		return Validationf("note too long (max 255 characters)")
	}
	return validateDate("transaction date", in.Date)
}

// Effect returns the signed balance contribution this input would have once
// stored.
func (in TransactionInput) Effect() decimal.Decimal {
	return in.Type.Effect(in.Amount)
}
