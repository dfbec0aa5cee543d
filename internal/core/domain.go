package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2

	Deposit    TransactionType = 1
	Withdrawal TransactionType = 2
)

type (
	Gender int

	TransactionType int

	// Date is a day-precision calendar date.
	Date struct {
		time.Time
	}

	Deceased struct {
		ID          int64
		Name        string
		NationalID  string
		DateOfDeath Date
	}

	Guardian struct {
		ID              int64
		Name            string
		NationalID      string
		Phone           string
		Relationship    int
		AppointmentDate Date
	}

	Orphan struct {
		ID          int64
		Name        string
		NationalID  string
		DateOfBirth Date
		Gender      Gender
		DeceasedID  int64 // 0 when not linked to a deceased record
		CreatedAt   time.Time
	}

	// GuardianLink ties an orphan to a guardian over a validity interval.
	// At most one active link per orphan should be primary.
	GuardianLink struct {
		ID         int64
		OrphanID   int64
		GuardianID int64
		IsPrimary  bool
		StartDate  Date
		EndDate    Date
	}

	Currency struct {
		ID   int64
		Code string
		Name string
	}

	// Balance is the materialized running total for one (orphan, currency)
	// pair: the sum of signed effects of all existing transactions.
	Balance struct {
		OrphanID   int64
		CurrencyID int64
		Currency   string
		Amount     decimal.Decimal
		UpdatedAt  time.Time
	}

	Transaction struct {
		ID         int64
		OrphanID   int64
		CurrencyID int64
		Currency   string
		Amount     decimal.Decimal
		Type       TransactionType
		Date       Date
		Note       string
	}
)

// Effect returns the signed contribution of a transaction to its balance:
// +amount for a deposit, -amount for a withdrawal.
func (t TransactionType) Effect(amount decimal.Decimal) decimal.Decimal {
	if t == Withdrawal {
		return amount.Neg()
	}
	return amount
}

func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

func (t TransactionType) String() string {
	switch t {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// ParseTransactionType maps the wire spelling to the stored enum.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "deposit":
		return Deposit, nil
	case "withdrawal":
		return Withdrawal, nil
	default:
		return 0, Validationf("unknown transaction type %q", s)
	}
}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to day precision.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == `""` || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(`"2006-01-02"`, s)
	if err != nil {
		return Validationf("bad date %s: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TransactionType) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AgeAt returns full years elapsed between born and at.
func AgeAt(born Date, at Date) int {
	age := at.Year() - born.Year()
	if int(at.Month()) < int(born.Month()) ||
		(at.Month() == born.Month() && at.Day() < born.Day()) {
		age--
	}
	return age
}

// Age returns the age in full years as of today.
func Age(born Date) int {
	return AgeAt(born, Today())
}
