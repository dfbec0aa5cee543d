package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionTypeEffect(t *testing.T) {
	amount := decimal.RequireFromString("100.50")

	if got := Deposit.Effect(amount); !got.Equal(amount) {
		t.Errorf("Deposit.Effect(%s) = %s, want %s", amount, got, amount)
	}
	if got := Withdrawal.Effect(amount); !got.Equal(amount.Neg()) {
		t.Errorf("Withdrawal.Effect(%s) = %s, want %s", amount, got, amount.Neg())
	}
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input   string
		want    TransactionType
		wantErr bool
	}{
		{"deposit", Deposit, false},
		{"withdrawal", Withdrawal, false},
		{"Deposit", 0, true},
		{"transfer", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTransactionType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTransactionType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTransactionType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransactionTypeJSON(t *testing.T) {
	var v struct {
		Type TransactionType `json:"type"`
	}
	if err := json.Unmarshal([]byte(`{"type":"withdrawal"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Type != Withdrawal {
		t.Errorf("unmarshal type = %v, want %v", v.Type, Withdrawal)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"type":"withdrawal"}` {
		t.Errorf("marshal = %s", out)
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		Date Date `json:"date"`
	}

	if err := json.Unmarshal([]byte(`{"date":"2019-05-17"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Date.String() != "2019-05-17" {
		t.Errorf("date = %s, want 2019-05-17", v.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"17/05/2019"}`), &v); err == nil {
		t.Error("expected error for non ISO date")
	}

	var empty struct {
		Date Date `json:"date"`
	}
	if err := json.Unmarshal([]byte(`{"date":""}`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.Date.IsEmpty() {
		t.Error("empty string should decode to the zero date")
	}
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		born Date
		at   Date
		want int
	}{
		{"birthday passed", NewDate(2010, 3, 10), NewDate(2024, 6, 1), 14},
		{"birthday today", NewDate(2010, 6, 1), NewDate(2024, 6, 1), 14},
		{"birthday upcoming", NewDate(2010, 9, 20), NewDate(2024, 6, 1), 13},
		{"newborn", NewDate(2024, 5, 1), NewDate(2024, 6, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.born, tt.at); got != tt.want {
				t.Errorf("AgeAt(%s, %s) = %d, want %d", tt.born, tt.at, got, tt.want)
			}
		})
	}
}
