package report

import (
	"reflect"
	"testing"

	"aytam/internal/services"
)

func sampleMeta() Meta {
	return Meta{GeneratedAt: "2024/06/15 10:00", Organization: "Care Committee"}
}

func TestOrphanContextRows(t *testing.T) {
	ctx := OrphanContext{
		Meta:   sampleMeta(),
		Orphan: OrphanInfo{ID: 1, Name: "Yousef", BirthDate: "2015/01/01", NationalID: "100000001"},
		Balances: []AmountByCurrency{
			{Currency: "NIS", Amount: "150.00"},
		},
		Transactions: []TransactionRow{
			{ID: 9, Type: "deposit", Amount: "150.00", Currency: "NIS", Date: "2024/06/01", Note: "aid"},
		},
		Deceased: &DeceasedInfo{Name: "Mahmoud", NationalID: "100000002", DeathDate: "2020/03/12"},
		Guardian: &GuardianInfo{Name: "Huda", NationalID: "100000003", Phone: "0599000000"},
	}

	if got := ctx.Title(); got != "Orphan 100000001" {
		t.Errorf("title = %q, want Orphan 100000001", got)
	}

	want := [][]string{
		{"Care Committee", "generated", "2024/06/15 10:00"},
		{"orphan", "Yousef", "100000001", "2015/01/01"},
		{"deceased", "Mahmoud", "100000002", "2020/03/12"},
		{"guardian", "Huda", "100000003", "0599000000"},
		{"balance", "NIS", "150.00"},
		{"transaction", "9", "deposit", "150.00", "NIS", "2024/06/01", "aid"},
	}
	if got := ctx.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestOrphanContextRowsWithoutFamily(t *testing.T) {
	ctx := OrphanContext{
		Meta:   sampleMeta(),
		Orphan: OrphanInfo{Name: "Yousef", BirthDate: "2015/01/01", NationalID: "100000001"},
	}

	rows := ctx.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (header and orphan only)", len(rows))
	}
}

func TestDeceasedContextRows(t *testing.T) {
	ctx := DeceasedContext{
		Meta:     sampleMeta(),
		Deceased: DeceasedInfo{Name: "Mahmoud", NationalID: "100000002", DeathDate: "2020/03/12"},
		Children: []Child{
			{
				OrphanInfo: OrphanInfo{Name: "Yousef", NationalID: "100000001", BirthDate: "2015/01/01"},
				Balances:   []AmountByCurrency{{Currency: "USD", Amount: "20.00"}},
			},
		},
	}

	if got := ctx.Title(); got != "Family 100000002" {
		t.Errorf("title = %q, want Family 100000002", got)
	}

	want := [][]string{
		{"Care Committee", "generated", "2024/06/15 10:00"},
		{"deceased", "Mahmoud", "100000002", "2020/03/12"},
		{"orphan", "Yousef", "100000001", "2015/01/01"},
		{"balance", "USD", "20.00"},
	}
	if got := ctx.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestMonthlyMinorsContextRows(t *testing.T) {
	ctx := MonthlyMinorsContext{
		Meta:   sampleMeta(),
		Months: 2,
		Data: []services.MonthCount{
			{Month: "2024-05", Count: 3},
			{Month: "2024-06", Count: 4},
		},
	}

	if got := ctx.Title(); got != "Minors by month" {
		t.Errorf("title = %q", got)
	}

	want := [][]string{
		{"Care Committee", "generated", "2024/06/15 10:00"},
		{"months", "2"},
		{"2024-05", "3"},
		{"2024-06", "4"},
	}
	if got := ctx.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}
