// Package report builds the plain context-data structures consumed by
// renderers and export sinks. A context carries only nested plain data; no
// live entity or open session ever leaves the builder, so rendering and
// export can happen long after the database work finished.
package report

import (
	"time"

	"aytam/internal/core"
	"aytam/internal/services"
)

const (
	displayDate = "2006/01/02"
	displayTime = "2006/01/02 15:04"

	// How much history a report shows: the orphan report keeps the ten most
	// recent transactions, family and guardian reports five per child.
	orphanHistoryLimit = 10
	childHistoryLimit  = 5
)

type (
	Meta struct {
		GeneratedAt  string `json:"generated_at"`
		Organization string `json:"organization"`
	}

	AmountByCurrency struct {
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	}

	TransactionRow struct {
		ID       int64  `json:"id"`
		Type     string `json:"type"`
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Date     string `json:"date"`
		Note     string `json:"note"`
	}

	OrphanInfo struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		BirthDate  string `json:"birth_date"`
		NationalID string `json:"national_id"`
	}

	DeceasedInfo struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		DeathDate  string `json:"death_date"`
		NationalID string `json:"national_id"`
	}

	GuardianInfo struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		NationalID      string `json:"national_id"`
		Phone           string `json:"phone"`
		AppointmentDate string `json:"appointment_date"`
	}

	Child struct {
		OrphanInfo
		Balances           []AmountByCurrency `json:"balances"`
		RecentTransactions []TransactionRow   `json:"recent_transactions"`
	}

	OrphanContext struct {
		Meta
		Orphan       OrphanInfo         `json:"orphan"`
		Balances     []AmountByCurrency `json:"balances"`
		Transactions []TransactionRow   `json:"transactions"`
		Deceased     *DeceasedInfo      `json:"deceased,omitempty"`
		Guardian     *GuardianInfo      `json:"guardian,omitempty"`
	}

	DeceasedContext struct {
		Meta
		Deceased DeceasedInfo  `json:"deceased"`
		Guardian *GuardianInfo `json:"guardian,omitempty"`
		Children []Child       `json:"children"`
	}

	GuardianContext struct {
		Meta
		Guardian GuardianInfo `json:"guardian"`
		Children []Child      `json:"children"`
	}

	MonthlyMinorsContext struct {
		Meta
		Months int                   `json:"months"`
		Data   []services.MonthCount `json:"data"`
	}
)

func formatDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(displayDate)
}

func newMeta(organization string) Meta {
	return Meta{
		GeneratedAt:  time.Now().Format(displayTime),
		Organization: organization,
	}
}

func orphanInfo(o core.Orphan) OrphanInfo {
	return OrphanInfo{
		ID:         o.ID,
		Name:       o.Name,
		BirthDate:  formatDate(o.DateOfBirth),
		NationalID: o.NationalID,
	}
}

func deceasedInfo(d core.Deceased) DeceasedInfo {
	return DeceasedInfo{
		ID:         d.ID,
		Name:       d.Name,
		DeathDate:  formatDate(d.DateOfDeath),
		NationalID: d.NationalID,
	}
}

func guardianInfo(g core.Guardian) GuardianInfo {
	return GuardianInfo{
		ID:              g.ID,
		Name:            g.Name,
		NationalID:      g.NationalID,
		Phone:           g.Phone,
		AppointmentDate: formatDate(g.AppointmentDate),
	}
}

func balanceAmounts(balances []core.Balance) []AmountByCurrency {
	out := make([]AmountByCurrency, 0, len(balances))
	for _, b := range balances {
		out = append(out, AmountByCurrency{
			Currency: b.Currency,
			Amount:   core.FormatAmount(b.Amount),
		})
	}
	return out
}

func transactionRows(txs []core.Transaction, limit int) []TransactionRow {
	if len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		out = append(out, TransactionRow{
			ID:       t.ID,
			Type:     t.Type.String(),
			Amount:   core.FormatAmount(t.Amount),
			Currency: t.Currency,
			Date:     formatDate(t.Date),
			Note:     t.Note,
		})
	}
	return out
}
