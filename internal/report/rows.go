package report

import "strconv"

// Document is what an export sink consumes: a title and flat rows. Every
// context type flattens itself; sinks never see domain entities.
type Document interface {
	Title() string
	Rows() [][]string
}

func (c OrphanContext) Title() string {
	return "Orphan " + c.Orphan.NationalID
}

func (c OrphanContext) Rows() [][]string {
	rows := [][]string{
		{c.Organization, "generated", c.GeneratedAt},
		{"orphan", c.Orphan.Name, c.Orphan.NationalID, c.Orphan.BirthDate},
	}
	if c.Deceased != nil {
		rows = append(rows, []string{"deceased", c.Deceased.Name, c.Deceased.NationalID, c.Deceased.DeathDate})
	}
	if c.Guardian != nil {
		rows = append(rows, []string{"guardian", c.Guardian.Name, c.Guardian.NationalID, c.Guardian.Phone})
	}
	for _, b := range c.Balances {
		rows = append(rows, []string{"balance", b.Currency, b.Amount})
	}
	for _, t := range c.Transactions {
		rows = append(rows, transactionRow(t))
	}
	return rows
}

func (c DeceasedContext) Title() string {
	return "Family " + c.Deceased.NationalID
}

func (c DeceasedContext) Rows() [][]string {
	rows := [][]string{
		{c.Organization, "generated", c.GeneratedAt},
		{"deceased", c.Deceased.Name, c.Deceased.NationalID, c.Deceased.DeathDate},
	}
	if c.Guardian != nil {
		rows = append(rows, []string{"guardian", c.Guardian.Name, c.Guardian.NationalID, c.Guardian.Phone})
	}
	for _, ch := range c.Children {
		rows = append(rows, childRows(ch)...)
	}
	return rows
}

func (c GuardianContext) Title() string {
	return "Guardian " + c.Guardian.NationalID
}

func (c GuardianContext) Rows() [][]string {
	rows := [][]string{
		{c.Organization, "generated", c.GeneratedAt},
		{"guardian", c.Guardian.Name, c.Guardian.NationalID, c.Guardian.Phone},
	}
	for _, ch := range c.Children {
		rows = append(rows, childRows(ch)...)
	}
	return rows
}

func (c MonthlyMinorsContext) Title() string {
	return "Minors by month"
}

func (c MonthlyMinorsContext) Rows() [][]string {
	rows := [][]string{
		{c.Organization, "generated", c.GeneratedAt},
		{"months", strconv.Itoa(c.Months)},
	}
	for _, p := range c.Data {
		rows = append(rows, []string{p.Month, strconv.FormatInt(p.Count, 10)})
	}
	return rows
}

func childRows(ch Child) [][]string {
	rows := [][]string{
		{"orphan", ch.Name, ch.NationalID, ch.BirthDate},
	}
	for _, b := range ch.Balances {
		rows = append(rows, []string{"balance", b.Currency, b.Amount})
	}
	for _, t := range ch.RecentTransactions {
		rows = append(rows, transactionRow(t))
	}
	return rows
}

func transactionRow(t TransactionRow) []string {
	return []string{
		"transaction",
		strconv.FormatInt(t.ID, 10),
		t.Type,
		t.Amount,
		t.Currency,
		t.Date,
		t.Note,
	}
}
