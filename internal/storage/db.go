package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"aytam/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every query can run
// standalone or inside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Column codecs. Dates and timestamps persist as text; amounts persist as
// exact decimal strings.

func dateToDB(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(dateLayout)
}

func dateFromDB(s sql.NullString) core.Date {
	if !s.Valid || s.String == "" {
		return core.Date{}
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

func timeToDB(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func timeFromDB(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decimalFromDB(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
