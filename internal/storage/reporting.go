package storage

import (
	"context"
	"database/sql"

	"aytam/internal/core"
)

// Read-only aggregate queries feeding dashboards and reports. Date strings
// compare lexicographically against the stored RFC3339 timestamps, so a
// plain YYYY-MM-DD bound works for both column formats.

func (q *Queries) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (q *Queries) CountOrphans(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM orphans`)
}

func (q *Queries) CountGuardians(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM guardians`)
}

func (q *Queries) CountDeceased(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM deceaseds`)
}

// CountOrphansCreatedBetween counts registrations with start <= created_at < end.
func (q *Queries) CountOrphansCreatedBetween(ctx context.Context, start, end core.Date) (int64, error) {
	return q.count(ctx,
		`SELECT COUNT(*) FROM orphans WHERE created_at >= ? AND created_at < ?`,
		start.String(), end.String())
}

// CountMinorsAsOf counts orphans registered before registeredBefore and born
// strictly after bornAfter (i.e. under 18 at the month end the caller
// derived bornAfter from).
func (q *Queries) CountMinorsAsOf(ctx context.Context, registeredBefore, bornAfter core.Date) (int64, error) {
	return q.count(ctx, `
		SELECT COUNT(*) FROM orphans
		WHERE created_at < ?
		  AND date_of_birth IS NOT NULL
		  AND date_of_birth > ?`,
		registeredBefore.String(), bornAfter.String())
}

// CountAdultOrphans counts orphans born on or before the 18-years-back cutoff.
func (q *Queries) CountAdultOrphans(ctx context.Context, cutoff core.Date) (int64, error) {
	return q.count(ctx, `
		SELECT COUNT(*) FROM orphans
		WHERE date_of_birth IS NOT NULL AND date_of_birth <= ?`,
		cutoff.String())
}

func (q *Queries) ListOrphanBirthDates(ctx context.Context) ([]core.Date, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT date_of_birth FROM orphans WHERE date_of_birth IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Date
	for rows.Next() {
		var s sql.NullString
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if d := dateFromDB(s); !d.IsEmpty() {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}
