package services

import (
	"context"
	"fmt"
	"time"

	"aytam/internal/core"
	"aytam/internal/storage"
)

// Reporting is the read-only aggregation feed behind dashboards and
// reports. It never mutates.
type Reporting struct {
	repo *storage.SQLiteRepository
}

func NewReporting(repo *storage.SQLiteRepository) *Reporting {
	return &Reporting{repo: repo}
}

type (
	// MonthCount is one point of a monthly series, labeled YYYY-MM.
	MonthCount struct {
		Month string `json:"month"`
		Count int64  `json:"count"`
	}

	AgeBucket struct {
		Min int
		Max int
	}

	BucketCount struct {
		Label string `json:"label"`
		Count int64  `json:"count"`
	}

	SummaryCounts struct {
		Orphans       int64 `json:"orphans"`
		OrphansOver18 int64 `json:"orphans_over_18"`
		Guardians     int64 `json:"guardians"`
		Deceased      int64 `json:"deceased"`
	}
)

// DefaultAgeBuckets mirrors the dashboard's standard distribution:
// 0-5, 6-12, 13-17, 18+.
var DefaultAgeBuckets = []AgeBucket{{0, 5}, {6, 12}, {13, 17}, {18, 200}}

// monthWindow returns the first day of the month `offset` months before the
// current one, and the first day of the month after it.
func monthWindow(today core.Date, offset int) (first, next core.Date) {
	total := today.Year()*12 + int(today.Month()) - 1 - offset
	year, month := total/12, total%12+1
	first = core.NewDate(year, month, 1)
	if month == 12 {
		next = core.NewDate(year+1, 1, 1)
	} else {
		next = core.NewDate(year, month+1, 1)
	}
	return first, next
}

func monthLabel(first core.Date) string {
	return fmt.Sprintf("%04d-%02d", first.Year(), int(first.Month()))
}

// OrphansCountByMonth returns registrations per calendar month for the last
// `months` months, oldest first.
func (r *Reporting) OrphansCountByMonth(ctx context.Context, months int) ([]MonthCount, error) {
	if months < 1 {
		return nil, core.Validationf("months must be at least 1")
	}
	q := r.repo.Queries()
	today := core.Today()

	out := make([]MonthCount, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		first, next := monthWindow(today, offset)
		n, err := q.CountOrphansCreatedBetween(ctx, first, next)
		if err != nil {
			return nil, core.Persistencef("count orphans by month", err)
		}
		out = append(out, MonthCount{Month: monthLabel(first), Count: n})
	}
	return out, nil
}

// MinorsCountByMonth returns, per month, how many orphans were under 18 at
// that month's end and already registered by then. Oldest first.
func (r *Reporting) MinorsCountByMonth(ctx context.Context, months int) ([]MonthCount, error) {
	if months < 1 {
		return nil, core.Validationf("months must be at least 1")
	}
	q := r.repo.Queries()
	today := core.Today()

	out := make([]MonthCount, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		first, next := monthWindow(today, offset)
		monthEnd := core.Date{Time: next.AddDate(0, 0, -1)}
		cutoff := adultCutoff(monthEnd)

		n, err := q.CountMinorsAsOf(ctx, next, cutoff)
		if err != nil {
			return nil, core.Persistencef("count minors by month", err)
		}
		out = append(out, MonthCount{Month: monthLabel(first), Count: n})
	}
	return out, nil
}

// AgeDistribution buckets the ages of all orphans as of today. Nil buckets
// means DefaultAgeBuckets. A bucket with Max >= 200 is open-ended and
// labeled "Min+".
func (r *Reporting) AgeDistribution(ctx context.Context, buckets []AgeBucket) ([]BucketCount, error) {
	if buckets == nil {
		buckets = DefaultAgeBuckets
	}

	births, err := r.repo.Queries().ListOrphanBirthDates(ctx)
	if err != nil {
		return nil, core.Persistencef("list birth dates", err)
	}

	ages := make([]int, 0, len(births))
	for _, b := range births {
		ages = append(ages, core.Age(b))
	}

	out := make([]BucketCount, 0, len(buckets))
	for _, bucket := range buckets {
		var n int64
		for _, age := range ages {
			if age >= bucket.Min && age <= bucket.Max {
				n++
			}
		}
		label := fmt.Sprintf("%d-%d", bucket.Min, bucket.Max)
		if bucket.Max >= 200 {
			label = fmt.Sprintf("%d+", bucket.Min)
		}
		out = append(out, BucketCount{Label: label, Count: n})
	}
	return out, nil
}

// SummaryCounts returns the dashboard headline numbers.
func (r *Reporting) SummaryCounts(ctx context.Context) (SummaryCounts, error) {
	var s SummaryCounts
	q := r.repo.Queries()

	var err error
	if s.Orphans, err = q.CountOrphans(ctx); err != nil {
		return s, core.Persistencef("count orphans", err)
	}
	if s.OrphansOver18, err = q.CountAdultOrphans(ctx, adultCutoff(core.Today())); err != nil {
		return s, core.Persistencef("count adult orphans", err)
	}
	if s.Guardians, err = q.CountGuardians(ctx); err != nil {
		return s, core.Persistencef("count guardians", err)
	}
	if s.Deceased, err = q.CountDeceased(ctx); err != nil {
		return s, core.Persistencef("count deceaseds", err)
	}
	return s, nil
}

// AdultOrphans lists orphans aged 18 or more as of today.
func (r *Reporting) AdultOrphans(ctx context.Context) ([]core.Orphan, error) {
	out, err := r.repo.Queries().ListAdultOrphans(ctx, adultCutoff(core.Today()))
	if err != nil {
		return nil, core.Persistencef("list adult orphans", err)
	}
	return out, nil
}

// adultCutoff returns the birth date bound eighteen years before `at`:
// anyone born after it was still a minor on that day. When the exact
// calendar date does not exist eighteen years earlier (Feb 29), the cutoff
// falls back to day 28.
func adultCutoff(at core.Date) core.Date {
	year, month, day := at.Year()-18, int(at.Month()), at.Day()
	if !validCalendarDate(year, month, day) {
		day = 28
	}
	return core.NewDate(year, month, day)
}

func validCalendarDate(year, month, day int) bool {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
