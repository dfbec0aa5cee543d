package services

import (
	"context"
	"testing"
	"time"

	"aytam/internal/core"
	"aytam/internal/storage"
)

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		today     core.Date
		offset    int
		wantFirst string
		wantNext  string
	}{
		{"current month", core.NewDate(2024, 6, 15), 0, "2024-06-01", "2024-07-01"},
		{"previous month", core.NewDate(2024, 6, 15), 1, "2024-05-01", "2024-06-01"},
		{"across new year", core.NewDate(2024, 2, 10), 3, "2023-11-01", "2023-12-01"},
		{"december window", core.NewDate(2024, 12, 31), 0, "2024-12-01", "2025-01-01"},
		{"full year back", core.NewDate(2024, 6, 15), 12, "2023-06-01", "2023-07-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, next := monthWindow(tt.today, tt.offset)
			if first.String() != tt.wantFirst || next.String() != tt.wantNext {
				t.Errorf("monthWindow(%s, %d) = (%s, %s), want (%s, %s)",
					tt.today, tt.offset, first, next, tt.wantFirst, tt.wantNext)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	if got := monthLabel(core.NewDate(2024, 3, 1)); got != "2024-03" {
		t.Errorf("monthLabel = %q, want 2024-03", got)
	}
}

func TestAdultCutoff(t *testing.T) {
	tests := []struct {
		name string
		at   core.Date
		want string
	}{
		{"plain date", core.NewDate(2024, 6, 15), "2006-06-15"},
		{"month end", core.NewDate(2024, 1, 31), "2006-01-31"},
		{"leap day falls back", core.NewDate(2024, 2, 29), "2006-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adultCutoff(tt.at); got.String() != tt.want {
				t.Errorf("adultCutoff(%s) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestSummaryCounts(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	minor := orphanFixture(yearsAgo(10))
	adult := orphanFixture(yearsAgo(30))
	createFamily(t, repo, minor, adult)

	counts, err := reporting.SummaryCounts(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if counts.Orphans != 2 {
		t.Errorf("orphans = %d, want 2", counts.Orphans)
	}
	if counts.OrphansOver18 != 1 {
		t.Errorf("adults = %d, want 1", counts.OrphansOver18)
	}
	if counts.Guardians != 1 {
		t.Errorf("guardians = %d, want 1", counts.Guardians)
	}
	if counts.Deceased != 1 {
		t.Errorf("deceased = %d, want 1", counts.Deceased)
	}
}

func TestOrphansCountByMonth(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	createFamily(t, repo,
		orphanFixture(core.NewDate(2015, 1, 1)),
		orphanFixture(core.NewDate(2017, 2, 2)))

	series, err := reporting.OrphansCountByMonth(context.Background(), 3)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("series length = %d, want 3", len(series))
	}

	// All fixtures register now, so only the newest month counts.
	if series[2].Count != 2 {
		t.Errorf("current month count = %d, want 2", series[2].Count)
	}
	if series[0].Count != 0 || series[1].Count != 0 {
		t.Errorf("older months = %d, %d, want 0, 0", series[0].Count, series[1].Count)
	}

	now := time.Now().UTC()
	wantLabel := monthLabel(core.NewDate(now.Year(), int(now.Month()), 1))
	if series[2].Month != wantLabel {
		t.Errorf("label = %q, want %q", series[2].Month, wantLabel)
	}

	if _, err := reporting.OrphansCountByMonth(context.Background(), 0); err == nil {
		t.Error("expected validation error for zero months")
	}
}

func TestMinorsCountByMonth(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	minor := orphanFixture(yearsAgo(10))
	adult := orphanFixture(yearsAgo(25))
	createFamily(t, repo, minor, adult)

	series, err := reporting.MinorsCountByMonth(context.Background(), 1)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("series length = %d, want 1", len(series))
	}
	if series[0].Count != 1 {
		t.Errorf("minors this month = %d, want 1", series[0].Count)
	}
}

func TestMinorsCountByMonthBackdatedRegistration(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	// One minor registered last month, a second one this month. The older
	// month must see only the first.
	prevMonthFirst, _ := monthWindow(core.Today(), 1)
	lastMonth := prevMonthFirst.Time.Add(time.Hour)
	err := repo.WithTx(context.Background(), func(q *storage.Queries) error {
		if _, err := q.CreateOrphan(context.Background(), storage.CreateOrphanParams{
			Name:        "Yousef Odeh",
			NationalID:  nextNationalID(),
			DateOfBirth: yearsAgo(10),
			Gender:      core.GenderMale,
		}, lastMonth); err != nil {
			return err
		}
		_, err := q.CreateOrphan(context.Background(), storage.CreateOrphanParams{
			Name:        "Omar Odeh",
			NationalID:  nextNationalID(),
			DateOfBirth: yearsAgo(5),
			Gender:      core.GenderMale,
		}, time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("seed orphans: %v", err)
	}

	series, err := reporting.MinorsCountByMonth(context.Background(), 2)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Count != 1 {
		t.Errorf("previous month = %d, want 1", series[0].Count)
	}
	if series[1].Count != 2 {
		t.Errorf("current month = %d, want 2", series[1].Count)
	}
}

func TestAgeDistribution(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	createFamily(t, repo,
		orphanFixture(yearsAgo(3)),
		orphanFixture(yearsAgo(10)),
		orphanFixture(yearsAgo(16)),
		orphanFixture(yearsAgo(25)))

	out, err := reporting.AgeDistribution(context.Background(), nil)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("buckets = %d, want 4", len(out))
	}

	wantLabels := []string{"0-5", "6-12", "13-17", "18+"}
	for i, bucket := range out {
		if bucket.Label != wantLabels[i] {
			t.Errorf("bucket %d label = %q, want %q", i, bucket.Label, wantLabels[i])
		}
		if bucket.Count != 1 {
			t.Errorf("bucket %s count = %d, want 1", bucket.Label, bucket.Count)
		}
	}
}

func TestAdultOrphans(t *testing.T) {
	repo := newTestRepo(t)
	reporting := NewReporting(repo)

	adult := orphanFixture(yearsAgo(19))
	createFamily(t, repo, orphanFixture(yearsAgo(5)), adult)

	out, err := reporting.AdultOrphans(context.Background())
	if err != nil {
		t.Fatalf("adults: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("adults = %d, want 1", len(out))
	}
	if out[0].NationalID != adult.NationalID {
		t.Errorf("adult = %s, want %s", out[0].NationalID, adult.NationalID)
	}
}
