package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"aytam/internal/core"
	"aytam/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var fixtureSeq int

// nextNationalID hands out unique nine-digit ids within a test.
func nextNationalID() string {
	fixtureSeq++
	return fmt.Sprintf("%09d", 100000000+fixtureSeq)
}

func deceasedFixture() core.DeceasedInput {
	return core.DeceasedInput{
		Name:        "Mahmoud Odeh",
		NationalID:  nextNationalID(),
		DateOfDeath: core.NewDate(2020, 3, 12),
	}
}

func guardianFixture() core.GuardianInput {
	return core.GuardianInput{
		Name:            "Huda Odeh",
		NationalID:      nextNationalID(),
		Phone:           "0599000000",
		Relationship:    2,
		AppointmentDate: core.NewDate(2020, 4, 1),
	}
}

// yearsAgo returns today's date shifted back by n years.
func yearsAgo(n int) core.Date {
	return core.Date{Time: core.Today().AddDate(-n, 0, 0)}
}

func orphanFixture(born core.Date) core.OrphanInput {
	return core.OrphanInput{
		Name:        "Yousef Odeh",
		NationalID:  nextNationalID(),
		DateOfBirth: born,
		Gender:      core.GenderMale,
	}
}

func depositFixture(currency, amount string) core.TransactionInput {
	return core.TransactionInput{
		Currency: currency,
		Type:     core.Deposit,
		Amount:   decimal.RequireFromString(amount),
		Date:     core.NewDate(2023, 6, 10),
	}
}

func withdrawalFixture(currency, amount string) core.TransactionInput {
	return core.TransactionInput{
		Currency: currency,
		Type:     core.Withdrawal,
		Amount:   decimal.RequireFromString(amount),
		Date:     core.NewDate(2023, 7, 2),
	}
}

// createFamily inserts one deceased with a guardian and the given orphans,
// returning the deceased id and the orphan ids in input order.
func createFamily(t *testing.T, repo *storage.SQLiteRepository, orphans ...core.OrphanInput) (int64, []int64) {
	t.Helper()
	composer := NewComposer(repo)
	deceasedID, err := composer.CreateDeceasedBundle(context.Background(), deceasedFixture(), guardianFixture(), orphans)
	if err != nil {
		t.Fatalf("create bundle: %v", err)
	}

	stored, err := repo.Queries().ListOrphansByDeceased(context.Background(), deceasedID)
	if err != nil {
		t.Fatalf("list orphans: %v", err)
	}
	byNID := make(map[string]int64, len(stored))
	for _, o := range stored {
		byNID[o.NationalID] = o.ID
	}
	ids := make([]int64, 0, len(orphans))
	for _, in := range orphans {
		id, ok := byNID[in.NationalID]
		if !ok {
			t.Fatalf("orphan %s not stored", in.NationalID)
		}
		ids = append(ids, id)
	}
	return deceasedID, ids
}

// balanceOf reads one materialized balance; missing rows count as zero.
func balanceOf(t *testing.T, repo *storage.SQLiteRepository, orphanID int64, currency string) decimal.Decimal {
	t.Helper()
	balances, err := repo.Queries().ListBalancesByOrphan(context.Background(), orphanID)
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}
	for _, b := range balances {
		if b.Currency == currency {
			return b.Amount
		}
	}
	return decimal.Zero
}

// assertLedgerConsistent checks the core invariant: every balance row equals
// the sum of signed effects of the orphan's stored transactions.
func assertLedgerConsistent(t *testing.T, repo *storage.SQLiteRepository, orphanID int64) {
	t.Helper()
	q := repo.Queries()
	balances, err := q.ListBalancesByOrphan(context.Background(), orphanID)
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}
	for _, b := range balances {
		sum, err := q.SumTransactionEffects(context.Background(), orphanID, b.CurrencyID)
		if err != nil {
			t.Fatalf("sum effects: %v", err)
		}
		if !b.Amount.Equal(sum) {
			t.Errorf("balance %s for orphan %d is %s, transactions sum to %s",
				b.Currency, orphanID, b.Amount, sum)
		}
	}
}
