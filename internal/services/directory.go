package services

import (
	"context"

	"aytam/internal/core"
	"aytam/internal/storage"
)

// Directory serves the read side: detached snapshots for listings, detail
// views and national-id search. No method holds a session open past its
// return.
type Directory struct {
	repo *storage.SQLiteRepository
}

func NewDirectory(repo *storage.SQLiteRepository) *Directory {
	return &Directory{repo: repo}
}

type (
	// OrphanDetail is the full read model for one orphan: the record, its
	// family context, balances and history newest-first.
	OrphanDetail struct {
		Orphan       core.Orphan        `json:"orphan"`
		Deceased     *core.Deceased     `json:"deceased,omitempty"`
		Guardian     *core.Guardian     `json:"guardian,omitempty"`
		Balances     []core.Balance     `json:"balances"`
		Transactions []core.Transaction `json:"transactions"`
	}

	DeceasedDetail struct {
		Deceased core.Deceased  `json:"deceased"`
		Guardian *core.Guardian `json:"guardian,omitempty"`
		Orphans  []core.Orphan  `json:"orphans"`
	}

	GuardianDetail struct {
		Guardian core.Guardian `json:"guardian"`
		Orphans  []core.Orphan `json:"orphans"`
	}

	SearchResult struct {
		Orphan   *core.Orphan   `json:"orphan,omitempty"`
		Guardian *core.Guardian `json:"guardian,omitempty"`
		Deceased *core.Deceased `json:"deceased,omitempty"`
	}
)

func (d *Directory) ListDeceased(ctx context.Context) ([]storage.DeceasedWithCount, error) {
	out, err := d.repo.Queries().ListDeceasedWithOrphanCount(ctx)
	if err != nil {
		return nil, core.Persistencef("list deceaseds", err)
	}
	return out, nil
}

func (d *Directory) ListGuardians(ctx context.Context) ([]storage.GuardianWithCount, error) {
	out, err := d.repo.Queries().ListGuardiansWithOrphanCount(ctx)
	if err != nil {
		return nil, core.Persistencef("list guardians", err)
	}
	return out, nil
}

func (d *Directory) ListOrphans(ctx context.Context) ([]core.Orphan, error) {
	out, err := d.repo.Queries().ListOrphans(ctx)
	if err != nil {
		return nil, core.Persistencef("list orphans", err)
	}
	return out, nil
}

func (d *Directory) Currencies(ctx context.Context) ([]core.Currency, error) {
	out, err := d.repo.Queries().ListCurrencies(ctx)
	if err != nil {
		return nil, core.Persistencef("list currencies", err)
	}
	return out, nil
}

func (d *Directory) OrphanBalances(ctx context.Context, orphanID int64) ([]core.Balance, error) {
	out, err := d.repo.Queries().ListBalancesByOrphan(ctx, orphanID)
	if err != nil {
		return nil, core.Persistencef("list balances", err)
	}
	return out, nil
}

func (d *Directory) OrphanTransactions(ctx context.Context, orphanID int64) ([]core.Transaction, error) {
	out, err := d.repo.Queries().ListTransactionsByOrphan(ctx, orphanID)
	if err != nil {
		return nil, core.Persistencef("list transactions", err)
	}
	return out, nil
}

// OrphanDetail loads one orphan with its deceased record, primary guardian,
// balances and transactions.
func (d *Directory) OrphanDetail(ctx context.Context, orphanID int64) (OrphanDetail, error) {
	var detail OrphanDetail
	q := d.repo.Queries()

	orphan, err := q.GetOrphan(ctx, orphanID)
	if storage.IsNoRows(err) {
		return detail, core.NotFoundf("orphan %d", orphanID)
	}
	if err != nil {
		return detail, core.Persistencef("load orphan", err)
	}
	detail.Orphan = orphan

	if orphan.DeceasedID != 0 {
		deceased, err := q.GetDeceased(ctx, orphan.DeceasedID)
		if err != nil && !storage.IsNoRows(err) {
			return detail, core.Persistencef("load deceased", err)
		}
		if err == nil {
			detail.Deceased = &deceased
		}
	}

	if guardian, err := d.primaryGuardian(ctx, orphanID); err != nil {
		return detail, err
	} else {
		detail.Guardian = guardian
	}

	if detail.Balances, err = d.OrphanBalances(ctx, orphanID); err != nil {
		return detail, err
	}
	if detail.Transactions, err = d.OrphanTransactions(ctx, orphanID); err != nil {
		return detail, err
	}
	return detail, nil
}

// DeceasedDetail loads a deceased with its orphans and the family's primary
// guardian (resolved from the first orphan).
func (d *Directory) DeceasedDetail(ctx context.Context, deceasedID int64) (DeceasedDetail, error) {
	var detail DeceasedDetail
	q := d.repo.Queries()

	deceased, err := q.GetDeceased(ctx, deceasedID)
	if storage.IsNoRows(err) {
		return detail, core.NotFoundf("deceased %d", deceasedID)
	}
	if err != nil {
		return detail, core.Persistencef("load deceased", err)
	}
	detail.Deceased = deceased

	if detail.Orphans, err = q.ListOrphansByDeceased(ctx, deceasedID); err != nil {
		return detail, core.Persistencef("list orphans", err)
	}

	if len(detail.Orphans) > 0 {
		if guardian, err := d.primaryGuardian(ctx, detail.Orphans[0].ID); err != nil {
			return detail, err
		} else {
			detail.Guardian = guardian
		}
	}
	return detail, nil
}

// GuardianDetail loads a guardian with every orphan linked to it.
func (d *Directory) GuardianDetail(ctx context.Context, guardianID int64) (GuardianDetail, error) {
	var detail GuardianDetail
	q := d.repo.Queries()

	guardian, err := q.GetGuardian(ctx, guardianID)
	if storage.IsNoRows(err) {
		return detail, core.NotFoundf("guardian %d", guardianID)
	}
	if err != nil {
		return detail, core.Persistencef("load guardian", err)
	}
	detail.Guardian = guardian

	if detail.Orphans, err = q.ListOrphansByGuardian(ctx, guardianID); err != nil {
		return detail, core.Persistencef("list guardian orphans", err)
	}
	return detail, nil
}

// SearchByNationalID looks the id up across orphans, guardians and
// deceaseds. Absent matches are nil, not errors.
func (d *Directory) SearchByNationalID(ctx context.Context, nationalID string) (SearchResult, error) {
	var result SearchResult
	q := d.repo.Queries()

	if orphan, err := q.GetOrphanByNationalID(ctx, nationalID); err == nil {
		result.Orphan = &orphan
	} else if !storage.IsNoRows(err) {
		return result, core.Persistencef("search orphan", err)
	}

	if guardian, err := q.GetGuardianByNationalIDExcluding(ctx, nationalID, 0); err == nil {
		result.Guardian = &guardian
	} else if !storage.IsNoRows(err) {
		return result, core.Persistencef("search guardian", err)
	}

	if deceased, err := q.GetDeceasedByNationalID(ctx, nationalID); err == nil {
		result.Deceased = &deceased
	} else if !storage.IsNoRows(err) {
		return result, core.Persistencef("search deceased", err)
	}

	return result, nil
}

func (d *Directory) primaryGuardian(ctx context.Context, orphanID int64) (*core.Guardian, error) {
	q := d.repo.Queries()
	link, err := q.GetPrimaryLinkForOrphan(ctx, orphanID)
	if storage.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.Persistencef("load primary guardian link", err)
	}
	guardian, err := q.GetGuardian(ctx, link.GuardianID)
	if storage.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, core.Persistencef("load guardian", err)
	}
	return &guardian, nil
}
