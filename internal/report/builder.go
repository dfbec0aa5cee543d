package report

import (
	"context"

	"aytam/internal/core"
	"aytam/internal/services"
)

// Builder assembles report contexts from the read services. All database
// reads complete inside the builder call; the returned context is fully
// detached.
type Builder struct {
	directory    *services.Directory
	reporting    *services.Reporting
	organization string
}

func NewBuilder(directory *services.Directory, reporting *services.Reporting, organization string) *Builder {
	return &Builder{
		directory:    directory,
		reporting:    reporting,
		organization: organization,
	}
}

func (b *Builder) Orphan(ctx context.Context, orphanID int64) (OrphanContext, error) {
	var out OrphanContext

	detail, err := b.directory.OrphanDetail(ctx, orphanID)
	if err != nil {
		return out, err
	}

	out.Meta = newMeta(b.organization)
	out.Orphan = orphanInfo(detail.Orphan)
	out.Balances = balanceAmounts(detail.Balances)
	out.Transactions = transactionRows(detail.Transactions, orphanHistoryLimit)
	if detail.Deceased != nil {
		info := deceasedInfo(*detail.Deceased)
		out.Deceased = &info
	}
	if detail.Guardian != nil {
		info := guardianInfo(*detail.Guardian)
		out.Guardian = &info
	}
	return out, nil
}

func (b *Builder) Deceased(ctx context.Context, deceasedID int64) (DeceasedContext, error) {
	var out DeceasedContext

	detail, err := b.directory.DeceasedDetail(ctx, deceasedID)
	if err != nil {
		return out, err
	}

	out.Meta = newMeta(b.organization)
	out.Deceased = deceasedInfo(detail.Deceased)
	if detail.Guardian != nil {
		info := guardianInfo(*detail.Guardian)
		out.Guardian = &info
	}
	if out.Children, err = b.children(ctx, detail.Orphans); err != nil {
		return out, err
	}
	return out, nil
}

func (b *Builder) Guardian(ctx context.Context, guardianID int64) (GuardianContext, error) {
	var out GuardianContext

	detail, err := b.directory.GuardianDetail(ctx, guardianID)
	if err != nil {
		return out, err
	}

	out.Meta = newMeta(b.organization)
	out.Guardian = guardianInfo(detail.Guardian)
	if out.Children, err = b.children(ctx, detail.Orphans); err != nil {
		return out, err
	}
	return out, nil
}

func (b *Builder) MonthlyMinors(ctx context.Context, months int) (MonthlyMinorsContext, error) {
	var out MonthlyMinorsContext

	data, err := b.reporting.MinorsCountByMonth(ctx, months)
	if err != nil {
		return out, err
	}

	out.Meta = newMeta(b.organization)
	out.Months = months
	out.Data = data
	return out, nil
}

func (b *Builder) children(ctx context.Context, orphans []core.Orphan) ([]Child, error) {
	out := make([]Child, 0, len(orphans))
	for _, o := range orphans {
		balances, err := b.directory.OrphanBalances(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		txs, err := b.directory.OrphanTransactions(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Child{
			OrphanInfo:         orphanInfo(o),
			Balances:           balanceAmounts(balances),
			RecentTransactions: transactionRows(txs, childHistoryLimit),
		})
	}
	return out, nil
}
