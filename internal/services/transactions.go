package services

import (
	"context"
	"log/slog"

	"aytam/internal/core"
	"aytam/internal/log"
	"aytam/internal/storage"
)

// TransactionManager drives the per-transaction state machine: create →
// update* → delete. Each transition pairs exactly one transaction-row
// mutation with the matching balance adjustment inside one unit of work.
type TransactionManager struct {
	repo *storage.SQLiteRepository
}

func NewTransactionManager(repo *storage.SQLiteRepository) *TransactionManager {
	return &TransactionManager{repo: repo}
}

// Create inserts a transaction for the orphan and applies its effect to the
// ledger. Returns the new transaction id.
func (m *TransactionManager) Create(ctx context.Context, orphanID int64, in core.TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := m.repo.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		id, err = createTransactionTx(ctx, q, orphanID, in)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, id,
		log.FieldOrphanID, orphanID,
		log.FieldCurrency, in.Currency,
		log.FieldTransactionType, in.Type.String(),
		log.FieldAmount, in.Amount.String())
	return id, nil
}

// Update overwrites a stored transaction and reconciles the ledger. When the
// currency stays put a single net delta is applied; when it changes, the old
// effect is reversed on the old currency's balance and the new effect
// applied to the new one, touching two independent balance rows.
func (m *TransactionManager) Update(ctx context.Context, transactionID int64, in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	err := m.repo.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetTransaction(ctx, transactionID)
		if storage.IsNoRows(err) {
			return core.NotFoundf("transaction %d", transactionID)
		}
		if err != nil {
			return core.Persistencef("load transaction", err)
		}
		return updateTransactionTx(ctx, q, existing, in)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, transactionID)
	return nil
}

// Delete removes a transaction, reversing its effect on the balance first.
func (m *TransactionManager) Delete(ctx context.Context, transactionID int64) error {
	err := m.repo.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetTransaction(ctx, transactionID)
		if storage.IsNoRows(err) {
			return core.NotFoundf("transaction %d", transactionID)
		}
		if err != nil {
			return core.Persistencef("load transaction", err)
		}
		return deleteTransactionTx(ctx, q, existing)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, transactionID)
	return nil
}

// Shared transition primitives. They assume q is bound to an open
// transaction; the composer reuses them so a reconciliation batch runs as
// one unit of work.

func resolveCurrency(ctx context.Context, q *storage.Queries, name string) (core.Currency, error) {
	cur, err := q.GetCurrencyByName(ctx, name)
	if storage.IsNoRows(err) {
		return cur, core.NotFoundf("currency %q", name)
	}
	if err != nil {
		return cur, core.Persistencef("resolve currency", err)
	}
	return cur, nil
}

func createTransactionTx(ctx context.Context, q *storage.Queries, orphanID int64, in core.TransactionInput) (int64, error) {
	cur, err := resolveCurrency(ctx, q, in.Currency)
	if err != nil {
		return 0, err
	}

	id, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		OrphanID:   orphanID,
		CurrencyID: cur.ID,
		Amount:     in.Amount,
		Type:       in.Type,
		Date:       in.Date,
		Note:       in.Note,
	})
	if err != nil {
		return 0, core.Persistencef("insert transaction", err)
	}

	if err := ApplyBalanceDelta(ctx, q, orphanID, cur.ID, in.Effect()); err != nil {
		return 0, err
	}
	return id, nil
}

func updateTransactionTx(ctx context.Context, q *storage.Queries, existing core.Transaction, in core.TransactionInput) error {
	cur, err := resolveCurrency(ctx, q, in.Currency)
	if err != nil {
		return err
	}

	oldEffect := existing.Type.Effect(existing.Amount)
	newEffect := in.Effect()

	if existing.CurrencyID != cur.ID {
		if err := ApplyBalanceDelta(ctx, q, existing.OrphanID, existing.CurrencyID, oldEffect.Neg()); err != nil {
			return err
		}
		if err := ApplyBalanceDelta(ctx, q, existing.OrphanID, cur.ID, newEffect); err != nil {
			return err
		}
	} else {
		if err := ApplyBalanceDelta(ctx, q, existing.OrphanID, cur.ID, newEffect.Sub(oldEffect)); err != nil {
			return err
		}
	}

	if err := q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
		ID:         existing.ID,
		CurrencyID: cur.ID,
		Amount:     in.Amount,
		Type:       in.Type,
		Date:       in.Date,
		Note:       in.Note,
	}); err != nil {
		return core.Persistencef("update transaction", err)
	}
	return nil
}

func deleteTransactionTx(ctx context.Context, q *storage.Queries, existing core.Transaction) error {
	effect := existing.Type.Effect(existing.Amount)
	if err := ApplyBalanceDelta(ctx, q, existing.OrphanID, existing.CurrencyID, effect.Neg()); err != nil {
		return err
	}
	if err := q.DeleteTransaction(ctx, existing.ID); err != nil {
		return core.Persistencef("delete transaction", err)
	}
	return nil
}
