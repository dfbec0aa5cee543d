// Package services implements the ledger-consistency core: the balance
// ledger primitive, the transaction manager, the aggregate composer and the
// reporting feed. Every mutating operation runs inside one storage unit of
// work and either fully commits or fully rolls back.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"aytam/internal/core"
	"aytam/internal/storage"
)

// ApplyBalanceDelta adds a signed amount to the materialized balance of one
// (orphan, currency) pair, creating the row lazily on first use. It never
// commits; q must be bound to the caller's transaction.
//
// The delta is the economic effect the caller computed (+amount for a net
// deposit, -amount for a net withdrawal). Calling twice doubles the effect:
// each economic event must trigger exactly one call.
func ApplyBalanceDelta(ctx context.Context, q *storage.Queries, orphanID, currencyID int64, delta decimal.Decimal) error {
	now := time.Now().UTC()

	bal, err := q.GetBalance(ctx, orphanID, currencyID)
	if storage.IsNoRows(err) {
		if err := q.CreateBalance(ctx, orphanID, currencyID, delta, now); err != nil {
			return core.Persistencef("create balance", err)
		}
		return nil
	}
	if err != nil {
		return core.Persistencef("load balance", err)
	}

	if err := q.UpdateBalance(ctx, orphanID, currencyID, bal.Amount.Add(delta), now); err != nil {
		return core.Persistencef("update balance", err)
	}
	return nil
}

// RepairBalance recomputes one pair's balance from the full transaction
// history and overwrites the materialized row. Only for repairing drift;
// normal operation never recomputes.
func RepairBalance(ctx context.Context, q *storage.Queries, orphanID, currencyID int64) (decimal.Decimal, error) {
	sum, err := q.SumTransactionEffects(ctx, orphanID, currencyID)
	if err != nil {
		return decimal.Zero, core.Persistencef("sum transaction effects", err)
	}

	now := time.Now().UTC()
	_, err = q.GetBalance(ctx, orphanID, currencyID)
	if storage.IsNoRows(err) {
		if err := q.CreateBalance(ctx, orphanID, currencyID, sum, now); err != nil {
			return decimal.Zero, core.Persistencef("create balance", err)
		}
		return sum, nil
	}
	if err != nil {
		return decimal.Zero, core.Persistencef("load balance", err)
	}
	if err := q.UpdateBalance(ctx, orphanID, currencyID, sum, now); err != nil {
		return decimal.Zero, core.Persistencef("update balance", err)
	}
	return sum, nil
}
