package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"aytam/internal/core"
)

type (
	CreateTransactionParams struct {
		OrphanID   int64
		CurrencyID int64
		Amount     decimal.Decimal
		Type       core.TransactionType
		Date       core.Date
		Note       string
	}

	UpdateTransactionParams struct {
		ID         int64
		CurrencyID int64
		Amount     decimal.Decimal
		Type       core.TransactionType
		Date       core.Date
		Note       string
	}
)

// ---- orphan balances ----

func (q *Queries) GetBalance(ctx context.Context, orphanID, currencyID int64) (core.Balance, error) {
	var (
		b         core.Balance
		amount    string
		updatedAt string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT orphan_id, currency_id, balance, updated_at
		FROM orphan_balances
		WHERE orphan_id = ? AND currency_id = ?`, orphanID, currencyID,
	).Scan(&b.OrphanID, &b.CurrencyID, &amount, &updatedAt)
	if err != nil {
		return b, err
	}
	b.Amount, err = decimalFromDB(amount)
	b.UpdatedAt = timeFromDB(updatedAt)
	return b, err
}

func (q *Queries) CreateBalance(ctx context.Context, orphanID, currencyID int64, amount decimal.Decimal, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO orphan_balances (orphan_id, currency_id, balance, updated_at)
		 VALUES (?, ?, ?, ?)`,
		orphanID, currencyID, amount.String(), timeToDB(updatedAt))
	return err
}

func (q *Queries) UpdateBalance(ctx context.Context, orphanID, currencyID int64, amount decimal.Decimal, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE orphan_balances SET balance = ?, updated_at = ?
		 WHERE orphan_id = ? AND currency_id = ?`,
		amount.String(), timeToDB(updatedAt), orphanID, currencyID)
	return err
}

func (q *Queries) ListBalancesByOrphan(ctx context.Context, orphanID int64) ([]core.Balance, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT b.orphan_id, b.currency_id, c.name, b.balance, b.updated_at
		FROM orphan_balances b
		JOIN currencies c ON c.id = b.currency_id
		WHERE b.orphan_id = ?
		ORDER BY c.name`, orphanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Balance
	for rows.Next() {
		var (
			b         core.Balance
			amount    string
			updatedAt string
		)
		if err := rows.Scan(&b.OrphanID, &b.CurrencyID, &b.Currency, &amount, &updatedAt); err != nil {
			return nil, err
		}
		if b.Amount, err = decimalFromDB(amount); err != nil {
			return nil, err
		}
		b.UpdatedAt = timeFromDB(updatedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteBalancesByOrphan(ctx context.Context, orphanID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM orphan_balances WHERE orphan_id = ?`, orphanID)
	return err
}

// ---- transactions ----

func (q *Queries) CreateTransaction(ctx context.Context, p CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (orphan_id, currency_id, amount, transaction_type, transaction_date, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.OrphanID, p.CurrencyID, p.Amount.String(), int(p.Type), dateToDB(p.Date), p.Note)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
		date   sql.NullString
		note   sql.NullString
	)
	err := scan(&t.ID, &t.OrphanID, &t.CurrencyID, &t.Currency, &amount, &t.Type, &date, &note)
	if err != nil {
		return t, err
	}
	t.Amount, err = decimalFromDB(amount)
	t.Date = dateFromDB(date)
	t.Note = note.String
	return t, err
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, `
		SELECT t.id, t.orphan_id, t.currency_id, c.name, t.amount, t.transaction_type, t.transaction_date, t.note
		FROM transactions t
		JOIN currencies c ON c.id = t.currency_id
		WHERE t.id = ?`, id).Scan)
}

func (q *Queries) UpdateTransaction(ctx context.Context, p UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET currency_id = ?, amount = ?, transaction_type = ?, transaction_date = ?, note = ?
		WHERE id = ?`,
		p.CurrencyID, p.Amount.String(), int(p.Type), dateToDB(p.Date), p.Note, p.ID)
	return err
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// ListTransactionsByOrphan returns the orphan's history newest-first.
func (q *Queries) ListTransactionsByOrphan(ctx context.Context, orphanID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.orphan_id, t.currency_id, c.name, t.amount, t.transaction_type, t.transaction_date, t.note
		FROM transactions t
		JOIN currencies c ON c.id = t.currency_id
		WHERE t.orphan_id = ?
		ORDER BY t.transaction_date DESC, t.id DESC`, orphanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) ListTransactionIDsByOrphan(ctx context.Context, orphanID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE orphan_id = ?`, orphanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteTransactionsByOrphan(ctx context.Context, orphanID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE orphan_id = ?`, orphanID)
	return err
}

// SumTransactionEffects recomputes the signed-effect sum for one
// (orphan, currency) pair straight from the history. Only used to verify or
// repair balance drift; normal operation adjusts incrementally.
func (q *Queries) SumTransactionEffects(ctx context.Context, orphanID, currencyID int64) (decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT amount, transaction_type FROM transactions
		WHERE orphan_id = ? AND currency_id = ?`, orphanID, currencyID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var (
			amount string
			txType core.TransactionType
		)
		if err := rows.Scan(&amount, &txType); err != nil {
			return decimal.Zero, err
		}
		a, err := decimalFromDB(amount)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(txType.Effect(a))
	}
	return sum, rows.Err()
}
