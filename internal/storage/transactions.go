package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"

	"github.com/google/uuid"
)

const transactionColumns = `id, user_id, type, amount_cents, category,
	account_id, date, note, deleted, created_at`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.UserID.String(), string(tx.Type), tx.Amount.Cents,
		tx.Category, nullUUID(tx.AccountID), formatDate(tx.Date), tx.Note,
		tx.Deleted, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SoftDeleteTransaction flips the deleted flag; the row stays for history.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted = 1 WHERE id = ? AND deleted = 0`,
		id.String())
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		id.String())
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return tx, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owners []uuid.UUID, year int) ([]core.Transaction, error) {
	filter, args := ownerFilter(owners)
	args = append(args,
		formatDate(core.NewDate(year, 1, 1)),
		formatDate(core.NewDate(year, 12, 31)))
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id IN `+filter+` AND date BETWEEN ? AND ?
		 ORDER BY date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var id, user, typ, date string
	var account sql.NullString
	err := row.Scan(&id, &user, &typ, &tx.Amount.Cents, &tx.Category,
		&account, &date, &tx.Note, &tx.Deleted, &tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	if tx.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if tx.UserID, err = uuid.Parse(user); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction user id: %w", err)
	}
	if tx.AccountID, err = uuidFromNull(account); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction account id: %w", err)
	}
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}
