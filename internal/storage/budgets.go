package storage

import (
	"context"
	"fmt"

	"finbook/internal/core"

	"github.com/google/uuid"
)

// UpsertBudget replaces the cap for one category and month; budgets have no
// history, the latest value wins.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?
		 WHERE user_id = ? AND category = ? AND year = ? AND month = ?`,
		b.Amount.Cents, b.UserID.String(), b.Category, b.Year, b.Month)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, amount_cents, year, month)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID.String(), b.Category, b.Amount.Cents, b.Year, b.Month)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, owners []uuid.UUID, year, month int) ([]core.Budget, error) {
	filter, args := ownerFilter(owners)
	args = append(args, year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_cents, year, month FROM budgets
		 WHERE user_id IN `+filter+` AND year = ? AND month = ?
		 ORDER BY category`, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		var id, user string
		if err := rows.Scan(&id, &user, &b.Category, &b.Amount.Cents, &b.Year, &b.Month); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse budget id: %w", err)
		}
		if b.UserID, err = uuid.Parse(user); err != nil {
			return nil, fmt.Errorf("parse budget user id: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) InsertAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, balance_cents)
		 VALUES (?, ?, ?, ?)`,
		a.ID.String(), a.UserID.String(), a.Name, a.Balance.Cents)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, owners []uuid.UUID) ([]core.Account, error) {
	filter, args := ownerFilter(owners)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, balance_cents FROM accounts
		 WHERE user_id IN `+filter+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var id, user string
		if err := rows.Scan(&id, &user, &a.Name, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse account id: %w", err)
		}
		if a.UserID, err = uuid.Parse(user); err != nil {
			return nil, fmt.Errorf("parse account user id: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
