package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, user_id, name, principal_cents, interest_rate, tenure_months,
	emi_cents, remaining_balance_cents, start_date, next_due_date, is_active,
	version, created_at, updated_at`

func (r *SQLiteRepository) GetLoan(ctx context.Context, id uuid.UUID) (core.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Loan{}, fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}
	return loan, err
}

func (r *SQLiteRepository) InsertLoan(ctx context.Context, loan core.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.UserID.String(), loan.Name,
		loan.Principal.Cents, loan.InterestRate.String(), loan.TenureMonths,
		loan.EMI.Cents, loan.RemainingBalance.Cents,
		formatDate(loan.StartDate), formatDate(loan.NextDueDate),
		loan.IsActive, loan.Version, loan.CreatedAt, loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateLoan(ctx context.Context, loan core.Loan, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET name = ?, principal_cents = ?, interest_rate = ?,
			tenure_months = ?, emi_cents = ?, remaining_balance_cents = ?,
			next_due_date = ?, is_active = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		loan.Name, loan.Principal.Cents, loan.InterestRate.String(),
		loan.TenureMonths, loan.EMI.Cents, loan.RemainingBalance.Cents,
		formatDate(loan.NextDueDate), loan.IsActive, loan.Version, loan.UpdatedAt,
		loan.ID.String(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return r.checkVersionedWrite(ctx, res, "loans", loan.ID)
}

// ApplyLoanPayment writes the updated loan and the payment row in one
// transaction so a crash cannot leave the balance moved without its payment.
func (r *SQLiteRepository) ApplyLoanPayment(ctx context.Context, loan core.Loan, expectedVersion int64, payment core.LoanPayment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET remaining_balance_cents = ?, next_due_date = ?,
			version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		loan.RemainingBalance.Cents, formatDate(loan.NextDueDate),
		loan.Version, loan.UpdatedAt,
		loan.ID.String(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update loan balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("loan %s: %w", loan.ID, core.ErrVersionConflict)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO loan_payments (id, loan_id, user_id, amount_cents,
			principal_cents, interest_cents, payment_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), payment.LoanID.String(), payment.UserID.String(),
		payment.Amount.Cents, payment.PrincipalComponent.Cents,
		payment.InterestComponent.Cents, formatDate(payment.PaymentDate),
		payment.Status, payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert loan payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListLoans(ctx context.Context, owners []uuid.UUID) ([]core.Loan, error) {
	filter, args := ownerFilter(owners)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans
		 WHERE user_id IN `+filter+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []core.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (r *SQLiteRepository) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]core.LoanPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, loan_id, user_id, amount_cents, principal_cents,
			interest_cents, payment_date, status, created_at
		 FROM loan_payments WHERE loan_id = ?
		 ORDER BY payment_date, created_at`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	defer rows.Close()

	var payments []core.LoanPayment
	for rows.Next() {
		var p core.LoanPayment
		var id, loanRef, user, paymentDate string
		err := rows.Scan(&id, &loanRef, &user, &p.Amount.Cents,
			&p.PrincipalComponent.Cents, &p.InterestComponent.Cents,
			&paymentDate, &p.Status, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan loan payment: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse payment id: %w", err)
		}
		if p.LoanID, err = uuid.Parse(loanRef); err != nil {
			return nil, fmt.Errorf("parse payment loan id: %w", err)
		}
		if p.UserID, err = uuid.Parse(user); err != nil {
			return nil, fmt.Errorf("parse payment user id: %w", err)
		}
		if p.PaymentDate, err = parseDate(paymentDate); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// checkVersionedWrite distinguishes a missing row from a stale version after
// a version-guarded UPDATE touched nothing.
func (r *SQLiteRepository) checkVersionedWrite(ctx context.Context, res sql.Result, table string, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s row: %w", table, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s %s: %w", table, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", table, id, core.ErrVersionConflict)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (core.Loan, error) {
	var loan core.Loan
	var id, user, rate, startDate, dueDate string
	err := row.Scan(&id, &user, &loan.Name, &loan.Principal.Cents, &rate,
		&loan.TenureMonths, &loan.EMI.Cents, &loan.RemainingBalance.Cents,
		&startDate, &dueDate, &loan.IsActive, &loan.Version,
		&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return core.Loan{}, err
	}
	if loan.ID, err = uuid.Parse(id); err != nil {
		return core.Loan{}, fmt.Errorf("parse loan id: %w", err)
	}
	if loan.UserID, err = uuid.Parse(user); err != nil {
		return core.Loan{}, fmt.Errorf("parse loan user id: %w", err)
	}
	if loan.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return core.Loan{}, fmt.Errorf("parse interest rate: %w", err)
	}
	if loan.StartDate, err = parseDate(startDate); err != nil {
		return core.Loan{}, err
	}
	if loan.NextDueDate, err = parseDate(dueDate); err != nil {
		return core.Loan{}, err
	}
	return loan, nil
}
