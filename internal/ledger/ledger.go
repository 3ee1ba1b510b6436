// Package ledger owns loan and payment records. All mutations to a loan's
// balance flow through ApplyPayment, which serializes per loan and guards
// the read-modify-write with the store's optimistic version column. The
// payment history is append-only.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finbook/internal/amortize"
	"finbook/internal/core"
	"finbook/internal/notify"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxRetries bounds the optimistic-conflict retry loop before the conflict
// is surfaced to the caller.
const maxRetries = 3

// Store is the persistence collaborator. Implementations must make
// ApplyLoanPayment atomic (loan update and payment insert in one
// transaction) and must return core.ErrVersionConflict when the expected
// version no longer matches.
type Store interface {
	GetLoan(ctx context.Context, id uuid.UUID) (core.Loan, error)
	InsertLoan(ctx context.Context, loan core.Loan) error
	UpdateLoan(ctx context.Context, loan core.Loan, expectedVersion int64) error
	ApplyLoanPayment(ctx context.Context, loan core.Loan, expectedVersion int64, payment core.LoanPayment) error
	ListLoans(ctx context.Context, owners []uuid.UUID) ([]core.Loan, error)
	ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]core.LoanPayment, error)
}

// Ledger applies payments and manages loan lifecycle.
type Ledger struct {
	store    Store
	notifier notify.Notifier

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func New(store Store, notifier notify.Notifier) *Ledger {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Ledger{
		store:    store,
		notifier: notifier,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// loanLock returns the mutex serializing mutations for one loan id.
func (l *Ledger) loanLock(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[id] = lk
	}
	return lk
}

// CreateLoanParams are the caller-supplied fields for a new loan.
type CreateLoanParams struct {
	UserID       uuid.UUID
	Name         string
	Principal    core.Money
	InterestRate decimal.Decimal
	TenureMonths int
	StartDate    core.Date
}

// CreateLoan derives the EMI, opens the balance at the full principal and
// sets the first due date one calendar month after the start date.
func (l *Ledger) CreateLoan(ctx context.Context, p CreateLoanParams) (core.Loan, error) {
	now := time.Now()
	loan := core.Loan{
		ID:               uuid.New(),
		UserID:           p.UserID,
		Name:             p.Name,
		Principal:        p.Principal,
		InterestRate:     p.InterestRate,
		TenureMonths:     p.TenureMonths,
		RemainingBalance: p.Principal,
		StartDate:        p.StartDate,
		IsActive:         true,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := loan.Validate(); err != nil {
		return core.Loan{}, err
	}

	emi, err := amortize.EMI(p.Principal, p.InterestRate, p.TenureMonths)
	if err != nil {
		return core.Loan{}, err
	}
	loan.EMI = emi
	loan.NextDueDate = p.StartDate.AddMonths(1)

	if err := l.store.InsertLoan(ctx, loan); err != nil {
		return core.Loan{}, fmt.Errorf("insert loan: %w", err)
	}

	slog.InfoContext(ctx, "Loan created",
		"loan_id", loan.ID,
		"principal_cents", loan.Principal.Cents,
		"emi_cents", loan.EMI.Cents,
		"tenure_months", loan.TenureMonths)

	return loan, nil
}

// ApplyPayment splits the payment against the loan's current balance,
// appends the payment record and advances the due date, all under the
// per-loan lock. A conflicting concurrent write re-reads and retries up to
// maxRetries times. The notification afterwards is best-effort.
func (l *Ledger) ApplyPayment(ctx context.Context, loanID uuid.UUID, amount core.Money, paymentDate core.Date) (core.LoanPayment, error) {
	if err := amount.Validate(); err != nil {
		return core.LoanPayment{}, err
	}
	if err := paymentDate.Validate(); err != nil {
		return core.LoanPayment{}, err
	}

	lk := l.loanLock(loanID)
	lk.Lock()
	defer lk.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		loan, err := l.store.GetLoan(ctx, loanID)
		if err != nil {
			return core.LoanPayment{}, err
		}
		if !loan.IsActive {
			return core.LoanPayment{}, fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
		}
		if loan.PaidOff() {
			return core.LoanPayment{}, core.ErrLoanPaidOff
		}

		principal, interest, err := amortize.Split(loan.RemainingBalance, loan.InterestRate, amount)
		if err != nil {
			return core.LoanPayment{}, err
		}

		newBalance := loan.RemainingBalance.Sub(principal)
		if newBalance.Cents < 0 {
			newBalance = core.Money{}
		}

		payment := core.LoanPayment{
			ID:                 uuid.New(),
			LoanID:             loan.ID,
			UserID:             loan.UserID,
			Amount:             amount,
			PrincipalComponent: principal,
			InterestComponent:  interest,
			PaymentDate:        paymentDate,
			Status:             core.PaymentCompleted,
			CreatedAt:          time.Now(),
		}

		expected := loan.Version
		loan.RemainingBalance = newBalance
		loan.NextDueDate = loan.NextDueDate.AddMonths(1)
		loan.Version++
		loan.UpdatedAt = time.Now()

		err = l.store.ApplyLoanPayment(ctx, loan, expected, payment)
		if errors.Is(err, core.ErrVersionConflict) {
			lastErr = err
			slog.WarnContext(ctx, "Concurrent loan update, retrying payment",
				"loan_id", loanID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return core.LoanPayment{}, fmt.Errorf("apply payment: %w", err)
		}

		l.notifyPayment(ctx, loan, payment)
		return payment, nil
	}

	return core.LoanPayment{}, fmt.Errorf("apply payment to loan %s: %w", loanID, lastErr)
}

// notifyPayment emits post-commit events. Failures are logged and swallowed:
// the ledger mutation is already durable and must not be rolled back over a
// notification problem.
func (l *Ledger) notifyPayment(ctx context.Context, loan core.Loan, payment core.LoanPayment) {
	event, err := notify.NewEvent(notify.KindPaymentRecorded, map[string]any{
		"loan_id":     loan.ID,
		"payment_id":  payment.ID,
		"amount":      payment.Amount.String(),
		"principal":   payment.PrincipalComponent.String(),
		"interest":    payment.InterestComponent.String(),
		"new_balance": loan.RemainingBalance.String(),
	})
	if err == nil {
		err = l.notifier.Notify(ctx, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment notification",
			"loan_id", loan.ID,
			"payment_id", payment.ID,
			"error", err)
	}

	if !loan.PaidOff() {
		return
	}
	event, err = notify.NewEvent(notify.KindLoanPaidOff, map[string]any{
		"loan_id": loan.ID,
		"name":    loan.Name,
	})
	if err == nil {
		err = l.notifier.Notify(ctx, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish paid-off notification",
			"loan_id", loan.ID,
			"error", err)
	}
}

// UpdateLoanParams is a partial patch; nil fields are left untouched.
// Changing principal, rate or tenure recomputes the EMI.
type UpdateLoanParams struct {
	Name         *string
	Principal    *core.Money
	InterestRate *decimal.Decimal
	TenureMonths *int
}

func (l *Ledger) UpdateLoan(ctx context.Context, loanID uuid.UUID, p UpdateLoanParams) (core.Loan, error) {
	lk := l.loanLock(loanID)
	lk.Lock()
	defer lk.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		loan, err := l.store.GetLoan(ctx, loanID)
		if err != nil {
			return core.Loan{}, err
		}
		if !loan.IsActive {
			return core.Loan{}, fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
		}

		recompute := false
		if p.Name != nil {
			loan.Name = *p.Name
		}
		if p.Principal != nil {
			loan.Principal = *p.Principal
			recompute = true
		}
		if p.InterestRate != nil {
			loan.InterestRate = *p.InterestRate
			recompute = true
		}
		if p.TenureMonths != nil {
			loan.TenureMonths = *p.TenureMonths
			recompute = true
		}
		if err := loan.Validate(); err != nil {
			return core.Loan{}, err
		}
		if recompute {
			emi, err := amortize.EMI(loan.Principal, loan.InterestRate, loan.TenureMonths)
			if err != nil {
				return core.Loan{}, err
			}
			loan.EMI = emi
		}

		expected := loan.Version
		loan.Version++
		loan.UpdatedAt = time.Now()

		err = l.store.UpdateLoan(ctx, loan, expected)
		if errors.Is(err, core.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return core.Loan{}, fmt.Errorf("update loan: %w", err)
		}
		return loan, nil
	}

	return core.Loan{}, fmt.Errorf("update loan %s: %w", loanID, lastErr)
}

// DeactivateLoan soft-deletes: it only flips is_active, leaving balance and
// payment history intact.
func (l *Ledger) DeactivateLoan(ctx context.Context, loanID uuid.UUID) error {
	lk := l.loanLock(loanID)
	lk.Lock()
	defer lk.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		loan, err := l.store.GetLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.IsActive {
			return nil // already deactivated
		}

		expected := loan.Version
		loan.IsActive = false
		loan.Version++
		loan.UpdatedAt = time.Now()

		err = l.store.UpdateLoan(ctx, loan, expected)
		if errors.Is(err, core.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return fmt.Errorf("deactivate loan: %w", err)
		}
		return nil
	}

	return fmt.Errorf("deactivate loan %s: %w", loanID, lastErr)
}

// GetLoan returns a loan regardless of active flag; history stays readable.
func (l *Ledger) GetLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	return l.store.GetLoan(ctx, loanID)
}

// ListLoans returns every loan visible to the owner set.
func (l *Ledger) ListLoans(ctx context.Context, owners []uuid.UUID) ([]core.Loan, error) {
	return l.store.ListLoans(ctx, owners)
}

// ListPayments returns the append-only payment history for a loan.
func (l *Ledger) ListPayments(ctx context.Context, loanID uuid.UUID) ([]core.LoanPayment, error) {
	return l.store.ListLoanPayments(ctx, loanID)
}

// AmortizationPlan projects the full schedule for an existing loan from its
// original terms.
func (l *Ledger) AmortizationPlan(ctx context.Context, loanID uuid.UUID) ([]amortize.Installment, error) {
	loan, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return amortize.Plan(loan.Principal, loan.InterestRate, loan.TenureMonths, loan.StartDate)
}
