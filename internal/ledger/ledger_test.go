package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"finbook/internal/core"
	"finbook/internal/notify"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store with the same optimistic-version contract
// as the SQLite repository.
type memStore struct {
	mu        sync.Mutex
	loans     map[uuid.UUID]core.Loan
	payments  map[uuid.UUID][]core.LoanPayment
	conflicts int // injected version conflicts before writes succeed
}

func newMemStore() *memStore {
	return &memStore{
		loans:    make(map[uuid.UUID]core.Loan),
		payments: make(map[uuid.UUID][]core.LoanPayment),
	}
}

func (s *memStore) GetLoan(_ context.Context, id uuid.UUID) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	if !ok {
		return core.Loan{}, fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}
	return loan, nil
}

func (s *memStore) InsertLoan(_ context.Context, loan core.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans[loan.ID] = loan
	return nil
}

func (s *memStore) UpdateLoan(_ context.Context, loan core.Loan, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(loan, expectedVersion)
}

func (s *memStore) ApplyLoanPayment(_ context.Context, loan core.Loan, expectedVersion int64, payment core.LoanPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateLocked(loan, expectedVersion); err != nil {
		return err
	}
	s.payments[loan.ID] = append(s.payments[loan.ID], payment)
	return nil
}

func (s *memStore) updateLocked(loan core.Loan, expectedVersion int64) error {
	if s.conflicts > 0 {
		s.conflicts--
		return core.ErrVersionConflict
	}
	current, ok := s.loans[loan.ID]
	if !ok {
		return fmt.Errorf("loan %s: %w", loan.ID, core.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return core.ErrVersionConflict
	}
	s.loans[loan.ID] = loan
	return nil
}

func (s *memStore) ListLoans(_ context.Context, _ []uuid.UUID) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		out = append(out, l)
	}
	return out, nil
}

func (s *memStore) ListLoanPayments(_ context.Context, loanID uuid.UUID) ([]core.LoanPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LoanPayment(nil), s.payments[loanID]...), nil
}

// recordingNotifier captures events; failingNotifier always errors.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Event) error {
	return fmt.Errorf("broker down: %w", core.ErrUnavailable)
}

func carLoanParams() CreateLoanParams {
	return CreateLoanParams{
		UserID:       uuid.New(),
		Name:         "Car loan",
		Principal:    core.Money{Cents: 54127200},
		InterestRate: decimal.NewFromInt(19),
		TenureMonths: 48,
		StartDate:    core.NewDate(2025, 1, 31),
	}
}

func TestCreateLoanDerivesFields(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)

	loan, err := l.CreateLoan(context.Background(), carLoanParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loan.EMI.Cents != 1618410 {
		t.Fatalf("expected EMI 16184.10, got %v", loan.EMI)
	}
	if loan.RemainingBalance != loan.Principal {
		t.Fatalf("balance must open at principal")
	}
	if !loan.NextDueDate.Equal(core.NewDate(2025, 2, 28).Time) {
		t.Fatalf("next due date not clamped: %v", loan.NextDueDate)
	}
	if !loan.IsActive || loan.Version != 1 {
		t.Fatalf("unexpected lifecycle fields: %+v", loan)
	}
}

func TestCreateLoanRejectsInvalidInput(t *testing.T) {
	l := New(newMemStore(), nil)
	p := carLoanParams()
	p.TenureMonths = 0
	if _, err := l.CreateLoan(context.Background(), p); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyPaymentSplitsAndAdvances(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	l := New(store, notifier)
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())

	payment, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 1647692}, core.NewDate(2025, 2, 28))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.InterestComponent.Cents != 857014 {
		t.Fatalf("expected interest 8570.14, got %v", payment.InterestComponent)
	}
	if payment.PrincipalComponent.Cents != 790678 {
		t.Fatalf("expected principal 7906.78, got %v", payment.PrincipalComponent)
	}
	if payment.Status != core.PaymentCompleted {
		t.Fatalf("unexpected status %q", payment.Status)
	}

	got, _ := store.GetLoan(ctx, loan.ID)
	if got.RemainingBalance.Cents != 54127200-790678 {
		t.Fatalf("balance not reduced by principal: %v", got.RemainingBalance)
	}
	if !got.NextDueDate.Equal(core.NewDate(2025, 3, 28).Time) {
		t.Fatalf("due date not advanced: %v", got.NextDueDate)
	}
	if got.Version != 2 {
		t.Fatalf("version not bumped: %d", got.Version)
	}

	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != notify.KindPaymentRecorded {
		t.Fatalf("expected one payment event, got %v", kinds)
	}
}

func TestApplyPaymentZeroRate(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	p := carLoanParams()
	p.Principal = core.Money{Cents: 10000}
	p.InterestRate = decimal.Zero
	p.TenureMonths = 2
	loan, _ := l.CreateLoan(ctx, p)

	payment, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 5000}, core.NewDate(2025, 2, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.PrincipalComponent.Cents != 5000 || payment.InterestComponent.Cents != 0 {
		t.Fatalf("zero-rate split wrong: %+v", payment)
	}
	got, _ := store.GetLoan(ctx, loan.ID)
	if got.RemainingBalance.Cents != 5000 {
		t.Fatalf("expected balance 50.00, got %v", got.RemainingBalance)
	}
}

func TestApplyPaymentErrors(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())

	if _, err := l.ApplyPayment(ctx, uuid.New(), core.Money{Cents: 100}, core.NewDate(2025, 2, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown loan, got %v", err)
	}
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 0}, core.NewDate(2025, 2, 1)); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero amount, got %v", err)
	}

	if err := l.DeactivateLoan(ctx, loan.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 100}, core.NewDate(2025, 2, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive loan, got %v", err)
	}
}

func TestApplyPaymentRetriesOnConflict(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())

	store.conflicts = 2
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 1647692}, core.NewDate(2025, 2, 28)); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}

	store.conflicts = maxRetries
	_, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 1647692}, core.NewDate(2025, 3, 28))
	if !errors.Is(err, core.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict after exhausted retries, got %v", err)
	}
}

func TestRepeatedEMIPaymentsTerminate(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	p := carLoanParams()
	loan, _ := l.CreateLoan(ctx, p)

	iterations := 0
	date := core.NewDate(2025, 2, 28)
	for {
		current, _ := store.GetLoan(ctx, loan.ID)
		if current.PaidOff() {
			break
		}
		if current.RemainingBalance.Cents < 0 {
			t.Fatalf("balance went negative: %v", current.RemainingBalance)
		}
		if _, err := l.ApplyPayment(ctx, loan.ID, loan.EMI, date); err != nil {
			t.Fatalf("iteration %d: %v", iterations, err)
		}
		iterations++
		date = date.AddMonths(1)
		if iterations > p.TenureMonths+1 {
			t.Fatalf("loan did not amortize within tenure+1 payments")
		}
	}

	payments, _ := l.ListPayments(ctx, loan.ID)
	if len(payments) != iterations {
		t.Fatalf("expected %d payment records, got %d", iterations, len(payments))
	}
	for i, pay := range payments {
		if pay.PrincipalComponent.Cents+pay.InterestComponent.Cents != pay.Amount.Cents {
			t.Fatalf("payment %d components do not sum to amount", i)
		}
	}
}

func TestOverpaymentClampsAtZeroAndEmitsPaidOff(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	l := New(store, notifier)
	ctx := context.Background()

	p := carLoanParams()
	p.Principal = core.Money{Cents: 10000}
	p.InterestRate = decimal.Zero
	p.TenureMonths = 2
	loan, _ := l.CreateLoan(ctx, p)

	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 25000}, core.NewDate(2025, 2, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetLoan(ctx, loan.ID)
	if !got.PaidOff() {
		t.Fatalf("expected paid-off loan, balance %v", got.RemainingBalance)
	}
	if !got.IsActive {
		t.Fatalf("paid-off loan stays active until explicit deactivation")
	}

	kinds := notifier.kinds()
	if len(kinds) != 2 || kinds[1] != notify.KindLoanPaidOff {
		t.Fatalf("expected paid-off event, got %v", kinds)
	}

	// Further payments are rejected.
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 100}, core.NewDate(2025, 3, 1)); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on paid-off loan, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailPayment(t *testing.T) {
	store := newMemStore()
	l := New(store, failingNotifier{})
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 1647692}, core.NewDate(2025, 2, 28)); err != nil {
		t.Fatalf("payment must commit despite notifier failure: %v", err)
	}
	got, _ := store.GetLoan(ctx, loan.ID)
	if got.RemainingBalance == loan.Principal {
		t.Fatalf("balance unchanged, mutation lost")
	}
}

func TestConcurrentPaymentsSerialize(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	p := carLoanParams()
	p.Principal = core.Money{Cents: 1000000}
	p.InterestRate = decimal.Zero
	p.TenureMonths = 100
	loan, _ := l.CreateLoan(ctx, p)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 10000}, core.NewDate(2025, 2, 1)); err != nil {
				t.Errorf("payment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.GetLoan(ctx, loan.ID)
	// Zero rate: every cent is principal, no lost updates allowed.
	if got.RemainingBalance.Cents != 1000000-workers*10000 {
		t.Fatalf("lost update: final balance %v", got.RemainingBalance)
	}
	payments, _ := l.ListPayments(ctx, loan.ID)
	if len(payments) != workers {
		t.Fatalf("expected %d payments, got %d", workers, len(payments))
	}
}

func TestUpdateLoanRecomputesEMI(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())

	name := "Refinanced car loan"
	rate := decimal.Zero
	updated, err := l.UpdateLoan(ctx, loan.ID, UpdateLoanParams{Name: &name, InterestRate: &rate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name not updated: %q", updated.Name)
	}
	if updated.EMI.Cents != 1127650 { // 541272.00 / 48
		t.Fatalf("EMI not recomputed for zero rate: %v", updated.EMI)
	}

	// Name-only updates keep the EMI.
	name2 := "Car"
	updated2, err := l.UpdateLoan(ctx, loan.ID, UpdateLoanParams{Name: &name2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated2.EMI != updated.EMI {
		t.Fatalf("EMI changed on name-only update: %v", updated2.EMI)
	}
}

func TestDeactivateLoanPreservesHistory(t *testing.T) {
	store := newMemStore()
	l := New(store, nil)
	ctx := context.Background()

	loan, _ := l.CreateLoan(ctx, carLoanParams())
	if _, err := l.ApplyPayment(ctx, loan.ID, core.Money{Cents: 1647692}, core.NewDate(2025, 2, 28)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.DeactivateLoan(ctx, loan.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := l.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("deactivated loan must stay readable: %v", err)
	}
	if got.IsActive {
		t.Fatalf("loan still active")
	}
	if got.RemainingBalance.Cents != 54127200-790678 {
		t.Fatalf("deactivation altered balance: %v", got.RemainingBalance)
	}
	payments, _ := l.ListPayments(ctx, loan.ID)
	if len(payments) != 1 {
		t.Fatalf("history lost: %d payments", len(payments))
	}

	// Deactivating twice is a no-op.
	if err := l.DeactivateLoan(ctx, loan.ID); err != nil {
		t.Fatalf("second deactivation must be a no-op: %v", err)
	}
}
