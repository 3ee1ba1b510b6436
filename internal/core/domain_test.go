package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:     Expense,
		Amount:   Money{Cents: 1500},
		Category: "Groceries",
		Date:     NewDate(2025, 5, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Type: "transfer", Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 0}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 1}, Category: "", Date: NewDate(2025, 1, 1)},
		{Type: Income, Amount: Money{Cents: 1}, Category: "c", Date: Date{}},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestLoanValidate(t *testing.T) {
	good := Loan{
		Name:         "Car",
		Principal:    Money{Cents: 54127200},
		InterestRate: decimal.NewFromInt(19),
		TenureMonths: 48,
		StartDate:    NewDate(2025, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Loan)
		want   error
	}{
		{func(l *Loan) { l.Name = " " }, ErrEmptyDescription},
		{func(l *Loan) { l.Principal = Money{} }, ErrInvalidPrincipal},
		{func(l *Loan) { l.InterestRate = decimal.NewFromInt(-1) }, ErrInvalidRate},
		{func(l *Loan) { l.TenureMonths = 0 }, ErrInvalidTenure},
		{func(l *Loan) { l.StartDate = Date{} }, ErrInvalidDate},
	}
	for i, tc := range cases {
		l := good
		tc.mutate(&l)
		if err := l.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestRecurringScheduleValidate(t *testing.T) {
	good := RecurringSchedule{
		Kind:        ScheduleTransaction,
		Frequency:   Monthly,
		StartDate:   NewDate(2025, 1, 31),
		Description: "Rent",
		Amount:      Money{Cents: 120000},
		Type:        Expense,
		Category:    "Housing",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Bill reminders carry no transaction template.
	reminder := RecurringSchedule{
		Kind:        ScheduleBillReminder,
		Frequency:   Yearly,
		StartDate:   NewDate(2025, 3, 1),
		Description: "Insurance renewal",
	}
	if err := reminder.Validate(); err != nil {
		t.Fatalf("expected ok for reminder, got %v", err)
	}

	bad := good
	bad.EndDate = NewDate(2024, 12, 1) // before start
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}

	bad = good
	bad.Frequency = "fortnightly"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}

func TestLoanPaidOff(t *testing.T) {
	l := Loan{RemainingBalance: Money{Cents: 100}}
	if l.PaidOff() {
		t.Fatalf("loan with balance should not be paid off")
	}
	l.RemainingBalance = Money{}
	if !l.PaidOff() {
		t.Fatalf("loan with zero balance should be paid off")
	}
}
