package report

import (
	"testing"

	"finbook/internal/core"
)

func tx(typ core.TransactionType, cents int64, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}
}

func sampleYear() []core.Transaction {
	return []core.Transaction{
		tx(core.Income, 300000, "Salary", core.NewDate(2025, 1, 31)),
		tx(core.Expense, 50000, "Groceries", core.NewDate(2025, 1, 5)),
		tx(core.Expense, 120000, "Rent", core.NewDate(2025, 1, 1)),
		tx(core.Income, 300000, "Salary", core.NewDate(2025, 2, 28)),
		tx(core.Expense, 45000, "Groceries", core.NewDate(2025, 2, 12)),
		tx(core.Expense, 45000, "Dining", core.NewDate(2025, 2, 14)),
		tx(core.Expense, 7000, "Transport", core.NewDate(2025, 12, 3)),
		tx(core.Income, 100, "Other", core.NewDate(2024, 6, 1)), // other year
	}
}

func TestSumByType(t *testing.T) {
	txs := sampleYear()
	if got := SumByType(txs, core.Income); got.Cents != 600100 {
		t.Fatalf("income sum expected 6001.00, got %v", got)
	}
	if got := SumByType(txs, core.Expense); got.Cents != 267000 {
		t.Fatalf("expense sum expected 2670.00, got %v", got)
	}
}

func TestSumByTypeSkipsDeleted(t *testing.T) {
	deleted := tx(core.Expense, 99999, "Groceries", core.NewDate(2025, 1, 2))
	deleted.Deleted = true
	if got := SumByType([]core.Transaction{deleted}, core.Expense); !got.IsZero() {
		t.Fatalf("deleted transaction counted: %v", got)
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	months := MonthlyBreakdown(sampleYear(), 2025)

	if months[0].Income.Cents != 300000 || months[0].Expenses.Cents != 170000 {
		t.Fatalf("january wrong: %+v", months[0])
	}
	if months[1].Income.Cents != 300000 || months[1].Expenses.Cents != 90000 {
		t.Fatalf("february wrong: %+v", months[1])
	}
	// Months with no transactions are zero, not absent.
	for i := 2; i < 11; i++ {
		if !months[i].Income.IsZero() || !months[i].Expenses.IsZero() {
			t.Fatalf("month %d should be zero: %+v", i+1, months[i])
		}
	}
	if months[11].Expenses.Cents != 7000 {
		t.Fatalf("december wrong: %+v", months[11])
	}
}

func TestMonthlyBreakdownMatchesSumByType(t *testing.T) {
	txs := sampleYear()
	months := MonthlyBreakdown(txs, 2025)

	var income, expenses int64
	for _, m := range months {
		income += m.Income.Cents
		expenses += m.Expenses.Cents
	}

	var txs2025 []core.Transaction
	for _, tx := range txs {
		if tx.Date.Year() == 2025 {
			txs2025 = append(txs2025, tx)
		}
	}
	if income != SumByType(txs2025, core.Income).Cents {
		t.Fatalf("income mismatch: %d", income)
	}
	if expenses != SumByType(txs2025, core.Expense).Cents {
		t.Fatalf("expense mismatch: %d", expenses)
	}
}

func TestCategoryBreakdownOrderingAndTies(t *testing.T) {
	got := CategoryBreakdown(sampleYear(), core.Expense, 0)
	want := []struct {
		category string
		cents    int64
	}{
		{"Rent", 120000},
		{"Groceries", 95000},
		{"Dining", 45000},
		{"Transport", 7000},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Category != w.category || got[i].Total.Cents != w.cents {
			t.Fatalf("position %d: got %v/%d, want %s/%d", i, got[i].Category, got[i].Total.Cents, w.category, w.cents)
		}
	}

	// Equal totals order by category name ascending.
	tied := []core.Transaction{
		tx(core.Expense, 5000, "Zoo", core.NewDate(2025, 1, 1)),
		tx(core.Expense, 5000, "Aquarium", core.NewDate(2025, 1, 1)),
	}
	gotTied := CategoryBreakdown(tied, core.Expense, 0)
	if gotTied[0].Category != "Aquarium" || gotTied[1].Category != "Zoo" {
		t.Fatalf("tie not broken by name: %+v", gotTied)
	}
}

func TestCategoryBreakdownTruncatesToTopN(t *testing.T) {
	got := CategoryBreakdown(sampleYear(), core.Expense, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Category != "Rent" || got[1].Category != "Groceries" {
		t.Fatalf("unexpected top categories: %+v", got)
	}
}

func TestBudgetConsumption(t *testing.T) {
	b := core.Budget{Category: "Groceries", Amount: core.Money{Cents: 100000}, Year: 2025, Month: 1}
	got := BudgetConsumption(b, sampleYear())
	if got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
}

func TestBudgetConsumptionZeroBudgetIsZero(t *testing.T) {
	b := core.Budget{Category: "Groceries", Year: 2025, Month: 1}
	got := BudgetConsumption(b, sampleYear())
	if got != 0 {
		t.Fatalf("zero budget must report 0, got %v", got)
	}
}

func TestGrowth(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{15000, 10000, 50},
		{5000, 10000, -50},
		{10000, 10000, 0},
		{12345, 0, 0}, // divide-by-zero policy
	}
	for i, tc := range cases {
		got := Growth(core.Money{Cents: tc.current}, core.Money{Cents: tc.previous})
		if got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestDashboard(t *testing.T) {
	accounts := []core.Account{
		{Name: "Checking", Balance: core.Money{Cents: 250000}},
		{Name: "Savings", Balance: core.Money{Cents: 1000000}},
	}
	loans := []core.Loan{
		{IsActive: true, RemainingBalance: core.Money{Cents: 400000}},
		{IsActive: false, RemainingBalance: core.Money{Cents: 999999}}, // deactivated, ignored
	}
	s := Dashboard(accounts, loans, sampleYear(), 2025, 1)
	if s.TotalBalance.Cents != 1250000 {
		t.Fatalf("total balance wrong: %v", s.TotalBalance)
	}
	if s.TotalLoanOutstanding.Cents != 400000 {
		t.Fatalf("loan outstanding wrong: %v", s.TotalLoanOutstanding)
	}
	if s.MonthIncome.Cents != 300000 || s.MonthExpenses.Cents != 170000 {
		t.Fatalf("month totals wrong: %+v", s)
	}
}
