// Package report derives summaries from in-memory transaction snapshots.
// Every function is pure and read-only; callers pass collections already
// filtered to the relevant owner scope. Soft-deleted transactions are
// ignored everywhere.
package report

import (
	"sort"

	"finbook/internal/core"
)

// MonthTotals is the income/expense pair for one calendar month.
type MonthTotals struct {
	Income   core.Money
	Expenses core.Money
}

// CategoryTotal is an aggregated amount for one category.
type CategoryTotal struct {
	Category string
	Total    core.Money
}

// Summary is the dashboard headline view.
type Summary struct {
	TotalBalance         core.Money
	TotalLoanOutstanding core.Money
	MonthIncome          core.Money
	MonthExpenses        core.Money
}

// SumByType totals all live transactions of the given type.
func SumByType(txs []core.Transaction, typ core.TransactionType) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Deleted || tx.Type != typ {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// MonthlyBreakdown groups transactions of the given year into twelve
// income/expense buckets keyed by the transaction date (not creation time).
// Months without transactions hold zero totals.
func MonthlyBreakdown(txs []core.Transaction, year int) [12]MonthTotals {
	var months [12]MonthTotals
	for _, tx := range txs {
		if tx.Deleted || tx.Date.Year() != year {
			continue
		}
		i := tx.Date.Month() - 1
		switch tx.Type {
		case core.Income:
			months[i].Income = months[i].Income.Add(tx.Amount)
		case core.Expense:
			months[i].Expenses = months[i].Expenses.Add(tx.Amount)
		}
	}
	return months
}

// CategoryBreakdown totals transactions of one type per category, sorted by
// total descending with ties broken by category name ascending, truncated
// to topN. topN <= 0 returns the full list.
func CategoryBreakdown(txs []core.Transaction, typ core.TransactionType, topN int) []CategoryTotal {
	byCategory := make(map[string]core.Money)
	for _, tx := range txs {
		if tx.Deleted || tx.Type != typ {
			continue
		}
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for name, total := range byCategory {
		out = append(out, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// BudgetConsumption reports how much of a budget its category's expenses
// have used, as a percentage. A zero budget amount yields 0, never NaN.
// Only expenses dated inside the budget's year/month count.
func BudgetConsumption(b core.Budget, txs []core.Transaction) float64 {
	if b.Amount.Cents == 0 {
		return 0
	}
	var spent core.Money
	for _, tx := range txs {
		if tx.Deleted || tx.Type != core.Expense || tx.Category != b.Category {
			continue
		}
		if tx.Date.Year() != b.Year || tx.Date.Month() != b.Month {
			continue
		}
		spent = spent.Add(tx.Amount)
	}
	return float64(spent.Cents) / float64(b.Amount.Cents) * 100
}

// Growth is the percent change from previous to current, defined as 0 when
// previous is zero so the divide-by-zero never reaches the caller.
func Growth(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// Dashboard builds the headline summary: account balances, outstanding loan
// debt and the income/expense totals for the given month.
func Dashboard(accounts []core.Account, loans []core.Loan, txs []core.Transaction, year, month int) Summary {
	var s Summary
	for _, a := range accounts {
		s.TotalBalance = s.TotalBalance.Add(a.Balance)
	}
	for _, l := range loans {
		if !l.IsActive {
			continue
		}
		s.TotalLoanOutstanding = s.TotalLoanOutstanding.Add(l.RemainingBalance)
	}
	for _, tx := range txs {
		if tx.Deleted || tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		switch tx.Type {
		case core.Income:
			s.MonthIncome = s.MonthIncome.Add(tx.Amount)
		case core.Expense:
			s.MonthExpenses = s.MonthExpenses.Add(tx.Amount)
		}
	}
	return s
}
