// Package amortize computes equated monthly installments and the
// principal/interest split of individual payments. All arithmetic runs on
// decimal.Decimal and results are rounded half-up to cents at the boundary;
// the functions are pure and return only invalid-input errors.
package amortize

import (
	"finbook/internal/core"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	twelve      = decimal.NewFromInt(12)
	one         = decimal.NewFromInt(1)
	rateDivisor = hundred.Mul(twelve) // annual percent -> monthly decimal rate
)

// monthlyRate converts an annual percent rate (19 for 19%) to the monthly
// decimal rate used by the EMI formula.
func monthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(rateDivisor)
}

// EMI computes the fixed monthly installment for a loan.
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate and n the tenure in months. A zero rate is an
// explicit straight-line special case (the general formula divides by zero),
// not an error.
func EMI(principal core.Money, annualRatePercent decimal.Decimal, tenureMonths int) (core.Money, error) {
	if !principal.IsPositive() {
		return core.Money{}, core.ErrInvalidPrincipal
	}
	if tenureMonths <= 0 {
		return core.Money{}, core.ErrInvalidTenure
	}
	if annualRatePercent.IsNegative() {
		return core.Money{}, core.ErrInvalidRate
	}

	p := principal.Decimal()
	n := decimal.NewFromInt(int64(tenureMonths))

	if annualRatePercent.IsZero() {
		return core.MoneyFromDecimal(p.Div(n)), nil
	}

	r := monthlyRate(annualRatePercent)
	factor := one.Add(r).Pow(n) // (1+r)^n
	emi := p.Mul(r).Mul(factor).Div(factor.Sub(one))
	return core.MoneyFromDecimal(emi), nil
}

// Split divides a payment against the current balance into its interest and
// principal components. Interest is one month of interest on the remaining
// balance, clamped to the payment amount: a payment too small to cover the
// accrued interest is absorbed entirely as interest and reduces no principal.
func Split(remainingBalance core.Money, annualRatePercent decimal.Decimal, payment core.Money) (principal, interest core.Money, err error) {
	if remainingBalance.Cents < 0 {
		return core.Money{}, core.Money{}, core.ErrInvalidAmount
	}
	if annualRatePercent.IsNegative() {
		return core.Money{}, core.Money{}, core.ErrInvalidRate
	}
	if !payment.IsPositive() {
		return core.Money{}, core.Money{}, core.ErrInvalidAmount
	}

	interest = core.MoneyFromDecimal(remainingBalance.Decimal().Mul(monthlyRate(annualRatePercent)))
	if interest.Cents > payment.Cents {
		interest = payment
	}
	principal = payment.Sub(interest)
	return principal, interest, nil
}

// Installment is one period of an amortization plan.
type Installment struct {
	Period           int
	DueDate          core.Date
	Principal        core.Money
	Interest         core.Money
	Total            core.Money
	RemainingBalance core.Money
}

// Plan generates the full amortization schedule for a loan starting one
// month after startDate. The last installment is adjusted so the balance
// lands on exactly zero despite per-period rounding.
func Plan(principal core.Money, annualRatePercent decimal.Decimal, tenureMonths int, startDate core.Date) ([]Installment, error) {
	emi, err := EMI(principal, annualRatePercent, tenureMonths)
	if err != nil {
		return nil, err
	}

	plan := make([]Installment, 0, tenureMonths)
	remaining := principal
	for period := 1; period <= tenureMonths; period++ {
		interest := core.MoneyFromDecimal(remaining.Decimal().Mul(monthlyRate(annualRatePercent)))
		principalPart := emi.Sub(interest)
		if period == tenureMonths || principalPart.Cents > remaining.Cents {
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)
		plan = append(plan, Installment{
			Period:           period,
			DueDate:          startDate.AddMonths(period),
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return plan, nil
}
