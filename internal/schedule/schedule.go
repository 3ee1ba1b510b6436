// Package schedule implements the recurrence arithmetic for recurring
// transactions, budgets and bill reminders. Both functions are pure: they
// take a value and return a value, so callers can advance a schedule
// speculatively and persist only when the write succeeds.
package schedule

import "finbook/internal/core"

// NextOccurrence returns the occurrence after from for the given frequency.
// Month-based frequencies clamp the day of month to the last valid day of
// the target month; yearly clamps Feb 29 to Feb 28 off leap years.
func NextOccurrence(from core.Date, freq core.Frequency) (core.Date, error) {
	if err := from.Validate(); err != nil {
		return core.Date{}, err
	}
	switch freq {
	case core.Daily:
		return from.AddDays(1), nil
	case core.Weekly:
		return from.AddDays(7), nil
	case core.Biweekly:
		return from.AddDays(14), nil
	case core.Monthly:
		return from.AddMonths(1), nil
	case core.Quarterly:
		return from.AddMonths(3), nil
	case core.Yearly:
		return from.AddYears(1), nil
	default:
		return core.Date{}, core.ErrInvalidFrequency
	}
}

// First computes the initial next-execution date for a newly created
// schedule: one frequency step past the start date, or expired right away if
// that already overshoots the end date.
func First(s core.RecurringSchedule) (core.RecurringSchedule, error) {
	next, err := NextOccurrence(s.StartDate, s.Frequency)
	if err != nil {
		return s, err
	}
	return withNext(s, next), nil
}

// Advance moves a schedule past its current next-execution date. An expired
// schedule is a terminal state and is returned unchanged; otherwise the
// schedule either steps forward or, when the step would pass the end date,
// expires.
func Advance(s core.RecurringSchedule) (core.RecurringSchedule, error) {
	if s.Expired() {
		return s, nil
	}
	next, err := NextOccurrence(s.NextExecution, s.Frequency)
	if err != nil {
		return s, err
	}
	return withNext(s, next), nil
}

func withNext(s core.RecurringSchedule, next core.Date) core.RecurringSchedule {
	if !s.EndDate.IsEmpty() && next.After(s.EndDate) {
		s.NextExecution = core.Date{}
		s.Active = false
		return s
	}
	s.NextExecution = next
	return s
}
