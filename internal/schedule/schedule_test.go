package schedule

import (
	"errors"
	"testing"

	"finbook/internal/core"
)

func TestNextOccurrence(t *testing.T) {
	cases := []struct {
		from core.Date
		freq core.Frequency
		want core.Date
	}{
		{core.NewDate(2025, 6, 15), core.Daily, core.NewDate(2025, 6, 16)},
		{core.NewDate(2025, 6, 15), core.Weekly, core.NewDate(2025, 6, 22)},
		{core.NewDate(2025, 6, 15), core.Biweekly, core.NewDate(2025, 6, 29)},
		{core.NewDate(2025, 1, 31), core.Monthly, core.NewDate(2025, 2, 28)},
		{core.NewDate(2024, 1, 31), core.Monthly, core.NewDate(2024, 2, 29)},
		{core.NewDate(2025, 1, 31), core.Quarterly, core.NewDate(2025, 4, 30)},
		{core.NewDate(2024, 2, 29), core.Yearly, core.NewDate(2025, 2, 28)},
		{core.NewDate(2025, 12, 31), core.Monthly, core.NewDate(2026, 1, 31)},
	}
	for i, tc := range cases {
		got, err := NextOccurrence(tc.from, tc.freq)
		if err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
		if !got.Equal(tc.want.Time) {
			t.Fatalf("case %d: %v + %s = %v, want %v", i, tc.from, tc.freq, got, tc.want)
		}
	}
}

func TestNextOccurrenceIsDeterministic(t *testing.T) {
	from := core.NewDate(2025, 1, 31)
	a, err := NextOccurrence(from, core.Monthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NextOccurrence(from, core.Monthly)
	if !a.Equal(b.Time) {
		t.Fatalf("same input produced different outputs: %v vs %v", a, b)
	}
}

func TestMonthlyChainStaysOnValidDates(t *testing.T) {
	// Twelve monthly steps from Jan 31 must always land on a valid
	// end-of-month day, never an overflowed date.
	d := core.NewDate(2025, 1, 31)
	for i := 0; i < 12; i++ {
		next, err := NextOccurrence(d, core.Monthly)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		last := core.NewDate(next.Year(), next.Month()+1, 1).AddDays(-1)
		if next.Day() > last.Day() {
			t.Fatalf("step %d produced invalid day %v", i, next)
		}
		d = next
	}
	if d.Year() != 2026 || d.Month() != 1 {
		t.Fatalf("expected to land in Jan 2026, got %v", d)
	}
}

func TestNextOccurrenceRejectsBadInput(t *testing.T) {
	if _, err := NextOccurrence(core.Date{}, core.Daily); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := NextOccurrence(core.NewDate(2025, 1, 1), "hourly"); !errors.Is(err, core.ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
}

func sched(freq core.Frequency, start, end core.Date) core.RecurringSchedule {
	return core.RecurringSchedule{
		Kind:        core.ScheduleBillReminder,
		Frequency:   freq,
		StartDate:   start,
		EndDate:     end,
		Description: "test",
		Active:      true,
	}
}

func TestFirstStepsPastStartDate(t *testing.T) {
	s, err := First(sched(core.Monthly, core.NewDate(2025, 1, 31), core.Date{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.NextExecution.Equal(core.NewDate(2025, 2, 28).Time) {
		t.Fatalf("expected 2025-02-28, got %v", s.NextExecution)
	}
	if !s.Active {
		t.Fatalf("schedule should still be active")
	}
}

func TestFirstExpiresWhenEndTooClose(t *testing.T) {
	s, err := First(sched(core.Monthly, core.NewDate(2025, 1, 15), core.NewDate(2025, 2, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Expired() || s.Active {
		t.Fatalf("schedule should expire at creation: %+v", s)
	}
}

func TestAdvanceReachesTerminalStateAndStaysThere(t *testing.T) {
	s := sched(core.Weekly, core.NewDate(2025, 1, 1), core.NewDate(2025, 2, 1))
	s, err := First(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps := 0
	for !s.Expired() {
		s, err = Advance(s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		steps++
		if steps > 10 {
			t.Fatalf("schedule never expired")
		}
	}
	if s.Active {
		t.Fatalf("expired schedule must be inactive")
	}

	// Advancing an expired schedule is a no-op.
	again, err := Advance(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.Expired() || again.Active {
		t.Fatalf("terminal state not stable: %+v", again)
	}
}

func TestAdvanceIsIdempotentWithoutPersist(t *testing.T) {
	s := sched(core.Monthly, core.NewDate(2025, 3, 10), core.Date{})
	s, _ = First(s)

	a, err := Advance(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := Advance(s)
	if !a.NextExecution.Equal(b.NextExecution.Time) {
		t.Fatalf("advance mutated hidden state: %v vs %v", a.NextExecution, b.NextExecution)
	}
}
