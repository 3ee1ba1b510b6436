package core

import (
	"testing"
	"time"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		from Date
		n    int
		want Date
	}{
		{NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)}, // leap year
		{NewDate(2025, 1, 31), 3, NewDate(2025, 4, 30)},
		{NewDate(2025, 3, 15), 1, NewDate(2025, 4, 15)},
		{NewDate(2025, 11, 30), 3, NewDate(2026, 2, 28)}, // year rollover
		{NewDate(2025, 10, 31), 1, NewDate(2025, 11, 30)},
	}
	for i, tc := range cases {
		if got := tc.from.AddMonths(tc.n); !got.Equal(tc.want.Time) {
			t.Fatalf("case %d: %v + %dm = %v, want %v", i, tc.from, tc.n, got, tc.want)
		}
	}
}

func TestAddYearsClampsLeapDay(t *testing.T) {
	got := NewDate(2024, 2, 29).AddYears(1)
	want := NewDate(2025, 2, 28)
	if !got.Equal(want.Time) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	got = NewDate(2024, 2, 29).AddYears(4)
	want = NewDate(2028, 2, 29)
	if !got.Equal(want.Time) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAddDays(t *testing.T) {
	got := NewDate(2025, 12, 30).AddDays(7)
	want := NewDate(2026, 1, 6)
	if !got.Equal(want.Time) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 45, 1, 0, time.UTC)
	d := DateOf(ts)
	if d.Year() != 2025 || d.Month() != 6 || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatalf("time part not truncated: %v", d)
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}
