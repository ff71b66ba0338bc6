package period

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{date(2026, time.February, 9), "2026-W07"},
		{date(2026, time.January, 1), "2026-W01"},
		// ISO week-year differs from the calendar year at the boundary.
		{date(2027, time.January, 1), "2026-W53"},
		{date(2021, time.January, 1), "2020-W53"},
		{date(2026, time.December, 28), "2026-W53"},
	}
	for _, tt := range tests {
		if got := WeekKey(tt.day); got != tt.want {
			t.Errorf("WeekKey(%s) = %q, want %q", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestMonthAndYearKeys(t *testing.T) {
	d := date(2026, time.February, 9)
	if got := MonthKey(d); got != "2026-02" {
		t.Errorf("MonthKey = %q", got)
	}
	if got := YearKey(d); got != "2026" {
		t.Errorf("YearKey = %q", got)
	}
}

func TestPreviousPeriods(t *testing.T) {
	monday := date(2026, time.March, 9)
	if got := PreviousWeek(monday); got != "2026-W10" {
		t.Errorf("PreviousWeek = %q", got)
	}
	if got := PreviousMonth(date(2026, time.March, 1)); got != "2026-02" {
		t.Errorf("PreviousMonth = %q", got)
	}
	if got := PreviousMonth(date(2026, time.January, 15)); got != "2025-12" {
		t.Errorf("PreviousMonth across year = %q", got)
	}
	if got := PreviousYear(date(2026, time.January, 1)); got != "2025" {
		t.Errorf("PreviousYear = %q", got)
	}
}

func TestBoundaries(t *testing.T) {
	if !IsWeekStart(date(2026, time.March, 9)) {
		t.Error("2026-03-09 is a Monday")
	}
	if IsWeekStart(date(2026, time.March, 10)) {
		t.Error("2026-03-10 is not a Monday")
	}
	if !IsMonthStart(date(2026, time.March, 1)) || IsMonthStart(date(2026, time.March, 2)) {
		t.Error("month boundary wrong")
	}
	if !IsYearStart(date(2026, time.January, 1)) || IsYearStart(date(2026, time.February, 1)) {
		t.Error("year boundary wrong")
	}
}

func TestWeekRange(t *testing.T) {
	start, end, err := WeekRange("2026-W07")
	if err != nil {
		t.Fatal(err)
	}
	if start.Format("2006-01-02") != "2026-02-09" || end.Format("2006-01-02") != "2026-02-15" {
		t.Errorf("range = %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if start.Weekday() != time.Monday || end.Weekday() != time.Sunday {
		t.Error("week should run Monday through Sunday")
	}

	// Week 1 can start in the previous calendar year.
	start, _, err = WeekRange("2026-W01")
	if err != nil {
		t.Fatal(err)
	}
	if start.Format("2006-01-02") != "2025-12-29" {
		t.Errorf("W01 start = %s", start.Format("2006-01-02"))
	}

	if _, _, err := WeekRange("garbage"); err == nil {
		t.Error("bad key should error")
	}
	if _, _, err := WeekRange("2026-W60"); err == nil {
		t.Error("out-of-range week should error")
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2026-02")
	if err != nil {
		t.Fatal(err)
	}
	if start.Day() != 1 || end.Format("2006-01-02") != "2026-02-28" {
		t.Errorf("range = %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	_, end, _ = MonthRange("2024-02")
	if end.Day() != 29 {
		t.Errorf("leap February end = %d", end.Day())
	}
	if _, _, err := MonthRange("2026-13"); err == nil {
		t.Error("bad month should error")
	}
}

func TestWeeksInMonth(t *testing.T) {
	weeks, err := WeeksInMonth("2026-02")
	if err != nil {
		t.Fatal(err)
	}
	// Feb 2026 runs Sunday Feb 1 through Saturday Feb 28, touching W05-W09.
	want := []string{"2026-W05", "2026-W06", "2026-W07", "2026-W08", "2026-W09"}
	if len(weeks) != len(want) {
		t.Fatalf("weeks = %v", weeks)
	}
	for i := range want {
		if weeks[i] != want[i] {
			t.Errorf("weeks[%d] = %q, want %q", i, weeks[i], want[i])
		}
	}
}

func TestMonthsInYear(t *testing.T) {
	months := MonthsInYear("2026")
	if len(months) != 12 || months[0] != "2026-01" || months[11] != "2026-12" {
		t.Errorf("months = %v", months)
	}
}
