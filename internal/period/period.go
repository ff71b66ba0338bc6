// Package period handles the week/month/year arithmetic behind the
// summary hierarchy. Week keys use the ISO-8601 week calendar, so the
// days around New Year can belong to a different week-year than their
// calendar year.
package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ninhoerrors "github.com/ninho-ai/ninho/internal/errors"
)

// Type identifies one level of the summary hierarchy.
type Type string

const (
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
	Yearly  Type = "yearly"
)

// WeekKey returns the ISO week key for a date, e.g. "2026-W07".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey returns the month key for a date, e.g. "2026-02".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// YearKey returns the year key for a date, e.g. "2026".
func YearKey(t time.Time) string {
	return t.Format("2006")
}

// PreviousWeek returns the key of the week before the date's week.
func PreviousWeek(t time.Time) string {
	return WeekKey(t.AddDate(0, 0, -7))
}

// PreviousMonth returns the key of the month before the date's month.
func PreviousMonth(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthKey(firstOfMonth.AddDate(0, 0, -1))
}

// PreviousYear returns the key of the year before the date's year.
func PreviousYear(t time.Time) string {
	return strconv.Itoa(t.Year() - 1)
}

// IsWeekStart reports whether the date is a Monday.
func IsWeekStart(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// IsMonthStart reports whether the date is the first of a month.
func IsMonthStart(t time.Time) bool {
	return t.Day() == 1
}

// IsYearStart reports whether the date is January 1st.
func IsYearStart(t time.Time) bool {
	return t.Month() == time.January && t.Day() == 1
}

// WeekRange returns the Monday and Sunday of an ISO week key. ISO week 1
// is the week containing January 4th.
func WeekRange(key string) (time.Time, time.Time, error) {
	parts := strings.SplitN(key, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, ninhoerrors.NewInvalidInput(fmt.Sprintf("bad week key %q", key))
	}
	year, yerr := strconv.Atoi(parts[0])
	week, werr := strconv.Atoi(parts[1])
	if yerr != nil || werr != nil || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, ninhoerrors.NewInvalidInput(fmt.Sprintf("bad week key %q", key))
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	mondayOffset := (int(jan4.Weekday()) + 6) % 7
	weekOneStart := jan4.AddDate(0, 0, -mondayOffset)
	start := weekOneStart.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6), nil
}

// MonthRange returns the first and last day of a month key.
func MonthRange(key string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, time.Time{}, ninhoerrors.NewInvalidInput(fmt.Sprintf("bad month key %q", key))
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, end, nil
}

// WeeksInMonth returns the sorted ISO week keys that overlap a month.
// Edge weeks shared with the neighboring month are included.
func WeeksInMonth(key string) ([]string, error) {
	start, end, err := MonthRange(key)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var weeks []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wk := WeekKey(d)
		if !seen[wk] {
			seen[wk] = true
			weeks = append(weeks, wk)
		}
	}
	sort.Strings(weeks)
	return weeks, nil
}

// MonthsInYear returns all twelve month keys of a year.
func MonthsInYear(year string) []string {
	months := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, fmt.Sprintf("%s-%02d", year, m))
	}
	return months
}
