package utils

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Average Gregorian month length in days, used to derive loan terms from
// calendar ranges.
const DaysPerMonth = 30.44

// CentsFromDecimal converts a major-unit decimal amount to integer cents.
// The shift by two digits is exact; anything below a cent is rounded.
func CentsFromDecimal(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// DecimalFromCents converts integer cents to a major-unit decimal.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// MajorFromCents converts integer cents to a major-unit float for schedule
// arithmetic.
func MajorFromCents(cents int64) float64 {
	return float64(cents) / 100
}

// RoundCents rounds a major-unit amount to the nearest cent.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// MonthsBetween returns the number of average-length months between two
// dates, rounded to the nearest whole month. Never negative.
func MonthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := to.Sub(from).Hours() / 24
	return int(math.Round(days / DaysPerMonth))
}

// MonthlyDueDate returns the due date monthsAhead months after ref, pinned
// to the given day of month (clamped to the target month's length).
func MonthlyDueDate(ref time.Time, monthsAhead int, dayOfMonth int) time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, monthsAhead, 0)
	day := dayOfMonth
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a time to midnight UTC so calendar-day comparisons
// ignore the time component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameCalendarDay reports whether two times fall on the same calendar day.
func SameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
