package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCentsFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected int64
	}{
		{"whole amount", decimal.NewFromInt(12_000_000), 1_200_000_000},
		{"amount with cents", decimal.NewFromFloat(100.01), 10_001},
		{"one cent", decimal.NewFromFloat(0.01), 1},
		{"zero", decimal.Zero, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CentsFromDecimal(tt.amount))
		})
	}
}

func TestDecimalFromCents_RoundTrip(t *testing.T) {
	original := decimal.NewFromFloat(1_066_185.97)
	assert.True(t, original.Equal(DecimalFromCents(CentsFromDecimal(original))))
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 1_066_185.97, RoundCents(1_066_185.9718))
	assert.Equal(t, 120_000.0, RoundCents(120_000.004))
	assert.Equal(t, 0.01, RoundCents(0.0099))
}

func TestMonthsBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		to       time.Time
		expected int
	}{
		{"same day", start, 0},
		{"earlier date", start.AddDate(0, 0, -10), 0},
		{"thirty days", start.AddDate(0, 0, 30), 1},
		{"one leap year", start.AddDate(1, 0, 0), 12},
		{"five years", start.AddDate(5, 0, 0), 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthsBetween(start, tt.to))
		})
	}
}

func TestMonthlyDueDate_ClampsShortMonths(t *testing.T) {
	ref := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), MonthlyDueDate(ref, 1, 31))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), MonthlyDueDate(ref, 2, 31))
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), MonthlyDueDate(ref, 1, 10))
}

func TestSameCalendarDay(t *testing.T) {
	morning := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 10, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameCalendarDay(morning, evening))
	assert.False(t, SameCalendarDay(morning, nextDay))
}
