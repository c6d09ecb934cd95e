package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		months    int
		want      string
	}{
		{"standard annuity", "120000", "12", 12, "10661.85"},
		{"zero rate splits principal evenly", "12000", "0", 12, "1000"},
		{"zero duration returns principal", "5000", "12", 0, "5000"},
		{"single installment", "1000", "12", 1, "1010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMonthlyPayment(
				decimal.RequireFromString(tt.principal),
				decimal.RequireFromString(tt.rate),
				tt.months,
			)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", got, tt.want)
		})
	}
}

func TestTotalRepayable(t *testing.T) {
	total := TotalRepayable(decimal.RequireFromString("120000"), decimal.RequireFromString("12"), 12)
	assert.True(t, total.Equal(decimal.RequireFromString("127942.20")), "got %s", total)

	flat := TotalRepayable(decimal.RequireFromString("12000"), decimal.Zero, 12)
	assert.True(t, flat.Equal(decimal.RequireFromString("12000")))
}

func TestInstallmentDueDate(t *testing.T) {
	disbursed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), InstallmentDueDate(disbursed, 1))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), InstallmentDueDate(disbursed, 2))

	// Consecutive installments are exactly 30 days apart.
	for i := 1; i < 12; i++ {
		gap := InstallmentDueDate(disbursed, i+1).Sub(InstallmentDueDate(disbursed, i))
		assert.Equal(t, 30*24*time.Hour, gap)
	}
}

func TestLoanDueDate(t *testing.T) {
	disbursed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// The final due date coincides with the last installment's.
	assert.Equal(t, InstallmentDueDate(disbursed, 6), LoanDueDate(disbursed, 6))
}

func TestGenerateAccountNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := GenerateAccountNumber()
		assert.Len(t, n, 10)
		assert.Regexp(t, `^\d{10}$`, n)
		seen[n] = true
	}
	// Collisions over 100 draws from a 10^10 space would indicate a broken generator.
	assert.Greater(t, len(seen), 90)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 300, ClampScore(135, 300, 850))
	assert.Equal(t, 850, ClampScore(900, 300, 850))
	assert.Equal(t, 600, ClampScore(600, 300, 850))
}
