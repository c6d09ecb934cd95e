package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

// CalculateMonthlyPayment returns the fixed installment for a standard
// annuity: P*m*(1+m)^n / ((1+m)^n - 1) with m the monthly rate derived from
// the annual percentage rate. Zero-rate loans split the principal evenly.
func CalculateMonthlyPayment(principal decimal.Decimal, annualRatePercent decimal.Decimal, months int) decimal.Decimal {
	if months == 0 {
		return principal.Round(2)
	}

	monthlyRate := annualRatePercent.Div(hundred).Div(twelve)
	if monthlyRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(months))).Round(2)
	}

	compound := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(months)))
	payment := principal.Mul(monthlyRate).Mul(compound).Div(compound.Sub(one))

	return payment.Round(2)
}

// TotalRepayable is the flat installment times the number of installments.
func TotalRepayable(principal decimal.Decimal, annualRatePercent decimal.Decimal, months int) decimal.Decimal {
	if months == 0 {
		return CalculateMonthlyPayment(principal, annualRatePercent, months)
	}
	return CalculateMonthlyPayment(principal, annualRatePercent, months).Mul(decimal.NewFromInt(int64(months)))
}

// InstallmentDueDate returns the due date for installment number (1-based):
// 30 days per installment counted from the disbursement date.
func InstallmentDueDate(disbursedAt time.Time, installment int) time.Time {
	return disbursedAt.AddDate(0, 0, 30*installment)
}

// LoanDueDate is the final due date: disbursement date + 30 days per month of
// duration.
func LoanDueDate(disbursedAt time.Time, durationMonths int) time.Time {
	return disbursedAt.AddDate(0, 0, 30*durationMonths)
}

// GenerateAccountNumber produces a random 10-digit account number. Uniqueness
// is enforced by the caller against the datastore.
func GenerateAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int63n(1e10))
}

// ClampScore keeps a credit score inside [min, max].
func ClampScore(score, min, max int) int {
	if score < min {
		return min
	}
	if score > max {
		return max
	}
	return score
}
