package scoring

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

func onTimePayment(due time.Time) *domain.Payment {
	return &domain.Payment{
		Status:   domain.PaymentStatusCompleted,
		DueDate:  due,
		PaidDate: sql.NullTime{Time: due.AddDate(0, 0, -1), Valid: true},
	}
}

func latePayment(due time.Time) *domain.Payment {
	return &domain.Payment{
		Status:   domain.PaymentStatusCompleted,
		DueDate:  due,
		PaidDate: sql.NullTime{Time: due.AddDate(0, 0, 5), Valid: true},
	}
}

func nLoans(n int) []*domain.Loan {
	loans := make([]*domain.Loan, n)
	for i := range loans {
		loans[i] = &domain.Loan{}
	}
	return loans
}

func TestScore(t *testing.T) {
	cfg := DefaultConfig()
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		h    History
		want int
	}{
		{
			name: "no loans scores exactly the base",
			h:    History{Tier: 3},
			want: 300,
		},
		{
			name: "single loan, all payments on time",
			h: History{
				Tier:  1,
				Loans: nLoans(1),
				Payments: []*domain.Payment{
					onTimePayment(due), onTimePayment(due), onTimePayment(due),
				},
			},
			// 300 + 150 + 10 + 25
			want: 485,
		},
		{
			name: "mixed history with late penalty",
			h: History{
				Tier:  2,
				Loans: nLoans(2),
				Payments: []*domain.Payment{
					onTimePayment(due), onTimePayment(due), latePayment(due), latePayment(due),
				},
			},
			// 300 + 75 + 20 + 50 - 40
			want: 405,
		},
		{
			name: "loan history factor caps at 50",
			h: History{
				Tier:     1,
				Loans:    nLoans(9),
				Payments: []*domain.Payment{onTimePayment(due)},
			},
			// 300 + 150 + 50 + 25
			want: 525,
		},
		{
			name: "late penalty caps at 200",
			h: History{
				Tier:  1,
				Loans: nLoans(1),
				Payments: []*domain.Payment{
					latePayment(due), latePayment(due), latePayment(due), latePayment(due),
					latePayment(due), latePayment(due), latePayment(due), latePayment(due),
					latePayment(due), latePayment(due), latePayment(due), latePayment(due),
				},
			},
			// penalty capped at 200, result clamped up to the floor
			want: 300,
		},
		{
			name: "never exceeds the ceiling",
			h: History{
				Tier:  4,
				Loans: nLoans(20),
				Payments: func() []*domain.Payment {
					ps := make([]*domain.Payment, 40)
					for i := range ps {
						ps[i] = onTimePayment(due)
					}
					return ps
				}(),
			},
			// 300 + 150 + 50 + 100 = 600, under the cap; sanity-check the path
			want: 600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(cfg, tt.h))
		})
	}
}

func TestScoreClampsToFloor(t *testing.T) {
	cfg := DefaultConfig()
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	h := History{
		Tier:  1,
		Loans: nLoans(1),
		Payments: []*domain.Payment{
			latePayment(due), latePayment(due), latePayment(due), latePayment(due),
			latePayment(due), latePayment(due), latePayment(due), latePayment(due),
			latePayment(due), latePayment(due),
		},
	}

	// 300 + 0 + 10 + 25 - 200 = 135, clamped up to 300.
	assert.Equal(t, cfg.MinScore, Score(cfg, h))
}

func TestBreakdownCounts(t *testing.T) {
	cfg := DefaultConfig()
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	b := Breakdown(cfg, History{
		Tier:  2,
		Loans: nLoans(3),
		Payments: []*domain.Payment{
			onTimePayment(due),
			latePayment(due),
			{Status: domain.PaymentStatusOverdue, DueDate: due}, // unpaid counts as late
		},
	})

	assert.Equal(t, 3, b.TotalLoans)
	assert.Equal(t, 1, b.OnTimePayments)
	assert.Equal(t, 2, b.LatePayments)
	assert.Equal(t, 50, b.OnTimePaymentFactor)
	assert.Equal(t, 30, b.LoanHistoryFactor)
	assert.Equal(t, 50, b.TierFactor)
	assert.Equal(t, 40, b.LatePaymentPenalty)
	assert.Equal(t, 300+50+30+50-40, b.CurrentScore)
}

func TestBorrowLimit(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		tier  int
		score int
		want  string
	}{
		{"tier 1 default band", 1, 300, "160000"},
		{"tier 1 at 550", 1, 550, "220000"},
		{"tier 2 at 650", 2, 650, "650000"},
		{"tier 3 at 750", 3, 750, "3000000"},
		{"tier 4 top band", 4, 850, "7500000"},
		{"band edge just below 750", 3, 749, "2600000"},
		{"unknown tier has zero base", 7, 800, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BorrowLimit(cfg, tt.tier, tt.score)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"tier %d score %d: got %s want %s", tt.tier, tt.score, got, tt.want)
		})
	}
}
