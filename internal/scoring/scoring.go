// Package scoring implements the credit scoring engine and the borrow limit
// calculator as pure functions over an explicit Config, so the weight tables
// travel with the caller instead of living in package globals.
package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/pkg/utils"
)

// MultiplierBand maps a minimum credit score to a borrow-limit multiplier.
type MultiplierBand struct {
	MinScore   int
	Multiplier decimal.Decimal
}

// Config carries every constant the engine needs. DefaultConfig returns the
// production values.
type Config struct {
	BaseScore int
	MinScore  int
	MaxScore  int

	OnTimeWeight   int // added after scaling by the on-time ratio
	HistoryPerLoan int
	HistoryCap     int
	TierWeight     int // per tier level
	LatePenalty    int // per late payment
	LatePenaltyCap int

	TierBaseLimits map[int]decimal.Decimal
	// MultiplierBands must be sorted by MinScore descending; the first band the
	// score reaches wins.
	MultiplierBands   []MultiplierBand
	DefaultMultiplier decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		BaseScore: domain.MinCreditScore,
		MinScore:  domain.MinCreditScore,
		MaxScore:  domain.MaxCreditScore,

		OnTimeWeight:   150,
		HistoryPerLoan: 10,
		HistoryCap:     50,
		TierWeight:     25,
		LatePenalty:    20,
		LatePenaltyCap: 200,

		TierBaseLimits: map[int]decimal.Decimal{
			1: decimal.NewFromInt(200000),
			2: decimal.NewFromInt(500000),
			3: decimal.NewFromInt(2000000),
			4: decimal.NewFromInt(5000000),
		},
		MultiplierBands: []MultiplierBand{
			{MinScore: 750, Multiplier: decimal.NewFromFloat(1.5)},
			{MinScore: 650, Multiplier: decimal.NewFromFloat(1.3)},
			{MinScore: 550, Multiplier: decimal.NewFromFloat(1.1)},
		},
		DefaultMultiplier: decimal.NewFromFloat(0.8),
	}
}

// History is the read-only loan and payment history of one customer.
type History struct {
	Tier     int
	Loans    []*domain.Loan
	Payments []*domain.Payment
}

// Score computes the credit score for a history. A customer with no loans
// scores exactly the base score.
func Score(cfg Config, h History) int {
	return Breakdown(cfg, h).CurrentScore
}

// Breakdown computes the score along with its per-factor decomposition.
func Breakdown(cfg Config, h History) domain.CreditScoreBreakdown {
	breakdown := domain.CreditScoreBreakdown{
		BaseScore:  cfg.BaseScore,
		TotalLoans: len(h.Loans),
	}

	if len(h.Loans) == 0 {
		breakdown.CurrentScore = cfg.BaseScore
		return breakdown
	}

	for _, p := range h.Payments {
		if p.IsOnTime() {
			breakdown.OnTimePayments++
		} else {
			breakdown.LatePayments++
		}
	}

	if total := breakdown.OnTimePayments + breakdown.LatePayments; total > 0 {
		ratio := float64(breakdown.OnTimePayments) / float64(total)
		breakdown.OnTimePaymentFactor = int(ratio * float64(cfg.OnTimeWeight))
	}

	breakdown.LoanHistoryFactor = min(len(h.Loans)*cfg.HistoryPerLoan, cfg.HistoryCap)
	breakdown.TierFactor = h.Tier * cfg.TierWeight
	if breakdown.LatePayments > 0 {
		breakdown.LatePaymentPenalty = min(breakdown.LatePayments*cfg.LatePenalty, cfg.LatePenaltyCap)
	}

	score := cfg.BaseScore +
		breakdown.OnTimePaymentFactor +
		breakdown.LoanHistoryFactor +
		breakdown.TierFactor -
		breakdown.LatePaymentPenalty

	breakdown.CurrentScore = utils.ClampScore(score, cfg.MinScore, cfg.MaxScore)
	return breakdown
}

// BorrowLimit derives the lending ceiling from tier and score: tier base limit
// times the score band multiplier, rounded to 2 decimal places. Tiers outside
// the table map to a zero base.
func BorrowLimit(cfg Config, tier, score int) decimal.Decimal {
	base, ok := cfg.TierBaseLimits[tier]
	if !ok {
		base = decimal.Zero
	}

	multiplier := cfg.DefaultMultiplier
	for _, band := range cfg.MultiplierBands {
		if score >= band.MinScore {
			multiplier = band.Multiplier
			break
		}
	}

	return base.Mul(multiplier).Round(2)
}
