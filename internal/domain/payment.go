package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusOverdue   PaymentStatus = "overdue"
)

// Payment is a single scheduled installment on a loan. The full set for a loan
// is created in bulk at disbursement, one row per month.
type Payment struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	DueDate   time.Time       `json:"due_date" db:"due_date"`
	PaidDate  sql.NullTime    `json:"paid_date,omitempty" db:"paid_date"`
	Status    PaymentStatus   `json:"status" db:"status"`
	IsPartial bool            `json:"is_partial" db:"is_partial"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// IsOnTime reports whether the installment was paid on or before its due date.
// An unpaid installment is never on time.
func (p *Payment) IsOnTime() bool {
	if !p.PaidDate.Valid {
		return false
	}
	return !p.PaidDate.Time.After(p.DueDate)
}

// DaysOverdue returns how many days late the installment is. For a completed
// payment it is measured against the paid date; for pending/overdue ones
// against now.
func (p *Payment) DaysOverdue(now time.Time) int {
	switch p.Status {
	case PaymentStatusCompleted:
		if p.PaidDate.Valid && p.PaidDate.Time.After(p.DueDate) {
			return daysBetween(p.DueDate, p.PaidDate.Time)
		}
	case PaymentStatusPending, PaymentStatusOverdue:
		if now.After(p.DueDate) {
			return daysBetween(p.DueDate, now)
		}
	}
	return 0
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

type ScheduleResponse struct {
	LoanID   string     `json:"loan_id"`
	Schedule []*Payment `json:"schedule"`
}
