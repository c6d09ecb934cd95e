package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOnTime(t *testing.T) {
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		paid time.Time
		want bool
	}{
		{"paid early", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"paid on the due date", due, true},
		{"paid late", time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{
				Status:   PaymentStatusCompleted,
				DueDate:  due,
				PaidDate: sql.NullTime{Time: tt.paid, Valid: true},
			}
			assert.Equal(t, tt.want, p.IsOnTime())
		})
	}

	t.Run("unpaid is never on time", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending, DueDate: due}
		assert.False(t, p.IsOnTime())
	})
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	t.Run("completed late payment measures against paid date", func(t *testing.T) {
		p := &Payment{
			Status:   PaymentStatusCompleted,
			DueDate:  due,
			PaidDate: sql.NullTime{Time: due.AddDate(0, 0, 7), Valid: true},
		}
		assert.Equal(t, 7, p.DaysOverdue(now))
	})

	t.Run("completed on-time payment is never overdue", func(t *testing.T) {
		p := &Payment{
			Status:   PaymentStatusCompleted,
			DueDate:  due,
			PaidDate: sql.NullTime{Time: due, Valid: true},
		}
		assert.Equal(t, 0, p.DaysOverdue(now))
	})

	t.Run("pending payment measures against now", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending, DueDate: due}
		assert.Equal(t, 5, p.DaysOverdue(now))
	})

	t.Run("overdue payment measures against now", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusOverdue, DueDate: due}
		assert.Equal(t, 5, p.DaysOverdue(now))
	})

	t.Run("not yet due", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending, DueDate: now.AddDate(0, 0, 10)}
		assert.Equal(t, 0, p.DaysOverdue(now))
	})
}
