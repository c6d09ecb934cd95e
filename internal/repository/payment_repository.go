package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []*domain.Payment) error {
	query := `
		INSERT INTO payments (id, loan_id, amount, due_date, paid_date, status, is_partial, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, payment := range payments {
		_, err = tx.ExecContext(ctx, query,
			payment.ID,
			payment.LoanID,
			payment.Amount,
			payment.DueDate,
			payment.PaidDate,
			payment.Status,
			payment.IsPartial,
			payment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, due_date, paid_date, status, is_partial, created_at
		FROM payments
		WHERE id = $1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET paid_date = $2, status = $3, is_partial = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.PaidDate,
		payment.Status,
		payment.IsPartial,
	)

	return err
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, due_date, paid_date, status, is_partial, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY due_date
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, loanID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT p.id, p.loan_id, p.amount, p.due_date, p.paid_date, p.status, p.is_partial, p.created_at
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		WHERE l.customer_id = $1
		ORDER BY p.due_date
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, customerID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) CountCompletedByLoan(ctx context.Context, loanID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM payments WHERE loan_id = $1 AND status = $2`

	var count int
	err := r.db.GetContext(ctx, &count, query, loanID, domain.PaymentStatusCompleted)
	return count, err
}

func (r *paymentRepository) SumCompletedByLoan(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE loan_id = $1 AND status = $2`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, loanID, domain.PaymentStatusCompleted)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *paymentRepository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = $1`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, domain.PaymentStatusCompleted)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *paymentRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE payments
		SET status = $1
		WHERE status = $2 AND due_date < $3
	`

	result, err := r.db.ExecContext(ctx, query, domain.PaymentStatusOverdue, domain.PaymentStatusPending, asOf)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *paymentRepository) NextDueByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT p.id, p.loan_id, p.amount, p.due_date, p.paid_date, p.status, p.is_partial, p.created_at
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		WHERE l.customer_id = $1 AND p.status IN ($2, $3)
		ORDER BY p.due_date
		LIMIT 1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, customerID, domain.PaymentStatusPending, domain.PaymentStatusOverdue)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}
