package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, customer_id, amount, interest_rate, duration_months, status, requested_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.CustomerID,
		loan.Amount,
		loan.InterestRate,
		loan.DurationMonths,
		loan.Status,
		loan.RequestedBy,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, customer_id, amount, interest_rate, duration_months, status, requested_by,
		       approved_by, reject_reason, disbursed_at, due_date, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $2, approved_by = $3, reject_reason = $4, disbursed_at = $5, due_date = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.Status,
		loan.ApprovedBy,
		loan.RejectReason,
		loan.DisbursedAt,
		loan.DueDate,
		time.Now(),
	)

	return err
}

func (r *loanRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT id, customer_id, amount, interest_rate, duration_months, status, requested_by,
		       approved_by, reject_reason, disbursed_at, due_date, created_at, updated_at
		FROM loans
		WHERE customer_id = $1
		ORDER BY created_at
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, customerID)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	query := `
		SELECT id, customer_id, amount, interest_rate, duration_months, status, requested_by,
		       approved_by, reject_reason, disbursed_at, due_date, created_at, updated_at
		FROM loans
		WHERE status = $1
		ORDER BY created_at
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, status)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountByCustomerAndStatus(ctx context.Context, customerID uuid.UUID, status domain.LoanStatus) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE customer_id = $1 AND status = $2`

	var count int
	err := r.db.GetContext(ctx, &count, query, customerID, status)
	return count, err
}

func (r *loanRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.LoanStatus) (bool, error) {
	query := `
		UPDATE loans
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *loanRepository) Disburse(ctx context.Context, id uuid.UUID, disbursedAt time.Time, dueDate time.Time) (bool, error) {
	// Status guard serializes concurrent disbursement attempts; the stale one
	// matches zero rows.
	query := `
		UPDATE loans
		SET status = $2, disbursed_at = $3, due_date = COALESCE(due_date, $4), updated_at = $5
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		domain.LoanStatusDisbursed,
		disbursedAt,
		dueDate,
		time.Now(),
		domain.LoanStatusApproved,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *loanRepository) CountByStatuses(ctx context.Context, statuses []domain.LoanStatus) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE status = ANY($1)`

	var count int
	err := r.db.GetContext(ctx, &count, query, pq.Array(statusStrings(statuses)))
	return count, err
}

func (r *loanRepository) SumAmountByStatuses(ctx context.Context, statuses []domain.LoanStatus) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM loans WHERE status = ANY($1)`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, pq.Array(statusStrings(statuses)))
	if err != nil && err != sql.ErrNoRows {
		return decimal.Zero, err
	}

	return total, nil
}

func statusStrings(statuses []domain.LoanStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
