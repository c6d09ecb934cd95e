package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, user_id, account_number, account_type, tier, credit_score,
		                       current_borrow_limit, address, is_address_verified, approval_status,
		                       assigned_staff_id, assigned_date, assigned_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.UserID,
		customer.AccountNumber,
		customer.AccountType,
		customer.Tier,
		customer.CreditScore,
		customer.CurrentBorrowLimit,
		customer.Address,
		customer.IsAddressVerified,
		customer.ApprovalStatus,
		customer.AssignedStaffID,
		customer.AssignedDate,
		customer.AssignedBy,
		customer.CreatedBy,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := selectCustomer + ` WHERE id = $1`

	var customer domain.Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Customer, error) {
	query := selectCustomer + ` WHERE user_id = $1`

	var customer domain.Customer
	err := r.db.GetContext(ctx, &customer, query, userID)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET tier = $2, credit_score = $3, current_borrow_limit = $4, address = $5,
		    is_address_verified = $6, approval_status = $7, assigned_staff_id = $8,
		    assigned_date = $9, assigned_by = $10, updated_at = $11
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Tier,
		customer.CreditScore,
		customer.CurrentBorrowLimit,
		customer.Address,
		customer.IsAddressVerified,
		customer.ApprovalStatus,
		customer.AssignedStaffID,
		customer.AssignedDate,
		customer.AssignedBy,
		time.Now(),
	)

	return err
}

func (r *customerRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE account_number = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, accountNumber)
	return exists, err
}

func (r *customerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers`)
	return count, err
}

const selectCustomer = `
	SELECT id, user_id, account_number, account_type, tier, credit_score, current_borrow_limit,
	       address, is_address_verified, approval_status, assigned_staff_id, assigned_date,
	       assigned_by, created_by, created_at, updated_at
	FROM customers`
