package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

// UserRepository defines the interface for user identity lookups
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer profile
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// GetByUserID retrieves the customer profile owned by a user
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Customer, error)

	// Update updates a customer profile
	Update(ctx context.Context, customer *domain.Customer) error

	// ExistsByAccountNumber reports whether an account number is taken
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)

	// Count returns the total number of customers
	Count(ctx context.Context) (int, error)
}

// KYCRepository defines the interface for KYC verification records
type KYCRepository interface {
	// Create creates a KYC verification record
	Create(ctx context.Context, kyc *domain.KYCVerification) error

	// GetByCustomerID retrieves the KYC record for a customer
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.KYCVerification, error)

	// Update updates a KYC verification record
	Update(ctx context.Context, kyc *domain.KYCVerification) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan application
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update updates a loan
	Update(ctx context.Context, loan *domain.Loan) error

	// ListByCustomer retrieves all loans for a customer
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error)

	// ListByStatus retrieves all loans in the given status
	ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error)

	// CountByCustomerAndStatus counts a customer's loans in a status
	CountByCustomerAndStatus(ctx context.Context, customerID uuid.UUID, status domain.LoanStatus) (int, error)

	// CompareAndSetStatus transitions a loan's status only if it still holds
	// the expected one; returns false when the guard failed.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.LoanStatus) (bool, error)

	// Disburse atomically moves an approved loan to disbursed, stamping the
	// disbursement time and final due date (due date only if not already set).
	Disburse(ctx context.Context, id uuid.UUID, disbursedAt time.Time, dueDate time.Time) (bool, error)

	// CountByStatuses counts loans across the given statuses
	CountByStatuses(ctx context.Context, statuses []domain.LoanStatus) (int, error)

	// SumAmountByStatuses sums principal amounts across the given statuses
	SumAmountByStatuses(ctx context.Context, statuses []domain.LoanStatus) (decimal.Decimal, error)
}

// PaymentRepository defines the interface for payment ledger operations
type PaymentRepository interface {
	// CreateBatch inserts a full payment schedule in one transaction
	CreateBatch(ctx context.Context, payments []*domain.Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// Update updates a payment
	Update(ctx context.Context, payment *domain.Payment) error

	// ListByLoan retrieves the schedule for a loan ordered by due date
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// ListByCustomer retrieves every payment across a customer's loans
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error)

	// CountCompletedByLoan counts completed installments on a loan
	CountCompletedByLoan(ctx context.Context, loanID uuid.UUID) (int, error)

	// SumCompletedByLoan sums the completed installment amounts on a loan
	SumCompletedByLoan(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error)

	// SumCompleted sums all completed payments system-wide
	SumCompleted(ctx context.Context) (decimal.Decimal, error)

	// MarkOverdue flips pending installments past their due date to overdue
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)

	// NextDueByCustomer returns the earliest unpaid installment for a customer
	NextDueByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Payment, error)
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Action     domain.AuditAction
	Limit      int
}

// AuditRepository defines the append-only audit sink storage
type AuditRepository interface {
	// Create appends an audit entry
	Create(ctx context.Context, entry *domain.AuditLog) error

	// List retrieves audit entries, newest first
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditLog, error)
}
