package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeIndividual AccountType = "individual"
	AccountTypeBusiness   AccountType = "business"
)

type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusSuspended ApprovalStatus = "suspended"
)

// Credit scores are clamped to this range everywhere they are written.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// Customer is a lending customer profile. The borrow limit is always derived
// from tier and credit score and fully replaced on recomputation, never
// adjusted in place.
type Customer struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	AccountNumber      string          `json:"account_number" db:"account_number"`
	AccountType        AccountType     `json:"account_type" db:"account_type"`
	Tier               int             `json:"tier" db:"tier"`
	CreditScore        int             `json:"credit_score" db:"credit_score"`
	CurrentBorrowLimit decimal.Decimal `json:"current_borrow_limit" db:"current_borrow_limit"`
	Address            string          `json:"address" db:"address"`
	IsAddressVerified  bool            `json:"is_address_verified" db:"is_address_verified"`
	ApprovalStatus     ApprovalStatus  `json:"approval_status" db:"approval_status"`
	AssignedStaffID    uuid.NullUUID   `json:"assigned_staff_id,omitempty" db:"assigned_staff_id"`
	AssignedDate       sql.NullTime    `json:"assigned_date,omitempty" db:"assigned_date"`
	AssignedBy         uuid.NullUUID   `json:"assigned_by,omitempty" db:"assigned_by"`
	CreatedBy          uuid.NullUUID   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// IsAccountApproved reports whether the account passed onboarding approval.
func (c *Customer) IsAccountApproved() bool {
	return c.ApprovalStatus == ApprovalStatusApproved
}

// HasAssignedStaff reports whether a staff member manages this customer.
func (c *Customer) HasAssignedStaff() bool {
	return c.AssignedStaffID.Valid
}

// DTOs for requests and responses

type RegisterCustomerRequest struct {
	UserID      string      `json:"user_id" validate:"required,uuid4"`
	AccountType AccountType `json:"account_type" validate:"required,oneof=individual business"`
	Tier        int         `json:"tier" validate:"omitempty,min=1,max=4"`
	Address     string      `json:"address" validate:"required"`
}

type AssignStaffRequest struct {
	StaffID string `json:"staff_id" validate:"required,uuid4"`
}

type CreditScoreBreakdown struct {
	CurrentScore        int `json:"current_score"`
	BaseScore           int `json:"base_score"`
	OnTimePaymentFactor int `json:"on_time_payment_factor"`
	LoanHistoryFactor   int `json:"loan_history_factor"`
	TierFactor          int `json:"tier_factor"`
	LatePaymentPenalty  int `json:"late_payment_penalty"`
	TotalLoans          int `json:"total_loans"`
	OnTimePayments      int `json:"on_time_payments"`
	LatePayments        int `json:"late_payments"`
}
