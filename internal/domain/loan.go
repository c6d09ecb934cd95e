package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusDisbursed LoanStatus = "disbursed"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// LoanStatuses returns every status a loan can hold.
func LoanStatuses() []LoanStatus {
	return []LoanStatus{
		LoanStatusPending,
		LoanStatusApproved,
		LoanStatusRejected,
		LoanStatusDisbursed,
		LoanStatusActive,
		LoanStatusCompleted,
		LoanStatusDefaulted,
	}
}

// LoanStateMachineWithInitialState returns the lifecycle state machine for loans.
// rejected, completed and defaulted are terminal.
func LoanStateMachineWithInitialState(initialState LoanStatus) *StateMachine {
	transitions := []StateTransition{
		{From: LoanStatusPending.State(), To: LoanStatusApproved.State()},    // staff approves the application
		{From: LoanStatusPending.State(), To: LoanStatusRejected.State()},    // staff rejects the application
		{From: LoanStatusApproved.State(), To: LoanStatusDisbursed.State()},  // funds released, schedule generated
		{From: LoanStatusDisbursed.State(), To: LoanStatusActive.State()},    // first repayment recorded
		{From: LoanStatusDisbursed.State(), To: LoanStatusCompleted.State()}, // repaid in full
		{From: LoanStatusDisbursed.State(), To: LoanStatusDefaulted.State()}, // past final due date unpaid
		{From: LoanStatusActive.State(), To: LoanStatusCompleted.State()},    // repaid in full
		{From: LoanStatusActive.State(), To: LoanStatusDefaulted.State()},    // past final due date unpaid
	}

	return NewStateMachine(initialState.State(), transitions)
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	return LoanStateMachineWithInitialState(s).CanTransitionTo(target.State())
}

func (s LoanStatus) Validate() error {
	switch LoanStatus(strings.ToLower(string(s))) {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected, LoanStatusDisbursed,
		LoanStatusActive, LoanStatusCompleted, LoanStatusDefaulted:
		return nil
	default:
		return fmt.Errorf("invalid loan status: %s", s)
	}
}

func (s LoanStatus) State() State {
	return State(s)
}

// Loan represents a loan application and its lifecycle state.
type Loan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CustomerID     uuid.UUID       `json:"customer_id" db:"customer_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	DurationMonths int             `json:"duration_months" db:"duration_months"`
	Status         LoanStatus      `json:"status" db:"status"`
	RequestedBy    uuid.UUID       `json:"requested_by" db:"requested_by"`
	ApprovedBy     uuid.NullUUID   `json:"approved_by,omitempty" db:"approved_by"`
	RejectReason   sql.NullString  `json:"reject_reason,omitempty" db:"reject_reason"`
	DisbursedAt    sql.NullTime    `json:"disbursed_at,omitempty" db:"disbursed_at"`
	DueDate        sql.NullTime    `json:"due_date,omitempty" db:"due_date"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type ApplyLoanRequest struct {
	CustomerID     string          `json:"customer_id" validate:"required,uuid4"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0"`
}

type RejectLoanRequest struct {
	Reason string `json:"reason"`
}

type ApplyLoanResponse struct {
	Loan *Loan `json:"loan"`
}

type DisburseLoanResponse struct {
	Loan     *Loan      `json:"loan"`
	Schedule []*Payment `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
