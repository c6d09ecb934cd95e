package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can map it to transport semantics
// without string matching.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindStateConflict Kind = "state_conflict"
	KindEligibility   Kind = "eligibility"
	KindNotFound      Kind = "not_found"
	KindIntegrity     Kind = "integrity"
	KindInternal      Kind = "internal"
)

// Domain errors
var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrStaffNotFound      = errors.New("staff member not found")
	ErrKYCNotFound        = errors.New("kyc verification not found")
	ErrInvalidTransition  = errors.New("invalid loan status transition")
	ErrPaymentCompleted   = errors.New("payment is already completed")
	ErrAccountNumberTaken = errors.New("account number already in use")
	ErrNotEligible        = errors.New("customer is not eligible")
)

// DomainError is a typed business failure with a machine-readable code and a
// human message. Field is set only for validation errors.
type DomainError struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err if it is a DomainError, KindInternal otherwise.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Error codes
const (
	CodeAmountOutOfRange    = "AMOUNT_OUT_OF_RANGE"
	CodeDurationOutOfBounds = "DURATION_OUT_OF_BOUNDS"
	CodeInvalidInput        = "INVALID_INPUT"

	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodePaymentCompleted  = "PAYMENT_ALREADY_COMPLETED"

	CodeAccountNotApproved  = "ACCOUNT_NOT_APPROVED"
	CodeKYCNotStarted       = "KYC_NOT_STARTED"
	CodeKYCIncomplete       = "KYC_INCOMPLETE"
	CodeKYCPending          = "KYC_PENDING"
	CodeNoAssignedStaff     = "NO_ASSIGNED_STAFF"
	CodeActiveLoanExists    = "ACTIVE_LOAN_EXISTS"
	CodePendingLoanExists   = "PENDING_LOAN_EXISTS"
	CodeBorrowLimitExceeded = "BORROW_LIMIT_EXCEEDED"
	CodeNoCompletedPayment  = "NO_COMPLETED_PAYMENT"
	CodeAddressNotVerified  = "ADDRESS_NOT_VERIFIED"

	CodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	CodeLoanNotFound     = "LOAN_NOT_FOUND"
	CodePaymentNotFound  = "PAYMENT_NOT_FOUND"
	CodeStaffNotFound    = "STAFF_NOT_FOUND"
	CodeKYCNotFound      = "KYC_NOT_FOUND"

	CodeAccountNumberCollision = "ACCOUNT_NUMBER_COLLISION"
	CodeDatabaseError          = "DATABASE_ERROR"
)

// NewValidationError reports malformed or out-of-range input attributed to a
// single field.
func NewValidationError(code, field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Field: field, Message: message}
}

// NewStateConflictError reports an operation that is invalid for the entity's
// current status.
func NewStateConflictError(code, message string, err error) *DomainError {
	return &DomainError{Kind: KindStateConflict, Code: code, Message: message, Err: err}
}

// NewEligibilityError reports a business-rule gate failure with a reason code
// the caller can act on.
func NewEligibilityError(code, message string) *DomainError {
	return &DomainError{Kind: KindEligibility, Code: code, Message: message, Err: ErrNotEligible}
}

func NewNotFoundError(code, message string, err error) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message, Err: err}
}

func NewIntegrityError(code, message string, err error) *DomainError {
	return &DomainError{Kind: KindIntegrity, Code: code, Message: message, Err: err}
}

// Wrap common errors with business context

func WrapCustomerNotFound(id string) *DomainError {
	return NewNotFoundError(CodeCustomerNotFound, fmt.Sprintf("Customer with ID %s not found", id), ErrCustomerNotFound)
}

func WrapLoanNotFound(id string) *DomainError {
	return NewNotFoundError(CodeLoanNotFound, fmt.Sprintf("Loan with ID %s not found", id), ErrLoanNotFound)
}

func WrapPaymentNotFound(id string) *DomainError {
	return NewNotFoundError(CodePaymentNotFound, fmt.Sprintf("Payment with ID %s not found", id), ErrPaymentNotFound)
}

func WrapStaffNotFound(id string) *DomainError {
	return NewNotFoundError(CodeStaffNotFound, fmt.Sprintf("Staff member with ID %s not found", id), ErrStaffNotFound)
}

func WrapInvalidTransition(from, to string) *DomainError {
	return NewStateConflictError(
		CodeInvalidTransition,
		fmt.Sprintf("Loan cannot move from %s to %s", from, to),
		ErrInvalidTransition,
	)
}

func WrapPaymentAlreadyCompleted(id string) *DomainError {
	return NewStateConflictError(
		CodePaymentCompleted,
		fmt.Sprintf("Payment %s is already completed", id),
		ErrPaymentCompleted,
	)
}

func WrapBorrowLimitExceeded(amount, limit string) *DomainError {
	return NewEligibilityError(
		CodeBorrowLimitExceeded,
		fmt.Sprintf("Loan amount %s exceeds the current borrow limit of %s", amount, limit),
	)
}

func WrapAccountNumberCollision(attempts int) *DomainError {
	return NewIntegrityError(
		CodeAccountNumberCollision,
		fmt.Sprintf("Could not allocate a unique account number after %d attempts", attempts),
		ErrAccountNumberTaken,
	)
}

func WrapDatabaseError(err error) *DomainError {
	return &DomainError{Kind: KindInternal, Code: CodeDatabaseError, Message: "database operation failed", Err: err}
}
