package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type KYCStatus string

const (
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusInProgress KYCStatus = "in_progress"
	KYCStatusVerified   KYCStatus = "verified"
	KYCStatusRejected   KYCStatus = "rejected"
	KYCStatusIncomplete KYCStatus = "incomplete"

	// KYCStatusNotStarted is reported when no KYC record exists at all. It is
	// never stored.
	KYCStatusNotStarted KYCStatus = "not_started"
)

// KYCVerification holds the BVN/NIN identity checks for a customer,
// one record per customer.
type KYCVerification struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	CustomerID       uuid.UUID      `json:"customer_id" db:"customer_id"`
	BVN              sql.NullString `json:"bvn,omitempty" db:"bvn"`
	NIN              sql.NullString `json:"nin,omitempty" db:"nin"`
	BVNVerified      bool           `json:"bvn_verified" db:"bvn_verified"`
	NINVerified      bool           `json:"nin_verified" db:"nin_verified"`
	Status           KYCStatus      `json:"status" db:"status"`
	VerifiedBy       uuid.NullUUID  `json:"verified_by,omitempty" db:"verified_by"`
	VerificationDate sql.NullTime   `json:"verification_date,omitempty" db:"verification_date"`
	Notes            string         `json:"notes" db:"notes"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// IsFullyVerified holds iff both documents are individually verified and the
// overall status is verified.
func (k *KYCVerification) IsFullyVerified() bool {
	return k.BVNVerified && k.NINVerified && k.Status == KYCStatusVerified
}

type SubmitKYCRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid4"`
	BVN        string `json:"bvn" validate:"omitempty,len=11,numeric"`
	NIN        string `json:"nin" validate:"omitempty,len=11,numeric"`
}

type VerifyKYCRequest struct {
	BVNVerified bool      `json:"bvn_verified"`
	NINVerified bool      `json:"nin_verified"`
	Status      KYCStatus `json:"status" validate:"required,oneof=pending in_progress verified rejected incomplete"`
	Notes       string    `json:"notes"`
}
