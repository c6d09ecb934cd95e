package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
)

// KYCService manages BVN/NIN verification records and gates loan eligibility
// on them.
type KYCService struct {
	kycRepo      repository.KYCRepository
	customerRepo repository.CustomerRepository
	audit        *AuditService
	now          func() time.Time
}

func NewKYCService(kycRepo repository.KYCRepository, customerRepo repository.CustomerRepository, audit *AuditService) *KYCService {
	return &KYCService{
		kycRepo:      kycRepo,
		customerRepo: customerRepo,
		audit:        audit,
		now:          time.Now,
	}
}

// Submit creates the customer's KYC record with the provided document numbers.
func (s *KYCService) Submit(ctx context.Context, req *domain.SubmitKYCRequest, actorID uuid.UUID, ipAddress string) (*domain.KYCVerification, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, customError.NewValidationError(customError.CodeInvalidInput, "customer_id", "customer_id must be a valid UUID")
	}

	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(req.CustomerID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	kyc := &domain.KYCVerification{
		ID:         uuid.New(),
		CustomerID: customerID,
		BVN:        sql.NullString{String: req.BVN, Valid: req.BVN != ""},
		NIN:        sql.NullString{String: req.NIN, Valid: req.NIN != ""},
		Status:     domain.KYCStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.kycRepo.Create(ctx, kyc); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionCreate, "KYCVerification", kyc.ID.String(),
		map[string]interface{}{"customer": req.CustomerID}, ipAddress)

	return kyc, nil
}

// Verify is the staff review step: it updates the per-document flags and the
// overall status, stamping the reviewer when the record becomes verified.
func (s *KYCService) Verify(ctx context.Context, customerID uuid.UUID, req *domain.VerifyKYCRequest, actorID uuid.UUID, ipAddress string) (*domain.KYCVerification, error) {
	kyc, err := s.kycRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.NewNotFoundError(customError.CodeKYCNotFound,
				"No KYC record exists for this customer", customError.ErrKYCNotFound)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	kyc.BVNVerified = req.BVNVerified
	kyc.NINVerified = req.NINVerified
	kyc.Status = req.Status
	kyc.Notes = req.Notes

	if kyc.Status == domain.KYCStatusVerified {
		kyc.VerifiedBy = uuid.NullUUID{UUID: actorID, Valid: true}
		kyc.VerificationDate = sql.NullTime{Time: s.now(), Valid: true}
	}

	if err := s.kycRepo.Update(ctx, kyc); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionVerify, "KYCVerification", kyc.ID.String(),
		map[string]interface{}{
			"status":       string(kyc.Status),
			"bvn_verified": kyc.BVNVerified,
			"nin_verified": kyc.NINVerified,
		}, ipAddress)

	return kyc, nil
}

// GetByCustomer returns the KYC record for a customer.
func (s *KYCService) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.KYCVerification, error) {
	kyc, err := s.kycRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.NewNotFoundError(customError.CodeKYCNotFound,
				"No KYC record exists for this customer", customError.ErrKYCNotFound)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return kyc, nil
}

// Status reports the customer's KYC status, distinguishing a missing record
// from an incomplete one.
func (s *KYCService) Status(ctx context.Context, customerID uuid.UUID) (domain.KYCStatus, error) {
	kyc, err := s.kycRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.KYCStatusNotStarted, nil
		}
		return "", customError.WrapDatabaseError(err)
	}
	return kyc.Status, nil
}

// EnsureEligible is the loan-application gate: account approved, KYC fully
// verified, and a staff member assigned. Each failure carries its own reason
// code so callers can direct the customer to the remedy.
func (s *KYCService) EnsureEligible(ctx context.Context, customer *domain.Customer) error {
	if !customer.IsAccountApproved() {
		return customError.NewEligibilityError(customError.CodeAccountNotApproved,
			"Customer account must be approved before applying for loans")
	}

	kyc, err := s.kycRepo.GetByCustomerID(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.NewEligibilityError(customError.CodeKYCNotStarted,
				"KYC verification is required before applying for loans. Please complete your BVN and NIN verification")
		}
		return customError.WrapDatabaseError(err)
	}

	if !kyc.IsFullyVerified() {
		if kyc.Status == domain.KYCStatusPending || kyc.Status == domain.KYCStatusInProgress {
			return customError.NewEligibilityError(customError.CodeKYCPending,
				"Your KYC verification is pending review. Please wait for verification to complete")
		}
		return customError.NewEligibilityError(customError.CodeKYCIncomplete,
			"Incomplete KYC verification. Please complete both BVN and NIN verification")
	}

	if !customer.HasAssignedStaff() {
		return customError.NewEligibilityError(customError.CodeNoAssignedStaff,
			"Customer must be assigned to a staff member before applying for loans")
	}

	return nil
}
