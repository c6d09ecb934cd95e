package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loanpro/loanpro-backend/internal/domain"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
)

type kycFixture struct {
	kycRepo      *MockKYCRepository
	customerRepo *MockCustomerRepository
	auditRepo    *MockAuditRepository
	service      *KYCService
	now          time.Time
}

func newKYCFixture(t *testing.T) *kycFixture {
	t.Helper()

	f := &kycFixture{
		kycRepo:      new(MockKYCRepository),
		customerRepo: new(MockCustomerRepository),
		auditRepo:    new(MockAuditRepository),
		now:          time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
	}

	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.service = NewKYCService(f.kycRepo, f.customerRepo, NewAuditService(f.auditRepo))
	f.service.now = func() time.Time { return f.now }

	return f
}

func TestSubmitKYC(t *testing.T) {
	f := newKYCFixture(t)
	customer := eligibleCustomer()

	f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	f.kycRepo.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.KYCVerification) bool {
		return k.CustomerID == customer.ID && k.Status == domain.KYCStatusPending
	})).Return(nil)

	kyc, err := f.service.Submit(context.Background(), &domain.SubmitKYCRequest{
		CustomerID: customer.ID.String(),
		BVN:        "12345678901",
		NIN:        "10987654321",
	}, uuid.New(), "")

	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusPending, kyc.Status)
	assert.Equal(t, "12345678901", kyc.BVN.String)
	assert.False(t, kyc.BVNVerified)
}

func TestVerifyKYC(t *testing.T) {
	t.Run("stamps reviewer when fully verified", func(t *testing.T) {
		f := newKYCFixture(t)
		customerID := uuid.New()
		reviewer := uuid.New()
		existing := &domain.KYCVerification{ID: uuid.New(), CustomerID: customerID, Status: domain.KYCStatusPending}

		f.kycRepo.On("GetByCustomerID", mock.Anything, customerID).Return(existing, nil)
		f.kycRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		kyc, err := f.service.Verify(context.Background(), customerID, &domain.VerifyKYCRequest{
			BVNVerified: true,
			NINVerified: true,
			Status:      domain.KYCStatusVerified,
		}, reviewer, "")

		require.NoError(t, err)
		assert.True(t, kyc.IsFullyVerified())
		assert.Equal(t, reviewer, kyc.VerifiedBy.UUID)
		assert.Equal(t, f.now, kyc.VerificationDate.Time)
	})

	t.Run("partial verification is not fully verified", func(t *testing.T) {
		f := newKYCFixture(t)
		customerID := uuid.New()
		existing := &domain.KYCVerification{ID: uuid.New(), CustomerID: customerID, Status: domain.KYCStatusPending}

		f.kycRepo.On("GetByCustomerID", mock.Anything, customerID).Return(existing, nil)
		f.kycRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		kyc, err := f.service.Verify(context.Background(), customerID, &domain.VerifyKYCRequest{
			BVNVerified: true,
			NINVerified: false,
			Status:      domain.KYCStatusIncomplete,
		}, uuid.New(), "")

		require.NoError(t, err)
		assert.False(t, kyc.IsFullyVerified())
		assert.False(t, kyc.VerifiedBy.Valid)
	})
}

func TestKYCStatus(t *testing.T) {
	f := newKYCFixture(t)
	customerID := uuid.New()

	f.kycRepo.On("GetByCustomerID", mock.Anything, customerID).Return(nil, sql.ErrNoRows)

	status, err := f.service.Status(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusNotStarted, status)
}

func TestEnsureEligible(t *testing.T) {
	tests := []struct {
		name     string
		customer func() *domain.Customer
		kyc      func(customerID uuid.UUID) (*domain.KYCVerification, error)
		wantCode string
	}{
		{
			name: "unapproved account",
			customer: func() *domain.Customer {
				c := eligibleCustomer()
				c.ApprovalStatus = domain.ApprovalStatusPending
				return c
			},
			wantCode: customError.CodeAccountNotApproved,
		},
		{
			name:     "no kyc record",
			customer: eligibleCustomer,
			kyc: func(uuid.UUID) (*domain.KYCVerification, error) {
				return nil, sql.ErrNoRows
			},
			wantCode: customError.CodeKYCNotStarted,
		},
		{
			name:     "kyc under review",
			customer: eligibleCustomer,
			kyc: func(id uuid.UUID) (*domain.KYCVerification, error) {
				return &domain.KYCVerification{CustomerID: id, Status: domain.KYCStatusInProgress}, nil
			},
			wantCode: customError.CodeKYCPending,
		},
		{
			name:     "kyc rejected",
			customer: eligibleCustomer,
			kyc: func(id uuid.UUID) (*domain.KYCVerification, error) {
				return &domain.KYCVerification{CustomerID: id, Status: domain.KYCStatusRejected}, nil
			},
			wantCode: customError.CodeKYCIncomplete,
		},
		{
			name: "no assigned staff",
			customer: func() *domain.Customer {
				c := eligibleCustomer()
				c.AssignedStaffID = uuid.NullUUID{}
				return c
			},
			kyc: func(id uuid.UUID) (*domain.KYCVerification, error) {
				return verifiedKYC(id), nil
			},
			wantCode: customError.CodeNoAssignedStaff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKYCFixture(t)
			customer := tt.customer()

			if tt.kyc != nil {
				kyc, err := tt.kyc(customer.ID)
				f.kycRepo.On("GetByCustomerID", mock.Anything, customer.ID).Return(kyc, err)
			}

			err := f.service.EnsureEligible(context.Background(), customer)
			assertDomainCode(t, err, tt.wantCode)
			assert.Equal(t, customError.KindEligibility, customError.KindOf(err))
		})
	}

	t.Run("fully eligible customer passes", func(t *testing.T) {
		f := newKYCFixture(t)
		customer := eligibleCustomer()

		f.kycRepo.On("GetByCustomerID", mock.Anything, customer.ID).Return(verifiedKYC(customer.ID), nil)

		assert.NoError(t, f.service.EnsureEligible(context.Background(), customer))
	})
}
