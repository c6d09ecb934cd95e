package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/scoring"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
)

type customerFixture struct {
	customerRepo *MockCustomerRepository
	userRepo     *MockUserRepository
	loanRepo     *MockLoanRepository
	paymentRepo  *MockPaymentRepository
	auditRepo    *MockAuditRepository
	service      *CustomerService
	now          time.Time
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()

	f := &customerFixture{
		customerRepo: new(MockCustomerRepository),
		userRepo:     new(MockUserRepository),
		loanRepo:     new(MockLoanRepository),
		paymentRepo:  new(MockPaymentRepository),
		auditRepo:    new(MockAuditRepository),
		now:          time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	audit := NewAuditService(f.auditRepo)
	f.service = NewCustomerService(f.customerRepo, f.userRepo, f.loanRepo, f.paymentRepo,
		audit, nil, testConfig(), scoring.DefaultConfig(), metrics.NewCollector())
	f.service.now = func() time.Time { return f.now }

	return f
}

func TestRegister(t *testing.T) {
	t.Run("self registration starts pending with derived limit", func(t *testing.T) {
		f := newCustomerFixture(t)
		actor := uuid.New()

		f.customerRepo.On("ExistsByAccountNumber", mock.Anything, mock.Anything).Return(false, nil)
		f.customerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		customer, err := f.service.Register(context.Background(), &domain.RegisterCustomerRequest{
			UserID:      actor.String(),
			AccountType: domain.AccountTypeIndividual,
			Address:     "12 Marina Road, Lagos",
		}, actor, domain.RoleCustomer, "10.0.0.1")

		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalStatusPending, customer.ApprovalStatus)
		assert.Equal(t, 1, customer.Tier)
		assert.Equal(t, 300, customer.CreditScore)
		assert.Len(t, customer.AccountNumber, 10)
		// Tier 1 base 200000 at the base score band (x0.8).
		assert.True(t, customer.CurrentBorrowLimit.Equal(decimal.NewFromInt(160000)),
			"got %s", customer.CurrentBorrowLimit)
		assert.False(t, customer.CreatedBy.Valid)
	})

	t.Run("staff registration is approved immediately", func(t *testing.T) {
		f := newCustomerFixture(t)
		staff := uuid.New()

		f.customerRepo.On("ExistsByAccountNumber", mock.Anything, mock.Anything).Return(false, nil)
		f.customerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		customer, err := f.service.Register(context.Background(), &domain.RegisterCustomerRequest{
			UserID:      uuid.New().String(),
			AccountType: domain.AccountTypeBusiness,
			Tier:        3,
			Address:     "4 Broad Street",
		}, staff, domain.RoleAccountOfficer, "")

		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalStatusApproved, customer.ApprovalStatus)
		assert.Equal(t, 3, customer.Tier)
		assert.Equal(t, staff, customer.CreatedBy.UUID)
		// Tier 3 base 2000000 x0.8.
		assert.True(t, customer.CurrentBorrowLimit.Equal(decimal.NewFromInt(1600000)))
	})

	t.Run("retries account number collisions", func(t *testing.T) {
		f := newCustomerFixture(t)

		f.customerRepo.On("ExistsByAccountNumber", mock.Anything, mock.Anything).Return(true, nil).Twice()
		f.customerRepo.On("ExistsByAccountNumber", mock.Anything, mock.Anything).Return(false, nil).Once()
		f.customerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.Register(context.Background(), &domain.RegisterCustomerRequest{
			UserID:      uuid.New().String(),
			AccountType: domain.AccountTypeIndividual,
			Address:     "somewhere",
		}, uuid.New(), domain.RoleAdmin, "")

		require.NoError(t, err)
		f.customerRepo.AssertNumberOfCalls(t, "ExistsByAccountNumber", 3)
	})

	t.Run("gives up after exhausting collision retries", func(t *testing.T) {
		f := newCustomerFixture(t)

		f.customerRepo.On("ExistsByAccountNumber", mock.Anything, mock.Anything).Return(true, nil)

		_, err := f.service.Register(context.Background(), &domain.RegisterCustomerRequest{
			UserID:      uuid.New().String(),
			AccountType: domain.AccountTypeIndividual,
			Address:     "somewhere",
		}, uuid.New(), domain.RoleAdmin, "")

		assertDomainCode(t, err, customError.CodeAccountNumberCollision)
		assert.Equal(t, customError.KindIntegrity, customError.KindOf(err))
	})
}

func TestAssignStaff(t *testing.T) {
	t.Run("assigns a staff member with audit fields", func(t *testing.T) {
		f := newCustomerFixture(t)
		customer := eligibleCustomer()
		staff := &domain.User{ID: uuid.New(), Role: domain.RoleRelationshipOfficer}
		admin := uuid.New()

		f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
		f.userRepo.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)
		f.customerRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
			return c.AssignedStaffID.UUID == staff.ID && c.AssignedBy.UUID == admin && c.AssignedDate.Valid
		})).Return(nil)

		got, err := f.service.AssignStaff(context.Background(), customer.ID, staff.ID, admin, "")
		require.NoError(t, err)
		assert.Equal(t, staff.ID, got.AssignedStaffID.UUID)
	})

	t.Run("rejects assignment of a non staff user", func(t *testing.T) {
		f := newCustomerFixture(t)
		customer := eligibleCustomer()
		notStaff := &domain.User{ID: uuid.New(), Role: domain.RoleCustomer}

		f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
		f.userRepo.On("GetByID", mock.Anything, notStaff.ID).Return(notStaff, nil)

		_, err := f.service.AssignStaff(context.Background(), customer.ID, notStaff.ID, uuid.New(), "")
		assert.Equal(t, customError.KindValidation, customError.KindOf(err))
	})

	t.Run("reports a missing staff user", func(t *testing.T) {
		f := newCustomerFixture(t)
		customer := eligibleCustomer()
		staffID := uuid.New()

		f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
		f.userRepo.On("GetByID", mock.Anything, staffID).Return(nil, sql.ErrNoRows)

		_, err := f.service.AssignStaff(context.Background(), customer.ID, staffID, uuid.New(), "")
		assertDomainCode(t, err, customError.CodeStaffNotFound)
	})
}

func TestRefreshCreditProfile(t *testing.T) {
	f := newCustomerFixture(t)
	customer := eligibleCustomer()
	customer.Tier = 2

	due := f.now.AddDate(0, 0, -30)
	loans := []*domain.Loan{
		{ID: uuid.New(), CustomerID: customer.ID, Status: domain.LoanStatusCompleted},
		{ID: uuid.New(), CustomerID: customer.ID, Status: domain.LoanStatusActive},
	}
	payments := []*domain.Payment{
		{Status: domain.PaymentStatusCompleted, DueDate: due, PaidDate: sql.NullTime{Time: due.AddDate(0, 0, -1), Valid: true}},
		{Status: domain.PaymentStatusCompleted, DueDate: due, PaidDate: sql.NullTime{Time: due.AddDate(0, 0, -2), Valid: true}},
		{Status: domain.PaymentStatusCompleted, DueDate: due, PaidDate: sql.NullTime{Time: due.AddDate(0, 0, 3), Valid: true}},
		{Status: domain.PaymentStatusOverdue, DueDate: due},
	}

	f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	f.loanRepo.On("ListByCustomer", mock.Anything, customer.ID).Return(loans, nil)
	f.paymentRepo.On("ListByCustomer", mock.Anything, customer.ID).Return(payments, nil)
	f.customerRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	got, err := f.service.RefreshCreditProfile(context.Background(), customer.ID)
	require.NoError(t, err)

	// base 300 + on-time 2/4*150 + history 2*10 + tier 2*25 - late 2*20 = 405.
	assert.Equal(t, 405, got.CreditScore)
	// Tier 2 base 500000, score below 550 keeps the x0.8 multiplier.
	assert.True(t, got.CurrentBorrowLimit.Equal(decimal.NewFromInt(400000)),
		"got %s", got.CurrentBorrowLimit)

	// Recomputing from the same history yields the same profile.
	again, err := f.service.RefreshCreditProfile(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, got.CreditScore, again.CreditScore)
	assert.True(t, got.CurrentBorrowLimit.Equal(again.CurrentBorrowLimit))
}

func TestCustomerDashboard(t *testing.T) {
	f := newCustomerFixture(t)
	customer := eligibleCustomer()

	active := &domain.Loan{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Amount:         decimal.NewFromInt(12000),
		InterestRate:   decimal.Zero,
		DurationMonths: 12,
		Status:         domain.LoanStatusActive,
	}
	done := &domain.Loan{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Amount:         decimal.NewFromInt(5000),
		InterestRate:   decimal.Zero,
		DurationMonths: 10,
		Status:         domain.LoanStatusCompleted,
	}
	next := &domain.Payment{ID: uuid.New(), LoanID: active.ID, DueDate: f.now.AddDate(0, 0, 12)}

	f.customerRepo.On("GetByID", mock.Anything, customer.ID).Return(customer, nil)
	f.loanRepo.On("ListByCustomer", mock.Anything, customer.ID).Return([]*domain.Loan{active, done}, nil)
	f.paymentRepo.On("SumCompletedByLoan", mock.Anything, active.ID).Return(decimal.NewFromInt(4000), nil)
	f.paymentRepo.On("NextDueByCustomer", mock.Anything, customer.ID).Return(next, nil)

	dashboard, err := f.service.Dashboard(context.Background(), customer.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, dashboard.ActiveLoans)
	assert.Equal(t, 1, dashboard.CompletedLoans)
	assert.True(t, dashboard.TotalBorrowed.Equal(decimal.NewFromInt(17000)))
	assert.True(t, dashboard.OutstandingBalance.Equal(decimal.NewFromInt(8000)))
	require.NotNil(t, dashboard.NextPaymentDue)
	assert.Equal(t, next.ID, dashboard.NextPaymentDue.ID)
}

func TestOwns(t *testing.T) {
	f := newCustomerFixture(t)
	customer := eligibleCustomer()

	f.customerRepo.On("GetByUserID", mock.Anything, customer.UserID).Return(customer, nil)

	owns, err := f.service.Owns(context.Background(), customer.UserID, customer.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = f.service.Owns(context.Background(), customer.UserID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestOwnsWithoutProfile(t *testing.T) {
	f := newCustomerFixture(t)
	userID := uuid.New()

	f.customerRepo.On("GetByUserID", mock.Anything, userID).Return((*domain.Customer)(nil), sql.ErrNoRows)

	_, err := f.service.Owns(context.Background(), userID, uuid.New())
	assertDomainCode(t, err, customError.CodeCustomerNotFound)
}
