package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/config"
	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
	"github.com/loanpro/loanpro-backend/internal/scoring"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
	"github.com/loanpro/loanpro-backend/pkg/utils"
)

// CustomerService handles onboarding, staff assignment, address verification
// and the credit score / borrow limit recomputation cycle.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	audit        *AuditService
	redis        *redis.Client
	config       *config.Config
	scoringCfg   scoring.Config
	collector    *metrics.Collector
	now          func() time.Time
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	userRepo repository.UserRepository,
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	audit *AuditService,
	redisClient *redis.Client,
	cfg *config.Config,
	scoringCfg scoring.Config,
	collector *metrics.Collector,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		userRepo:     userRepo,
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		audit:        audit,
		redis:        redisClient,
		config:       cfg,
		scoringCfg:   scoringCfg,
		collector:    collector,
		now:          time.Now,
	}
}

// Register creates a customer profile. Self-registered customers start with a
// pending approval status; staff-created ones are approved immediately. The
// borrow limit is seeded through the calculator so the tier/score invariant
// holds from day one.
func (s *CustomerService) Register(ctx context.Context, req *domain.RegisterCustomerRequest, actorID uuid.UUID, actorRole domain.Role, ipAddress string) (*domain.Customer, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, customError.NewValidationError(customError.CodeInvalidInput, "user_id", "user_id must be a valid UUID")
	}

	tier := req.Tier
	if tier == 0 {
		tier = 1
	}

	accountNumber, err := s.allocateAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	approval := domain.ApprovalStatusApproved
	if actorRole == domain.RoleCustomer {
		approval = domain.ApprovalStatusPending
	}

	now := s.now()
	customer := &domain.Customer{
		ID:                 uuid.New(),
		UserID:             userID,
		AccountNumber:      accountNumber,
		AccountType:        req.AccountType,
		Tier:               tier,
		CreditScore:        s.scoringCfg.BaseScore,
		CurrentBorrowLimit: scoring.BorrowLimit(s.scoringCfg, tier, s.scoringCfg.BaseScore),
		Address:            req.Address,
		ApprovalStatus:     approval,
		CreatedBy:          uuid.NullUUID{UUID: actorID, Valid: actorRole != domain.RoleCustomer},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionCreate, "Customer", customer.ID.String(),
		map[string]interface{}{
			"account_number":  customer.AccountNumber,
			"approval_status": string(customer.ApprovalStatus),
		}, ipAddress)

	return customer, nil
}

// allocateAccountNumber draws random 10-digit numbers until one is free.
// Collisions are rare and transient, so a bounded retry is enough; exhausting
// it is an integrity failure.
func (s *CustomerService) allocateAccountNumber(ctx context.Context) (string, error) {
	attempts := s.config.Business.AccountNumberAttempts
	for i := 0; i < attempts; i++ {
		candidate := utils.GenerateAccountNumber()
		taken, err := s.customerRepo.ExistsByAccountNumber(ctx, candidate)
		if err != nil {
			return "", customError.WrapDatabaseError(err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", customError.WrapAccountNumberCollision(attempts)
}

// GetByID fetches a customer profile.
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}

// GetByUserID fetches the customer profile owned by a user.
func (s *CustomerService) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(userID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}

// Owns reports whether the user owns the customer profile. Used to scope
// customer-facing reads to the caller's own data.
func (s *CustomerService) Owns(ctx context.Context, userID, customerID uuid.UUID) (bool, error) {
	customer, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return customer.ID == customerID, nil
}

// ApproveAccount moves a customer's account to the approved status.
func (s *CustomerService) ApproveAccount(ctx context.Context, customerID uuid.UUID, actorID uuid.UUID, ipAddress string) (*domain.Customer, error) {
	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	customer.ApprovalStatus = domain.ApprovalStatusApproved
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionApprove, "Customer", customer.ID.String(),
		map[string]interface{}{"approval_status": "approved"}, ipAddress)

	return customer, nil
}

// VerifyAddress marks the customer's address as verified, a precondition for
// loan approval.
func (s *CustomerService) VerifyAddress(ctx context.Context, customerID uuid.UUID, actorID uuid.UUID, ipAddress string) (*domain.Customer, error) {
	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	customer.IsAddressVerified = true
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionVerify, "Customer", customer.ID.String(),
		map[string]interface{}{"address_verified": true}, ipAddress)

	return customer, nil
}

// AssignStaff assigns a staff member to manage the customer relationship.
func (s *CustomerService) AssignStaff(ctx context.Context, customerID, staffID, actorID uuid.UUID, ipAddress string) (*domain.Customer, error) {
	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	staff, err := s.userRepo.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapStaffNotFound(staffID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if !staff.Role.IsStaff() {
		return nil, customError.NewValidationError(customError.CodeInvalidInput, "staff_id",
			"Assigned user must hold a staff role")
	}

	customer.AssignedStaffID = uuid.NullUUID{UUID: staff.ID, Valid: true}
	customer.AssignedDate = sql.NullTime{Time: s.now(), Valid: true}
	customer.AssignedBy = uuid.NullUUID{UUID: actorID, Valid: true}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit.Record(ctx, actorID, domain.AuditActionAssign, "Customer", customer.ID.String(),
		map[string]interface{}{"assigned_staff": staffID.String()}, ipAddress)

	return customer, nil
}

// history loads the customer's full loan and payment history for scoring.
func (s *CustomerService) history(ctx context.Context, customer *domain.Customer) (scoring.History, error) {
	loans, err := s.loanRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return scoring.History{}, customError.WrapDatabaseError(err)
	}

	payments, err := s.paymentRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return scoring.History{}, customError.WrapDatabaseError(err)
	}

	return scoring.History{Tier: customer.Tier, Loans: loans, Payments: payments}, nil
}

// RefreshCreditProfile recomputes the credit score and borrow limit from the
// current history and persists both. The recomputation is a pure function of
// the history, so re-running it is always safe.
func (s *CustomerService) RefreshCreditProfile(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	h, err := s.history(ctx, customer)
	if err != nil {
		return nil, err
	}

	customer.CreditScore = scoring.Score(s.scoringCfg, h)
	customer.CurrentBorrowLimit = scoring.BorrowLimit(s.scoringCfg, customer.Tier, customer.CreditScore)

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.collector.ObserveCreditScore(customer.CreditScore)
	s.invalidateBreakdown(ctx, customerID)

	return customer, nil
}

// ScoreBreakdown returns the per-factor credit score decomposition, cached in
// Redis for a short TTL. Cache failures fall through to recomputation.
func (s *CustomerService) ScoreBreakdown(ctx context.Context, customerID uuid.UUID) (*domain.CreditScoreBreakdown, error) {
	key := breakdownCacheKey(customerID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			var breakdown domain.CreditScoreBreakdown
			if err := json.Unmarshal([]byte(cached), &breakdown); err == nil {
				return &breakdown, nil
			}
		}
	}

	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	h, err := s.history(ctx, customer)
	if err != nil {
		return nil, err
	}

	breakdown := scoring.Breakdown(s.scoringCfg, h)

	if s.redis != nil {
		if encoded, err := json.Marshal(breakdown); err == nil {
			if err := s.redis.Set(ctx, key, encoded, s.config.GetScoreCacheTTL()).Err(); err != nil {
				logrus.WithError(err).Warn("caching score breakdown")
			}
		}
	}

	return &breakdown, nil
}

func (s *CustomerService) invalidateBreakdown(ctx context.Context, customerID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, breakdownCacheKey(customerID)).Err(); err != nil {
		logrus.WithError(err).Warn("invalidating score breakdown cache")
	}
}

func breakdownCacheKey(customerID uuid.UUID) string {
	return fmt.Sprintf("score:breakdown:%s", customerID)
}

// CustomerDashboard summarizes a customer's borrowing position.
type CustomerDashboard struct {
	ActiveLoans        int             `json:"active_loans"`
	CompletedLoans     int             `json:"completed_loans"`
	TotalBorrowed      decimal.Decimal `json:"total_borrowed"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	NextPaymentDue     *domain.Payment `json:"next_payment_due,omitempty"`
}

// Dashboard aggregates the customer's loans and upcoming payment.
func (s *CustomerService) Dashboard(ctx context.Context, customerID uuid.UUID) (*CustomerDashboard, error) {
	customer, err := s.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	dashboard := &CustomerDashboard{
		TotalBorrowed:      decimal.Zero,
		OutstandingBalance: decimal.Zero,
	}

	for _, loan := range loans {
		dashboard.TotalBorrowed = dashboard.TotalBorrowed.Add(loan.Amount)

		switch loan.Status {
		case domain.LoanStatusCompleted:
			dashboard.CompletedLoans++
		case domain.LoanStatusActive, domain.LoanStatusDisbursed:
			dashboard.ActiveLoans++

			paid, err := s.paymentRepo.SumCompletedByLoan(ctx, loan.ID)
			if err != nil {
				return nil, customError.WrapDatabaseError(err)
			}
			total := utils.TotalRepayable(loan.Amount, loan.InterestRate, loan.DurationMonths)
			dashboard.OutstandingBalance = dashboard.OutstandingBalance.Add(total.Sub(paid))
		}
	}

	next, err := s.paymentRepo.NextDueByCustomer(ctx, customer.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}
	dashboard.NextPaymentDue = next

	return dashboard, nil
}
