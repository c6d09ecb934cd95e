package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/config"
	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
	"github.com/loanpro/loanpro-backend/pkg/utils"
)

// LoanService drives the loan lifecycle: application, approval, rejection,
// disbursement and re-application.
type LoanService struct {
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	customerRepo repository.CustomerRepository
	customers    *CustomerService
	kyc          *KYCService
	audit        *AuditService
	config       *config.Config
	collector    *metrics.Collector
	now          func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	customerRepo repository.CustomerRepository,
	customers *CustomerService,
	kyc *KYCService,
	audit *AuditService,
	cfg *config.Config,
	collector *metrics.Collector,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		customers:    customers,
		kyc:          kyc,
		audit:        audit,
		config:       cfg,
		collector:    collector,
		now:          time.Now,
	}
}

// Apply validates a loan application against the eligibility gate, the borrow
// limit and the duration bounds, then creates the loan in pending status.
func (s *LoanService) Apply(ctx context.Context, req *domain.ApplyLoanRequest, requestedBy uuid.UUID, ipAddress string) (*domain.Loan, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, customError.NewValidationError(customError.CodeInvalidInput, "customer_id", "customer_id must be a valid UUID")
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(req.CustomerID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err := s.validateApplication(ctx, customer, req.Amount, req.DurationMonths); err != nil {
		return nil, err
	}

	rate := req.InterestRate
	if rate.IsZero() {
		rate = s.config.GetDefaultInterestRate()
	}

	now := s.now()
	loan := &domain.Loan{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Amount:         req.Amount,
		InterestRate:   rate,
		DurationMonths: req.DurationMonths,
		Status:         domain.LoanStatusPending,
		RequestedBy:    requestedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.collector.LoanCreated()
	s.audit.Record(ctx, requestedBy, domain.AuditActionCreate, "Loan", loan.ID.String(),
		map[string]interface{}{
			"customer": customer.AccountNumber,
			"amount":   loan.Amount.String(),
		}, ipAddress)

	return loan, nil
}

// validateApplication runs the application checks in gate order: eligibility,
// single active loan, borrow limit, amount-dependent duration bounds.
func (s *LoanService) validateApplication(ctx context.Context, customer *domain.Customer, amount decimal.Decimal, durationMonths int) error {
	if err := s.kyc.EnsureEligible(ctx, customer); err != nil {
		return err
	}

	active, err := s.loanRepo.CountByCustomerAndStatus(ctx, customer.ID, domain.LoanStatusActive)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if active > 0 {
		return customError.NewEligibilityError(customError.CodeActiveLoanExists,
			"Customer has an active loan. Only one active loan per customer is allowed")
	}

	if !amount.IsPositive() {
		return customError.NewValidationError(customError.CodeAmountOutOfRange, "amount",
			"Loan amount must be greater than zero")
	}

	if amount.GreaterThan(customer.CurrentBorrowLimit) {
		return customError.WrapBorrowLimitExceeded(amount.StringFixed(2), customer.CurrentBorrowLimit.StringFixed(2))
	}

	if durationMonths <= 0 {
		return customError.NewValidationError(customError.CodeDurationOutOfBounds, "duration_months",
			"Loan duration must be at least one month")
	}

	if amount.GreaterThan(s.config.GetLargeLoanThreshold()) && durationMonths > s.config.Business.LargeLoanMaxMonths {
		return customError.NewValidationError(customError.CodeDurationOutOfBounds, "duration_months",
			fmt.Sprintf("For loans over %s, maximum duration is %d months",
				s.config.GetLargeLoanThreshold().StringFixed(0), s.config.Business.LargeLoanMaxMonths))
	}

	if amount.LessThanOrEqual(s.config.GetSmallLoanThreshold()) && durationMonths > s.config.Business.SmallLoanMaxMonths {
		return customError.NewValidationError(customError.CodeDurationOutOfBounds, "duration_months",
			fmt.Sprintf("For loans of %s or less, maximum duration is %d months",
				s.config.GetSmallLoanThreshold().StringFixed(0), s.config.Business.SmallLoanMaxMonths))
	}

	return nil
}

// transition moves a loan to target. The lifecycle table is the authority on
// which moves exist; the repository compare-and-set then guards against a
// concurrent writer having moved the loan first. On success the in-memory
// status is advanced.
func (s *LoanService) transition(ctx context.Context, loan *domain.Loan, target domain.LoanStatus) error {
	if !loan.Status.CanTransitionTo(target) {
		return customError.WrapInvalidTransition(string(loan.Status), string(target))
	}

	ok, err := s.loanRepo.CompareAndSetStatus(ctx, loan.ID, loan.Status, target)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !ok {
		return customError.WrapInvalidTransition(string(loan.Status), string(target))
	}

	loan.Status = target
	return nil
}

// GetByID fetches a loan.
func (s *LoanService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

// Approve moves a pending loan to approved, recording the approver. The
// customer's address must be verified first.
func (s *LoanService) Approve(ctx context.Context, loanID, approverID uuid.UUID, ipAddress string) (*domain.Loan, error) {
	loan, err := s.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !loan.Status.CanTransitionTo(domain.LoanStatusApproved) {
		return nil, customError.WrapInvalidTransition(string(loan.Status), string(domain.LoanStatusApproved))
	}

	customer, err := s.customerRepo.GetByID(ctx, loan.CustomerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !customer.IsAddressVerified {
		return nil, customError.NewEligibilityError(customError.CodeAddressNotVerified,
			"Customer address must be verified before loan approval")
	}

	if err := s.transition(ctx, loan, domain.LoanStatusApproved); err != nil {
		return nil, err
	}

	loan.ApprovedBy = uuid.NullUUID{UUID: approverID, Valid: true}
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.collector.LoanApproved()
	s.audit.Record(ctx, approverID, domain.AuditActionApprove, "Loan", loan.ID.String(),
		map[string]interface{}{"status": "approved"}, ipAddress)

	return loan, nil
}

// Reject moves a pending loan to rejected, recording the reviewer and an
// optional reason.
func (s *LoanService) Reject(ctx context.Context, loanID, approverID uuid.UUID, reason, ipAddress string) (*domain.Loan, error) {
	loan, err := s.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, loan, domain.LoanStatusRejected); err != nil {
		return nil, err
	}

	loan.ApprovedBy = uuid.NullUUID{UUID: approverID, Valid: true}
	loan.RejectReason = sql.NullString{String: reason, Valid: reason != ""}
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.collector.LoanRejected()
	s.audit.Record(ctx, approverID, domain.AuditActionReject, "Loan", loan.ID.String(),
		map[string]interface{}{"status": "rejected", "reason": reason}, ipAddress)

	return loan, nil
}

// Disburse releases the funds of an approved loan: it stamps the disbursement
// time, sets the final due date and generates the full payment schedule. The
// status update is a compare-and-set, so concurrent attempts cannot create a
// duplicate schedule.
func (s *LoanService) Disburse(ctx context.Context, loanID, actorID uuid.UUID, ipAddress string) (*domain.Loan, []*domain.Payment, error) {
	loan, err := s.GetByID(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if !loan.Status.CanTransitionTo(domain.LoanStatusDisbursed) {
		return nil, nil, customError.WrapInvalidTransition(string(loan.Status), string(domain.LoanStatusDisbursed))
	}

	disbursedAt := s.now()
	dueDate := utils.LoanDueDate(disbursedAt, loan.DurationMonths)

	ok, err := s.loanRepo.Disburse(ctx, loan.ID, disbursedAt, dueDate)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}
	if !ok {
		// Another request won the compare-and-set.
		return nil, nil, customError.WrapInvalidTransition(string(domain.LoanStatusApproved), string(domain.LoanStatusDisbursed))
	}

	loan.Status = domain.LoanStatusDisbursed
	loan.DisbursedAt = sql.NullTime{Time: disbursedAt, Valid: true}
	if !loan.DueDate.Valid {
		loan.DueDate = sql.NullTime{Time: dueDate, Valid: true}
	}

	schedule, err := s.generateSchedule(ctx, loan, disbursedAt)
	if err != nil {
		return nil, nil, err
	}

	s.collector.LoanDisbursed()
	s.audit.Record(ctx, actorID, domain.AuditActionUpdate, "Loan", loan.ID.String(),
		map[string]interface{}{
			"status":       "disbursed",
			"disbursed_at": disbursedAt.Format(time.RFC3339),
		}, ipAddress)

	return loan, schedule, nil
}

// generateSchedule creates one installment per month of duration, each for
// the same annuity amount, due dates 30 days apart starting 30 days after
// disbursement.
func (s *LoanService) generateSchedule(ctx context.Context, loan *domain.Loan, disbursedAt time.Time) ([]*domain.Payment, error) {
	monthlyPayment := utils.CalculateMonthlyPayment(loan.Amount, loan.InterestRate, loan.DurationMonths)

	schedule := make([]*domain.Payment, 0, loan.DurationMonths)
	for installment := 1; installment <= loan.DurationMonths; installment++ {
		schedule = append(schedule, &domain.Payment{
			ID:        uuid.New(),
			LoanID:    loan.ID,
			Amount:    monthlyPayment,
			DueDate:   utils.InstallmentDueDate(disbursedAt, installment),
			Status:    domain.PaymentStatusPending,
			CreatedAt: disbursedAt,
		})
	}

	if err := s.paymentRepo.CreateBatch(ctx, schedule); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return schedule, nil
}

// RequestAnother lets a customer apply for a follow-up loan: the current loan
// must have at least one completed payment and no application may already be
// pending. The credit profile is refreshed before the new application is
// validated so the limit check uses current numbers.
func (s *LoanService) RequestAnother(ctx context.Context, currentLoanID uuid.UUID, req *domain.ApplyLoanRequest, requestedBy uuid.UUID, ipAddress string) (*domain.Loan, error) {
	current, err := s.GetByID(ctx, currentLoanID)
	if err != nil {
		return nil, err
	}

	completed, err := s.paymentRepo.CountCompletedByLoan(ctx, current.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if completed == 0 {
		return nil, customError.NewEligibilityError(customError.CodeNoCompletedPayment,
			"At least one payment must be completed before requesting another loan")
	}

	pending, err := s.loanRepo.CountByCustomerAndStatus(ctx, current.CustomerID, domain.LoanStatusPending)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if pending > 0 {
		return nil, customError.NewEligibilityError(customError.CodePendingLoanExists,
			"You already have a pending loan request")
	}

	if _, err := s.customers.RefreshCreditProfile(ctx, current.CustomerID); err != nil {
		return nil, err
	}

	req.CustomerID = current.CustomerID.String()
	return s.Apply(ctx, req, requestedBy, ipAddress)
}

// Outstanding computes total repayable minus completed payments.
func (s *LoanService) Outstanding(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	loan, err := s.GetByID(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	paid, err := s.paymentRepo.SumCompletedByLoan(ctx, loan.ID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}

	total := utils.TotalRepayable(loan.Amount, loan.InterestRate, loan.DurationMonths)
	return total.Sub(paid), nil
}

// Schedule returns the payment schedule for a loan ordered by due date.
func (s *LoanService) Schedule(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.GetByID(ctx, loanID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

// MarkDefaults flags disbursed and active loans past their final due date
// with money still owed. Used by the scheduler.
func (s *LoanService) MarkDefaults(ctx context.Context) (int, error) {
	defaulted := 0
	today := s.now()

	for _, status := range []domain.LoanStatus{domain.LoanStatusDisbursed, domain.LoanStatusActive} {
		loans, err := s.loanRepo.ListByStatus(ctx, status)
		if err != nil {
			return defaulted, customError.WrapDatabaseError(err)
		}

		for _, loan := range loans {
			if !loan.Status.CanTransitionTo(domain.LoanStatusDefaulted) {
				continue
			}
			if !loan.DueDate.Valid || !today.After(loan.DueDate.Time) {
				continue
			}

			outstanding, err := s.Outstanding(ctx, loan.ID)
			if err != nil {
				return defaulted, err
			}
			if outstanding.LessThanOrEqual(decimal.Zero) {
				continue
			}

			ok, err := s.loanRepo.CompareAndSetStatus(ctx, loan.ID, status, domain.LoanStatusDefaulted)
			if err != nil {
				return defaulted, customError.WrapDatabaseError(err)
			}
			if ok {
				defaulted++
				logrus.WithField("loan_id", loan.ID).Info("loan marked defaulted")
			}
		}
	}

	return defaulted, nil
}

// AdminStats summarizes the lending book for the admin dashboard.
type AdminStats struct {
	TotalCustomers       int             `json:"total_customers"`
	TotalLoans           int             `json:"total_loans"`
	ActiveLoans          int             `json:"active_loans"`
	PendingLoans         int             `json:"pending_loans"`
	TotalAmountDisbursed decimal.Decimal `json:"total_amount_disbursed"`
	TotalAmountCollected decimal.Decimal `json:"total_amount_collected"`
}

// Stats aggregates book-wide counts and sums.
func (s *LoanService) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	var err error
	if stats.TotalCustomers, err = s.customerRepo.Count(ctx); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if stats.TotalLoans, err = s.loanRepo.CountByStatuses(ctx, domain.LoanStatuses()); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if stats.ActiveLoans, err = s.loanRepo.CountByStatuses(ctx, []domain.LoanStatus{domain.LoanStatusActive, domain.LoanStatusDisbursed}); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if stats.PendingLoans, err = s.loanRepo.CountByStatuses(ctx, []domain.LoanStatus{domain.LoanStatusPending}); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	disbursedStatuses := []domain.LoanStatus{domain.LoanStatusDisbursed, domain.LoanStatusActive, domain.LoanStatusCompleted}
	if stats.TotalAmountDisbursed, err = s.loanRepo.SumAmountByStatuses(ctx, disbursedStatuses); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if stats.TotalAmountCollected, err = s.paymentRepo.SumCompleted(ctx); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return stats, nil
}
