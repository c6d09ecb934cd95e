package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
	customError "github.com/loanpro/loanpro-backend/pkg/errors"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
	"github.com/loanpro/loanpro-backend/pkg/utils"
)

// PaymentService records installment payments and applies their lifecycle
// side effects on the owning loan and the customer's credit profile.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	loanRepo    repository.LoanRepository
	customers   *CustomerService
	audit       *AuditService
	collector   *metrics.Collector
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	loanRepo repository.LoanRepository,
	customers *CustomerService,
	audit *AuditService,
	collector *metrics.Collector,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		customers:   customers,
		audit:       audit,
		collector:   collector,
		now:         time.Now,
	}
}

// GetByID fetches a single payment.
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapPaymentNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return payment, nil
}

// PaymentDetail pairs a payment with its overdue age in days.
type PaymentDetail struct {
	Payment     *domain.Payment `json:"payment"`
	DaysOverdue int             `json:"days_overdue"`
}

// Detail returns a payment with its overdue age measured against the service
// clock.
func (s *PaymentService) Detail(ctx context.Context, id uuid.UUID) (*PaymentDetail, error) {
	payment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentDetail{
		Payment:     payment,
		DaysOverdue: payment.DaysOverdue(s.now()),
	}, nil
}

// Record marks an installment as paid. A completed payment cannot be paid
// again. Side effects: the first payment activates a disbursed loan, settling
// the full balance completes it, and the customer's credit profile is
// recomputed either way.
func (s *PaymentService) Record(ctx context.Context, paymentID, actorID uuid.UUID, ipAddress string) (*domain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status == domain.PaymentStatusCompleted {
		return nil, customError.WrapPaymentAlreadyCompleted(payment.ID.String())
	}

	loan, err := s.loanRepo.GetByID(ctx, payment.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.PaidDate = sql.NullTime{Time: s.now(), Valid: true}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if err := s.applyLoanSideEffects(ctx, loan); err != nil {
		return nil, err
	}

	if _, err := s.customers.RefreshCreditProfile(ctx, loan.CustomerID); err != nil {
		// The payment is recorded; a stale score self-heals on the next
		// recompute.
		logrus.WithError(err).WithField("customer_id", loan.CustomerID).Warn("refreshing credit profile after payment")
	}

	s.collector.PaymentRecorded()
	s.audit.Record(ctx, actorID, domain.AuditActionUpdate, "Payment", payment.ID.String(),
		map[string]interface{}{
			"status":    "completed",
			"loan_id":   loan.ID.String(),
			"paid_date": payment.PaidDate.Time.Format(time.RFC3339),
		}, ipAddress)

	return payment, nil
}

// applyLoanSideEffects moves the loan forward after a recorded payment:
// disbursed loans become active on their first payment, and a fully settled
// balance completes the loan. Both moves are gated by the lifecycle table and
// performed as compare-and-sets, so a racing writer simply wins.
func (s *PaymentService) applyLoanSideEffects(ctx context.Context, loan *domain.Loan) error {
	status := loan.Status

	if status.CanTransitionTo(domain.LoanStatusActive) {
		ok, err := s.loanRepo.CompareAndSetStatus(ctx, loan.ID, status, domain.LoanStatusActive)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if ok {
			status = domain.LoanStatusActive
		}
	}

	paid, err := s.paymentRepo.SumCompletedByLoan(ctx, loan.ID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	total := utils.TotalRepayable(loan.Amount, loan.InterestRate, loan.DurationMonths)
	if total.Sub(paid).LessThanOrEqual(decimal.Zero) && status.CanTransitionTo(domain.LoanStatusCompleted) {
		ok, err := s.loanRepo.CompareAndSetStatus(ctx, loan.ID, status, domain.LoanStatusCompleted)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if ok {
			status = domain.LoanStatusCompleted
		}
	}

	loan.Status = status
	return nil
}

// ListByLoan returns the payments of a loan ordered by due date.
func (s *PaymentService) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// ListByCustomer returns every payment across the customer's loans.
func (s *PaymentService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// MarkOverdue flags pending payments whose due date has passed. Used by the
// scheduler.
func (s *PaymentService) MarkOverdue(ctx context.Context) (int64, error) {
	marked, err := s.paymentRepo.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return marked, nil
}
