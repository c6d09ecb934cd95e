package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/loanpro/loanpro-backend/internal/auth"
	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Apply submits a loan application.
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req domain.ApplyLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.Apply(r.Context(), &req, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, domain.ApplyLoanResponse{Loan: loan})
}

// Get returns a single loan.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.GetByID(r.Context(), loanID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, loan)
}

// Approve moves a pending loan to approved.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.Approve(r.Context(), loanID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, loan)
}

// Reject moves a pending loan to rejected with an optional reason.
func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var req domain.RejectLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.Reject(r.Context(), loanID, actor.ID, req.Reason, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, loan)
}

// Disburse releases the funds and returns the generated payment schedule.
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, schedule, err := h.service.Disburse(r.Context(), loanID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, domain.DisburseLoanResponse{Loan: loan, Schedule: schedule})
}

// RequestAnother applies for a follow-up loan against an existing one.
func (h *LoanHandler) RequestAnother(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var req domain.ApplyLoanRequest
	// CustomerID comes from the current loan, so only amount and duration are
	// required here.
	if !decodeJSON(w, r, &req) {
		return
	}

	loan, err := h.service.RequestAnother(r.Context(), loanID, &req, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, domain.ApplyLoanResponse{Loan: loan})
}

// Outstanding returns the remaining balance on a loan.
func (h *LoanHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	outstanding, err := h.service.Outstanding(r.Context(), loanID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, domain.OutstandingResponse{
		LoanID:      loanID.String(),
		Outstanding: outstanding,
	})
}

// Schedule returns the loan's payment schedule.
func (h *LoanHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	schedule, err := h.service.Schedule(r.Context(), loanID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, domain.ScheduleResponse{
		LoanID:   loanID.String(),
		Schedule: schedule,
	})
}

// Stats returns the admin dashboard aggregates.
func (h *LoanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, stats)
}
