package handler

import (
	"net/http"

	"github.com/loanpro/loanpro-backend/internal/auth"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

type PaymentHandler struct {
	service *service.PaymentService
}

func NewPaymentHandler(service *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Record marks an installment as paid.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	paymentID, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}

	payment, err := h.service.Record(r.Context(), paymentID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, payment)
}

// Get returns a single payment with its overdue standing.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathUUID(w, r, "paymentId")
	if !ok {
		return
	}

	detail, err := h.service.Detail(r.Context(), paymentID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, detail)
}

// ListByLoan returns a loan's payments ordered by due date.
func (h *PaymentHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	payments, err := h.service.ListByLoan(r.Context(), loanID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, payments)
}
