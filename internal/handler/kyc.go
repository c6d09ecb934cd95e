package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/loanpro/loanpro-backend/internal/auth"
	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

type KYCHandler struct {
	service   *service.KYCService
	validator *validator.Validate
}

func NewKYCHandler(service *service.KYCService) *KYCHandler {
	return &KYCHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Submit records the customer's BVN/NIN documents for review.
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req domain.SubmitKYCRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	kyc, err := h.service.Submit(r.Context(), &req, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, kyc)
}

// Verify is the staff review step.
func (h *KYCHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	var req domain.VerifyKYCRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	kyc, err := h.service.Verify(r.Context(), customerID, &req, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, kyc)
}

// Status reports the customer's KYC status, including not_started when no
// record exists yet.
func (h *KYCHandler) Status(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), customerID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": string(status)})
}
