package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/loanpro/loanpro-backend/internal/auth"
	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

type CustomerHandler struct {
	service   *service.CustomerService
	validator *validator.Validate
}

func NewCustomerHandler(service *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Register creates a customer profile. Staff-created profiles are approved
// immediately; self-registered ones wait for approval.
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req domain.RegisterCustomerRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	customer, err := h.service.Register(r.Context(), &req, actor.ID, actor.Role, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Created(w, customer)
}

// ownsOrStaff scopes customer-role callers to their own profile. Staff and
// admin callers pass through.
func (h *CustomerHandler) ownsOrStaff(w http.ResponseWriter, r *http.Request, customerID uuid.UUID) bool {
	actor, _ := auth.ActorFromContext(r.Context())
	if actor.Role != domain.RoleCustomer {
		return true
	}

	owns, err := h.service.Owns(r.Context(), actor.ID, customerID)
	if err != nil {
		response.DomainError(w, err)
		return false
	}
	if !owns {
		response.Forbidden(w, "You can only access your own profile")
		return false
	}
	return true
}

// Get returns a customer profile.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}
	if !h.ownsOrStaff(w, r, customerID) {
		return
	}

	customer, err := h.service.GetByID(r.Context(), customerID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, customer)
}

// Approve marks the customer's account as approved.
func (h *CustomerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.service.ApproveAccount(r.Context(), customerID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, customer)
}

// VerifyAddress records a successful address verification.
func (h *CustomerHandler) VerifyAddress(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.service.VerifyAddress(r.Context(), customerID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, customer)
}

// AssignStaff assigns a staff member to the customer relationship.
func (h *CustomerHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	var req domain.AssignStaffRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	staffID, ok := parseBodyUUID(w, req.StaffID, "staff_id")
	if !ok {
		return
	}

	customer, err := h.service.AssignStaff(r.Context(), customerID, staffID, actor.ID, clientIP(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, customer)
}

// ScoreBreakdown returns the per-factor credit score decomposition.
func (h *CustomerHandler) ScoreBreakdown(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}
	if !h.ownsOrStaff(w, r, customerID) {
		return
	}

	breakdown, err := h.service.ScoreBreakdown(r.Context(), customerID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, breakdown)
}

// RefreshScore recomputes the credit score and borrow limit from history.
func (h *CustomerHandler) RefreshScore(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.service.RefreshCreditProfile(r.Context(), customerID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, customer)
}

// Dashboard summarizes the customer's borrowing position.
func (h *CustomerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathUUID(w, r, "customerId")
	if !ok {
		return
	}
	if !h.ownsOrStaff(w, r, customerID) {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), customerID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, dashboard)
}
