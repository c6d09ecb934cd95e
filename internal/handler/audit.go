package handler

import (
	"net/http"
	"strconv"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns audit entries newest first, filterable by entity type, entity
// id and action via query parameters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.AuditFilter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Action:     domain.AuditAction(q.Get("action")),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.BadRequest(w, "limit must be a positive integer", err)
			return
		}
		filter.Limit = limit
	}

	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.Success(w, entries)
}
