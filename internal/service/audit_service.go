package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/domain"
	"github.com/loanpro/loanpro-backend/internal/repository"
)

// AuditService is the append-only audit sink. Write failures are logged and
// swallowed so they never block the operation that triggered them.
type AuditService struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

// Record appends an audit entry for a state-changing operation.
func (s *AuditService) Record(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, entityType, entityID string, details map[string]interface{}, ipAddress string) {
	entry := &domain.AuditLog{
		ID:         uuid.New(),
		ActorID:    uuid.NullUUID{UUID: actorID, Valid: actorID != uuid.Nil},
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  s.now(),
		IPAddress:  ipAddress,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
		}).Error("writing audit entry")
	}
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, filter)
}
