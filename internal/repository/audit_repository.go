package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, details, timestamp, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		details,
		entry.Timestamp,
		entry.IPAddress,
	)

	return err
}

type auditRow struct {
	domain.AuditLog
	DetailsRaw []byte `db:"details"`
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, timestamp, ip_address
		FROM audit_logs
		WHERE ($1 = '' OR entity_type = $1)
		  AND ($2 = '' OR entity_id = $2)
		  AND ($3 = '' OR action = $3)
		ORDER BY timestamp DESC
		LIMIT $4
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows []*auditRow
	err := r.db.SelectContext(ctx, &rows, query, filter.EntityType, filter.EntityID, string(filter.Action), limit)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := row.AuditLog
		if len(row.DetailsRaw) > 0 {
			if err := json.Unmarshal(row.DetailsRaw, &entry.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
