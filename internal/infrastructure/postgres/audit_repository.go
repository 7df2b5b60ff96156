package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implementación del registro de auditoría sobre PostgreSQL.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

const auditColumns = `id, kind, entity_type, entity_id, old_value, new_value, detail, created_at`

// Append registra un evento. El registro es append-only: no hay Update ni Delete.
func (r *AuditRepo) Append(event *entity.AuditEvent) error {
	query := `
		INSERT INTO audit_events (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		event.ID, event.Kind, event.EntityType, event.EntityID,
		nullIfEmpty(event.OldValue), nullIfEmpty(event.NewValue), nullIfEmpty(event.Detail), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByEntity devuelve el historial de una entidad en orden cronológico.
func (r *AuditRepo) ListByEntity(entityType, entityID string) ([]*entity.AuditEvent, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []*entity.AuditEvent
	for rows.Next() {
		var e entity.AuditEvent
		var oldValue, newValue, detail *string
		if err := rows.Scan(&e.ID, &e.Kind, &e.EntityType, &e.EntityID, &oldValue, &newValue, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if oldValue != nil {
			e.OldValue = *oldValue
		}
		if newValue != nil {
			e.NewValue = *newValue
		}
		if detail != nil {
			e.Detail = *detail
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
