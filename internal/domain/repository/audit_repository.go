package repository

import "github.com/jhoicas/Cartera-api/internal/domain/entity"

// AuditRepository define el puerto del registro append-only de auditoría.
type AuditRepository interface {
	Append(event *entity.AuditEvent) error
	ListByEntity(entityType, entityID string) ([]*entity.AuditEvent, error)
}
