package repository

import "github.com/jhoicas/Cartera-api/internal/domain/entity"

// PaymentRepository define el puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(payment *entity.Payment) error
	// GetByReference busca por la referencia externa (clave de idempotencia).
	// Devuelve nil sin error cuando no existe.
	GetByReference(reference string) (*entity.Payment, error)
	ListUnmatched() ([]*entity.Payment, error)
}
