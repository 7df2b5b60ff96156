package repository

import "github.com/jhoicas/Cartera-api/internal/domain/entity"

// InstallmentRepository define el puerto de persistencia para Installment.
type InstallmentRepository interface {
	// CreateBatch inserta el plan completo; dentro de la transacción del
	// TxRunner la inserción es todo-o-nada.
	CreateBatch(installments []*entity.Installment) error
	Create(installment *entity.Installment) error
	ListByLoan(loanID string) ([]*entity.Installment, error)
	// ListByBorrower devuelve las cuotas de todos los préstamos del deudor.
	ListByBorrower(borrowerID string) ([]*entity.Installment, error)
	// ListOrphans devuelve cuotas cuyo loan_id no existe en loans.
	ListOrphans() ([]*entity.Installment, error)
	Update(installment *entity.Installment) error
	// DeleteByLoan elimina el plan vigente (solo para regeneración auditada).
	DeleteByLoan(loanID string) error
	// Delete elimina una cuota puntual (solo para reparación auditada).
	Delete(id string) error
}
