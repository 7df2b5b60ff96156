package repository

import "github.com/jhoicas/Cartera-api/internal/domain/entity"

// LoanRepository define el puerto de persistencia para Loan.
type LoanRepository interface {
	Create(loan *entity.Loan) error
	GetByID(id string) (*entity.Loan, error)
	// GetForUpdate bloquea la fila del préstamo (SELECT FOR UPDATE) para
	// serializar la generación de planes sobre un mismo préstamo.
	GetForUpdate(id string) (*entity.Loan, error)
	ListByBorrower(borrowerID string) ([]*entity.Loan, error)
	ListApproved() ([]*entity.Loan, error)
	UpdateStatus(id, status string) error
}
