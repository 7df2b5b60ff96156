package repository

import "github.com/jhoicas/Cartera-api/internal/domain/entity"

// BorrowerRepository define el puerto de persistencia para Borrower.
type BorrowerRepository interface {
	Create(borrower *entity.Borrower) error
	GetByID(id string) (*entity.Borrower, error)
	GetByNationalID(nationalID string) (*entity.Borrower, error)
	// GetForUpdate bloquea la fila del deudor (SELECT FOR UPDATE): serializa
	// la aplicación de pagos y el barrido de mora sobre el mismo deudor.
	GetForUpdate(id string) (*entity.Borrower, error)
	ListIDs() ([]string, error)
	UpdateStatus(id, status string) error
}
