package entity

import "time"

// Estados operativos del deudor.
const (
	BorrowerStatusActive   = "ACTIVE"
	BorrowerStatusInactive = "INACTIVE"
)

// Borrower representa una persona o entidad con cero o más préstamos.
//
// Status es una caché del cálculo de mora: es una función pura del estado de
// las cuotas (ver servicing.EvaluateDelinquency) y debe poder reconciliarse
// recalculándola en cualquier momento.
type Borrower struct {
	ID         string
	NationalID string // cédula / NIT, único
	Name       string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
