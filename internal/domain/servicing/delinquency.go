package servicing

import (
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// Umbral de mora: con DelinquencyThreshold o más cuotas vencidas sin pagar el
// deudor pasa a INACTIVE; con menos vuelve (o permanece) ACTIVE. La regla vive
// aquí como constante nombrada y en ningún otro lugar.
const DelinquencyThreshold = 4

// DelinquencyState es el resultado de evaluar la mora de un deudor.
type DelinquencyState struct {
	OverdueCount int
	DaysPastDue  int // días de la cuota vencida más antigua sin pagar
	Status       string
}

// EvaluateDelinquency calcula el estado operativo de un deudor como función
// pura de sus cuotas. Solo cuentan las cuotas de préstamos APPROVED cuya fecha
// de vencimiento ya pasó y que no están pagadas. Un deudor sin préstamos
// aprobados queda ACTIVE (política observada y documentada).
//
// Es idempotente: evaluarla dos veces sin cambios intermedios produce el
// mismo estado, por lo que el barrido periódico puede recalcular a todos los
// deudores para corregir cualquier deriva.
func EvaluateDelinquency(loans []*entity.Loan, installments []*entity.Installment, today time.Time) DelinquencyState {
	approved := make(map[string]bool, len(loans))
	for _, loan := range loans {
		if loan.Status == entity.LoanStatusApproved {
			approved[loan.ID] = true
		}
	}

	state := DelinquencyState{Status: entity.BorrowerStatusActive}
	var oldest time.Time
	for _, inst := range installments {
		if !approved[inst.LoanID] || !inst.IsOverdue(today) {
			continue
		}
		state.OverdueCount++
		if oldest.IsZero() || inst.DueDate.Before(oldest) {
			oldest = inst.DueDate
		}
	}
	if !oldest.IsZero() {
		state.DaysPastDue = int(today.Sub(oldest).Hours() / 24)
	}
	if state.OverdueCount >= DelinquencyThreshold {
		state.Status = entity.BorrowerStatusInactive
	}
	return state
}
