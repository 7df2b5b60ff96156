package servicing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// InstallmentAllocation registra cuánto recibió una cuota en una conciliación.
type InstallmentAllocation struct {
	InstallmentID string
	LoanID        string
	Sequence      int
	Applied       decimal.Decimal
	NewStatus     string
}

// AllocationResult es el resultado puro de asignar un pago sobre un conjunto
// de cuotas: las cuotas mutadas, el detalle por cuota y el remanente que no
// cupo en ninguna (candidato a crédito a favor).
type AllocationResult struct {
	Allocations []InstallmentAllocation
	Remainder   decimal.Decimal
}

// Allocate aplica un monto sobre las cuotas elegibles con política de cascada
// (waterfall): orden ascendente por fecha de vencimiento y, a igual fecha, por
// secuencia. A cada cuota se le aplica min(restante, saldo de la cuota); nunca
// se paga más del 100% de una cuota. Muta las cuotas recibidas.
//
// El filtrado por préstamo o cuota destino ocurre antes, en el caso de uso:
// aquí llega solo el conjunto elegible.
func Allocate(installments []*entity.Installment, amount decimal.Decimal, now time.Time) AllocationResult {
	eligible := make([]*entity.Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Status != entity.InstallmentStatusPaid {
			eligible = append(eligible, inst)
		}
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		if eligible[a].DueDate.Equal(eligible[b].DueDate) {
			return eligible[a].Sequence < eligible[b].Sequence
		}
		return eligible[a].DueDate.Before(eligible[b].DueDate)
	})

	result := AllocationResult{Remainder: amount}
	for _, inst := range eligible {
		if !result.Remainder.GreaterThan(decimal.Zero) {
			break
		}
		applied := decimal.Min(result.Remainder, inst.Outstanding())
		if !applied.GreaterThan(decimal.Zero) {
			continue
		}
		inst.AmountPaid = inst.AmountPaid.Add(applied)
		inst.UpdatedAt = now
		inst.RecomputeStatus(now)
		result.Remainder = result.Remainder.Sub(applied)
		result.Allocations = append(result.Allocations, InstallmentAllocation{
			InstallmentID: inst.ID,
			LoanID:        inst.LoanID,
			Sequence:      inst.Sequence,
			Applied:       applied,
			NewStatus:     inst.Status,
		})
	}
	return result
}

// AllocateReversal deshace fondos de las cuotas en orden inverso a la cascada
// (las pagadas más recientemente primero), para los pagos de ajuste con monto
// negativo. amount debe venir en valor absoluto. Devuelve lo que no se pudo
// revertir (cuotas sin pagos suficientes).
func AllocateReversal(installments []*entity.Installment, amount decimal.Decimal, now time.Time) AllocationResult {
	withFunds := make([]*entity.Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.AmountPaid.GreaterThan(decimal.Zero) {
			withFunds = append(withFunds, inst)
		}
	}
	sort.SliceStable(withFunds, func(a, b int) bool {
		if withFunds[a].DueDate.Equal(withFunds[b].DueDate) {
			return withFunds[a].Sequence > withFunds[b].Sequence
		}
		return withFunds[a].DueDate.After(withFunds[b].DueDate)
	})

	result := AllocationResult{Remainder: amount}
	for _, inst := range withFunds {
		if !result.Remainder.GreaterThan(decimal.Zero) {
			break
		}
		reversed := decimal.Min(result.Remainder, inst.AmountPaid)
		inst.AmountPaid = inst.AmountPaid.Sub(reversed)
		inst.UpdatedAt = now
		inst.RecomputeStatus(now)
		result.Remainder = result.Remainder.Sub(reversed)
		result.Allocations = append(result.Allocations, InstallmentAllocation{
			InstallmentID: inst.ID,
			LoanID:        inst.LoanID,
			Sequence:      inst.Sequence,
			Applied:       reversed.Neg(),
			NewStatus:     inst.Status,
		})
	}
	return result
}
