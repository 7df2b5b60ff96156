package servicing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// Tipos de defecto estructural detectables en un plan de pagos.
const (
	FindingMissing  = "MISSING"  // faltan secuencias del rango 1..N
	FindingExcess   = "EXCESS"   // hay cuotas duplicadas para una secuencia
	FindingOrphaned = "ORPHANED" // cuota que referencia un préstamo inexistente
)

// Finding es un hallazgo de la auditoría de consistencia sobre un préstamo.
type Finding struct {
	LoanID   string
	Kind     string
	Sequence int    // secuencia afectada (0 para hallazgos sin secuencia)
	Detail   string
	// RemoveInstallmentID: cuota duplicada a descartar (hallazgos EXCESS).
	RemoveInstallmentID string
}

// CheckLoanSchedule verifica los invariantes estructurales del plan de un
// préstamo APPROVED: conteo exacto de cuotas, secuencias 1..N sin duplicados.
//
// Para cada secuencia duplicada propone conservar la cuota con pagos de menor
// id (y si ninguna tiene pagos, la de menor id a secas) y descartar el resto;
// la reparación es siempre explícita y auditada, nunca silenciosa.
func CheckLoanSchedule(loan *entity.Loan, installments []*entity.Installment) []Finding {
	var findings []Finding

	bySequence := make(map[int][]*entity.Installment)
	for _, inst := range installments {
		bySequence[inst.Sequence] = append(bySequence[inst.Sequence], inst)
	}

	// Secuencias duplicadas: un hallazgo EXCESS por cada cuota sobrante.
	sequences := make([]int, 0, len(bySequence))
	for seq := range bySequence {
		sequences = append(sequences, seq)
	}
	sort.Ints(sequences)
	for _, seq := range sequences {
		group := bySequence[seq]
		if len(group) < 2 {
			continue
		}
		keep := selectSurvivor(group)
		for _, inst := range group {
			if inst.ID == keep.ID {
				continue
			}
			findings = append(findings, Finding{
				LoanID:              loan.ID,
				Kind:                FindingExcess,
				Sequence:            seq,
				Detail:              fmt.Sprintf("secuencia %d duplicada: conservar %s, descartar %s", seq, keep.ID, inst.ID),
				RemoveInstallmentID: inst.ID,
			})
		}
	}

	// Secuencias faltantes del rango 1..N.
	for seq := 1; seq <= loan.InstallmentCount; seq++ {
		if _, ok := bySequence[seq]; !ok {
			findings = append(findings, Finding{
				LoanID:   loan.ID,
				Kind:     FindingMissing,
				Sequence: seq,
				Detail:   fmt.Sprintf("falta la cuota %d de %d", seq, loan.InstallmentCount),
			})
		}
	}

	// Secuencias fuera del rango declarado (sin duplicado no las cubre EXCESS).
	for _, seq := range sequences {
		if seq < 1 || seq > loan.InstallmentCount {
			for _, inst := range bySequence[seq] {
				alreadyFlagged := false
				for _, f := range findings {
					if f.RemoveInstallmentID == inst.ID {
						alreadyFlagged = true
						break
					}
				}
				if alreadyFlagged {
					continue
				}
				findings = append(findings, Finding{
					LoanID:              loan.ID,
					Kind:                FindingExcess,
					Sequence:            seq,
					Detail:              fmt.Sprintf("secuencia %d fuera del rango 1..%d", seq, loan.InstallmentCount),
					RemoveInstallmentID: inst.ID,
				})
			}
		}
	}

	return findings
}

// CheckOrphans marca las cuotas cuyo préstamo no existe.
func CheckOrphans(loans []*entity.Loan, installments []*entity.Installment) []Finding {
	known := make(map[string]bool, len(loans))
	for _, loan := range loans {
		known[loan.ID] = true
	}
	var findings []Finding
	for _, inst := range installments {
		if !known[inst.LoanID] {
			findings = append(findings, Finding{
				LoanID:   inst.LoanID,
				Kind:     FindingOrphaned,
				Sequence: inst.Sequence,
				Detail:   fmt.Sprintf("cuota %s referencia el préstamo inexistente %s", inst.ID, inst.LoanID),
			})
		}
	}
	return findings
}

// selectSurvivor elige la cuota a conservar entre duplicados de una misma
// secuencia: la de menor id entre las que tienen pagos; si ninguna tiene
// pagos, la de menor id. Nunca se descarta una cuota con pagos si existe
// alternativa sin pagos.
func selectSurvivor(group []*entity.Installment) *entity.Installment {
	var withPayments, without []*entity.Installment
	for _, inst := range group {
		if inst.AmountPaid.GreaterThan(decimal.Zero) {
			withPayments = append(withPayments, inst)
		} else {
			without = append(without, inst)
		}
	}
	pick := func(list []*entity.Installment) *entity.Installment {
		best := list[0]
		for _, inst := range list[1:] {
			if inst.ID < best.ID {
				best = inst
			}
		}
		return best
	}
	if len(withPayments) > 0 {
		return pick(withPayments)
	}
	return pick(without)
}
