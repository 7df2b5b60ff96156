package servicing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/servicing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del verificador de consistencia de planes.
//
// Los escenarios reproducen los defectos reales que motivaron el verificador:
// planes con cuotas duplicadas tras regeneraciones a medias, secuencias
// faltantes y cuotas que apuntan a préstamos eliminados. La propuesta de
// reparación nunca descarta una cuota con pagos si hay alternativa sin pagos.
// ──────────────────────────────────────────────────────────────────────────────

func consistencyLoan(n int) *entity.Loan {
	return &entity.Loan{
		ID:               "loan-1",
		InstallmentCount: n,
		Status:           entity.LoanStatusApproved,
	}
}

func installmentFor(id string, sequence int) *entity.Installment {
	return &entity.Installment{
		ID:              id,
		LoanID:          "loan-1",
		Sequence:        sequence,
		DueDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, sequence, 0),
		ScheduledAmount: decimal.NewFromInt(100),
		AmountPaid:      decimal.Zero,
		Status:          entity.InstallmentStatusPending,
	}
}

func TestCheckLoanSchedule_PlanCorrectoSinHallazgos(t *testing.T) {
	loan := consistencyLoan(12)
	installments := make([]*entity.Installment, 0, 12)
	for seq := 1; seq <= 12; seq++ {
		installments = append(installments, installmentFor(fmt.Sprintf("inst-%02d", seq), seq))
	}

	findings := servicing.CheckLoanSchedule(loan, installments)
	assert.Empty(t, findings, "un plan 1..N sin duplicados no produce hallazgos")
}

// TestCheckLoanSchedule_QuinceCuotasConTresDuplicadas reproduce el defecto
// típico: un plan de 12 con 15 filas porque tres secuencias quedaron
// duplicadas. Debe salir exactamente un EXCESS por cada fila sobrante, y cada
// propuesta debe descartar una cuota sin pagos.
func TestCheckLoanSchedule_QuinceCuotasConTresDuplicadas(t *testing.T) {
	loan := consistencyLoan(12)
	installments := make([]*entity.Installment, 0, 15)
	for seq := 1; seq <= 12; seq++ {
		inst := installmentFor(fmt.Sprintf("inst-%02d", seq), seq)
		if seq <= 3 {
			// Las tres primeras tienen pagos: deben sobrevivir.
			inst.AmountPaid = decimal.NewFromInt(40)
			inst.Status = entity.InstallmentStatusPartial
		}
		installments = append(installments, inst)
	}
	// Duplicados sin pagos de las secuencias 1, 2 y 3.
	installments = append(installments,
		installmentFor("zz-dup-1", 1),
		installmentFor("zz-dup-2", 2),
		installmentFor("zz-dup-3", 3),
	)

	findings := servicing.CheckLoanSchedule(loan, installments)

	require.Len(t, findings, 3, "una fila sobrante = un hallazgo EXCESS")
	for _, f := range findings {
		assert.Equal(t, servicing.FindingExcess, f.Kind)
		assert.Contains(t, f.RemoveInstallmentID, "zz-dup",
			"la propuesta debe descartar la cuota sin pagos, nunca la pagada")
	}
}

func TestCheckLoanSchedule_DuplicadosSinPagosConservaMenorID(t *testing.T) {
	loan := consistencyLoan(1)
	installments := []*entity.Installment{
		installmentFor("inst-b", 1),
		installmentFor("inst-a", 1),
	}

	findings := servicing.CheckLoanSchedule(loan, installments)

	require.Len(t, findings, 1)
	assert.Equal(t, "inst-b", findings[0].RemoveInstallmentID,
		"sin pagos de por medio sobrevive la cuota de menor id")
}

func TestCheckLoanSchedule_SecuenciasFaltantes(t *testing.T) {
	loan := consistencyLoan(5)
	installments := []*entity.Installment{
		installmentFor("inst-1", 1),
		installmentFor("inst-3", 3),
		installmentFor("inst-5", 5),
	}

	findings := servicing.CheckLoanSchedule(loan, installments)

	require.Len(t, findings, 2)
	var missing []int
	for _, f := range findings {
		assert.Equal(t, servicing.FindingMissing, f.Kind)
		missing = append(missing, f.Sequence)
	}
	assert.ElementsMatch(t, []int{2, 4}, missing)
}

func TestCheckLoanSchedule_SecuenciaFueraDeRango(t *testing.T) {
	loan := consistencyLoan(3)
	installments := []*entity.Installment{
		installmentFor("inst-1", 1),
		installmentFor("inst-2", 2),
		installmentFor("inst-3", 3),
		installmentFor("inst-7", 7), // resto de un plan anterior más largo
	}

	findings := servicing.CheckLoanSchedule(loan, installments)

	require.Len(t, findings, 1)
	assert.Equal(t, servicing.FindingExcess, findings[0].Kind)
	assert.Equal(t, 7, findings[0].Sequence)
	assert.Equal(t, "inst-7", findings[0].RemoveInstallmentID)
}

func TestCheckOrphans_DetectaCuotasSinPrestamo(t *testing.T) {
	loans := []*entity.Loan{consistencyLoan(3)}
	orphan := installmentFor("inst-x", 1)
	orphan.LoanID = "loan-borrado"
	installments := []*entity.Installment{
		installmentFor("inst-1", 1),
		orphan,
	}

	findings := servicing.CheckOrphans(loans, installments)

	require.Len(t, findings, 1)
	assert.Equal(t, servicing.FindingOrphaned, findings[0].Kind)
	assert.Equal(t, "loan-borrado", findings[0].LoanID)
}
