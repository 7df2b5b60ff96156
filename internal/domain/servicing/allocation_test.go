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
// Tests de la cascada de asignación de pagos.
//
// Política: vencimiento más antiguo primero, nunca más del 100% de una cuota,
// y el remanente que no cabe en ninguna queda explícito en el resultado para
// que el caso de uso lo deposite como crédito a favor (jamás se descarta).
// ──────────────────────────────────────────────────────────────────────────────

var allocNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// buildInstallments crea cuotas de 100 con vencimientos mensuales consecutivos.
func buildInstallments(n int) []*entity.Installment {
	installments := make([]*entity.Installment, 0, n)
	for i := 1; i <= n; i++ {
		installments = append(installments, &entity.Installment{
			ID:              fmt.Sprintf("inst-%d", i),
			LoanID:          "loan-1",
			Sequence:        i,
			DueDate:         time.Date(2026, time.Month(i), 15, 0, 0, 0, 0, time.UTC),
			ScheduledAmount: decimal.NewFromInt(100),
			PrincipalAmount: decimal.NewFromInt(100),
			InterestAmount:  decimal.Zero,
			AmountPaid:      decimal.Zero,
			Status:          entity.InstallmentStatusPending,
		})
	}
	return installments
}

func TestAllocate_CascadaPagaLaMasAntiguaPrimero(t *testing.T) {
	installments := buildInstallments(3)

	result := servicing.Allocate(installments, decimal.NewFromInt(150), allocNow)

	require.Len(t, result.Allocations, 2)
	assert.True(t, result.Remainder.IsZero())

	// Primera cuota completa.
	assert.Equal(t, "inst-1", result.Allocations[0].InstallmentID)
	assert.True(t, result.Allocations[0].Applied.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, entity.InstallmentStatusPaid, installments[0].Status)
	require.NotNil(t, installments[0].PaidAt)

	// Segunda cuota parcial con 50.
	assert.Equal(t, "inst-2", result.Allocations[1].InstallmentID)
	assert.True(t, result.Allocations[1].Applied.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, entity.InstallmentStatusPartial, installments[1].Status)

	// Tercera intacta.
	assert.True(t, installments[2].AmountPaid.IsZero())
	assert.Equal(t, entity.InstallmentStatusPending, installments[2].Status)
}

func TestAllocate_SobrepagoQuedaComoRemanente(t *testing.T) {
	installments := buildInstallments(3)

	result := servicing.Allocate(installments, decimal.NewFromInt(350), allocNow)

	require.Len(t, result.Allocations, 3)
	for _, inst := range installments {
		assert.Equal(t, entity.InstallmentStatusPaid, inst.Status,
			"con fondos suficientes todas las cuotas quedan pagadas")
	}
	assert.True(t, result.Remainder.Equal(decimal.NewFromInt(50)),
		"el excedente nunca se aplica por encima del 100% de una cuota")
}

func TestAllocate_SinCuotasElegiblesDevuelveTodoComoRemanente(t *testing.T) {
	result := servicing.Allocate(nil, decimal.NewFromInt(75), allocNow)

	assert.Empty(t, result.Allocations)
	assert.True(t, result.Remainder.Equal(decimal.NewFromInt(75)))
}

func TestAllocate_IgnoraCuotasYaPagadas(t *testing.T) {
	installments := buildInstallments(2)
	installments[0].AmountPaid = decimal.NewFromInt(100)
	installments[0].Status = entity.InstallmentStatusPaid

	result := servicing.Allocate(installments, decimal.NewFromInt(60), allocNow)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, "inst-2", result.Allocations[0].InstallmentID)
	assert.True(t, installments[0].AmountPaid.Equal(decimal.NewFromInt(100)),
		"una cuota pagada no recibe más fondos")
}

func TestAllocate_CompletaUnaCuotaParcial(t *testing.T) {
	installments := buildInstallments(1)
	installments[0].AmountPaid = decimal.NewFromInt(40)
	installments[0].Status = entity.InstallmentStatusPartial

	result := servicing.Allocate(installments, decimal.NewFromInt(60), allocNow)

	require.Len(t, result.Allocations, 1)
	assert.True(t, result.Allocations[0].Applied.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, entity.InstallmentStatusPaid, installments[0].Status)
	assert.True(t, result.Remainder.IsZero())
}

func TestAllocate_DesempataPorSecuenciaAMismaFecha(t *testing.T) {
	installments := buildInstallments(2)
	installments[1].DueDate = installments[0].DueDate

	result := servicing.Allocate(installments, decimal.NewFromInt(100), allocNow)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, 1, result.Allocations[0].Sequence,
		"a igual vencimiento gana la secuencia menor")
}

// ── Reversiones ───────────────────────────────────────────────────────────────

func TestAllocateReversal_DeshaceLasMasRecientesPrimero(t *testing.T) {
	installments := buildInstallments(3)
	for _, inst := range installments {
		inst.AmountPaid = decimal.NewFromInt(100)
		inst.RecomputeStatus(allocNow)
	}

	result := servicing.AllocateReversal(installments, decimal.NewFromInt(120), allocNow)

	require.Len(t, result.Allocations, 2)
	assert.True(t, result.Remainder.IsZero())

	// La cuota con vencimiento más reciente pierde sus fondos primero.
	assert.Equal(t, "inst-3", result.Allocations[0].InstallmentID)
	assert.True(t, result.Allocations[0].Applied.Equal(decimal.NewFromInt(-100)),
		"el detalle de una reversión registra montos negativos")
	assert.Equal(t, entity.InstallmentStatusPending, installments[2].Status)
	assert.Nil(t, installments[2].PaidAt)

	assert.Equal(t, "inst-2", result.Allocations[1].InstallmentID)
	assert.True(t, result.Allocations[1].Applied.Equal(decimal.NewFromInt(-20)))
	assert.Equal(t, entity.InstallmentStatusPartial, installments[1].Status)

	assert.Equal(t, entity.InstallmentStatusPaid, installments[0].Status,
		"la cuota más antigua no se toca si la reversión no la alcanza")
}

func TestAllocateReversal_SinFondosDevuelveTodoComoRemanente(t *testing.T) {
	installments := buildInstallments(2) // nada pagado

	result := servicing.AllocateReversal(installments, decimal.NewFromInt(50), allocNow)

	assert.Empty(t, result.Allocations)
	assert.True(t, result.Remainder.Equal(decimal.NewFromInt(50)),
		"lo que no se pudo revertir queda explícito para el caso de uso")
}
