package servicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del caso de uso de generación de planes: la regla de "exactamente un
// plan por préstamo aprobado" y la regeneración que se niega a tocar cuotas
// con pagos.
// ──────────────────────────────────────────────────────────────────────────────

// seedApprovedLoan crea un deudor y un préstamo APPROVED sin plan.
func seedApprovedLoan(store *memStore) {
	store.borrowers["borrower-1"] = &entity.Borrower{
		ID:         "borrower-1",
		NationalID: "900123456",
		Name:       "Comercial La Estrella",
		Status:     entity.BorrowerStatusActive,
	}
	store.loans["loan-1"] = &entity.Loan{
		ID:               "loan-1",
		BorrowerID:       "borrower-1",
		Principal:        decimal.NewFromInt(1000),
		AnnualRate:       decimal.Zero,
		InstallmentCount: 10,
		Frequency:        entity.FrequencyBiweekly,
		StartDate:        time.Now().AddDate(0, 1, 0),
		Status:           entity.LoanStatusApproved,
	}
}

func newGenerator(store *memStore) (*servicing.GenerateScheduleUseCase, *recordingNotifier) {
	notifier := &recordingNotifier{}
	uc := servicing.NewGenerateScheduleUseCase(&memTxRunner{store: store}, notifier)
	return uc, notifier
}

func TestGenerateSchedule_CreaElPlanCompleto(t *testing.T) {
	store := newMemStore()
	seedApprovedLoan(store)
	uc, notifier := newGenerator(store)

	generated, err := uc.Execute(context.Background(), "loan-1", false)
	require.NoError(t, err)
	require.Len(t, generated, 10)

	sum := decimal.Zero
	for i, inst := range generated {
		assert.Equal(t, i+1, inst.Sequence)
		assert.Equal(t, entity.InstallmentStatusPending, inst.Status)
		assert.True(t, inst.AmountPaid.IsZero())
		sum = sum.Add(inst.PrincipalAmount)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(1000)),
		"el capital del plan persistido debe cerrar contra el principal")

	assert.Len(t, store.installments, 10)
	assert.True(t, store.hasAuditKind(entity.AuditScheduleGenerated))
	require.Len(t, notifier.generated, 1)
	assert.Equal(t, "loan-1", notifier.generated[0])
}

func TestGenerateSchedule_SegundaGeneracionFalla(t *testing.T) {
	store := newMemStore()
	seedApprovedLoan(store)
	uc, _ := newGenerator(store)

	_, err := uc.Execute(context.Background(), "loan-1", false)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), "loan-1", false)
	assert.ErrorIs(t, err, domain.ErrScheduleAlreadyExists,
		"exactamente un plan por préstamo: el reintento no duplica cuotas")
	assert.Len(t, store.installments, 10)
}

func TestGenerateSchedule_ErrorSiPrestamoNoAprobado(t *testing.T) {
	store := newMemStore()
	seedApprovedLoan(store)
	store.loans["loan-1"].Status = entity.LoanStatusInReview
	uc, _ := newGenerator(store)

	_, err := uc.Execute(context.Background(), "loan-1", false)
	assert.ErrorIs(t, err, domain.ErrLoanNotApproved)
	assert.Empty(t, store.installments)
}

func TestGenerateSchedule_ErrorSiPrestamoInexistente(t *testing.T) {
	store := newMemStore()
	uc, _ := newGenerator(store)

	_, err := uc.Execute(context.Background(), "loan-x", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateSchedule_RegenerarSinPagosReproduceElPlan(t *testing.T) {
	store := newMemStore()
	seedApprovedLoan(store)
	uc, _ := newGenerator(store)

	first, err := uc.Execute(context.Background(), "loan-1", false)
	require.NoError(t, err)

	second, err := uc.Execute(context.Background(), "loan-1", true)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].ScheduledAmount.Equal(second[i].ScheduledAmount),
			"sin pagos previos la regeneración reproduce los mismos valores")
		assert.True(t, first[i].DueDate.Equal(second[i].DueDate))
	}
	assert.Len(t, store.installments, 10, "el plan anterior se anula, no se acumula")
	assert.True(t, store.hasAuditKind(entity.AuditScheduleRegenerated))
}

func TestGenerateSchedule_RegenerarConPagosSeNiega(t *testing.T) {
	store := newMemStore()
	seedApprovedLoan(store)
	uc, _ := newGenerator(store)

	generated, err := uc.Execute(context.Background(), "loan-1", false)
	require.NoError(t, err)

	// Llega un pago a la primera cuota: el plan deja de ser regenerable.
	generated[0].AmountPaid = decimal.NewFromInt(50)
	generated[0].Status = entity.InstallmentStatusPartial

	_, err = uc.Execute(context.Background(), "loan-1", true)
	assert.ErrorIs(t, err, domain.ErrConflict,
		"las cuotas con pagos solo se tocan por la vía de reparación auditada")
	assert.Len(t, store.installments, 10, "el plan con pagos queda intacto")
}

func TestGetSchedule_ResumenAgregado(t *testing.T) {
	store := newMemStore()
	seedBorrowerWithLoan(store, 3) // 3 cuotas de 100 vencidas
	store.installments["inst-01"].AmountPaid = decimal.NewFromInt(100)
	store.installments["inst-01"].Status = entity.InstallmentStatusPaid
	store.installments["inst-02"].AmountPaid = decimal.NewFromInt(30)
	store.installments["inst-02"].Status = entity.InstallmentStatusPartial
	uc, _ := newGenerator(store)

	resp, err := uc.GetSchedule(context.Background(), "loan-1")
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Summary.TotalInstallments)
	assert.Equal(t, 1, resp.Summary.PaidInstallments)
	assert.Equal(t, 2, resp.Summary.OverdueCount, "las dos cuotas vencidas sin pagar por completo")
	assert.True(t, resp.Summary.TotalScheduled.Equal(decimal.NewFromInt(300)))
	assert.True(t, resp.Summary.TotalPaid.Equal(decimal.NewFromInt(130)))
	assert.True(t, resp.Summary.Outstanding.Equal(decimal.NewFromInt(170)))
}
