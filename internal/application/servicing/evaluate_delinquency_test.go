package servicing_test

import (
	"context"
	"fmt"
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
// Tests del caso de uso de evaluación de mora: la reevaluación puntual y el
// barrido completo que corrige la deriva del estado almacenado.
// ──────────────────────────────────────────────────────────────────────────────

func newEvaluator(store *memStore, concurrency int) (*servicing.EvaluateBorrowerUseCase, *recordingNotifier) {
	notifier := &recordingNotifier{}
	uc := servicing.NewEvaluateBorrowerUseCase(&memTxRunner{store: store}, notifier, testLogger(), concurrency)
	return uc, notifier
}

func TestEvaluateBorrower_CruzaElUmbralYNotifica(t *testing.T) {
	store := newMemStore()
	seedBorrowerWithLoan(store, 4) // 4 vencidas, estado almacenado ACTIVE
	uc, notifier := newEvaluator(store, 1)

	result, err := uc.Execute(context.Background(), "borrower-1")
	require.NoError(t, err)

	assert.Equal(t, entity.BorrowerStatusActive, result.OldStatus)
	assert.Equal(t, entity.BorrowerStatusInactive, result.NewStatus)
	assert.Equal(t, 4, result.OverdueCount)
	assert.Equal(t, entity.BorrowerStatusInactive, store.borrowers["borrower-1"].Status)
	require.Len(t, notifier.statusChanges, 1)
	assert.Equal(t, "borrower-1:INACTIVE", notifier.statusChanges[0])
}

func TestEvaluateBorrower_SinCambioNoNotificaNiAudita(t *testing.T) {
	store := newMemStore()
	seedBorrowerWithLoan(store, 2) // por debajo del umbral, ya ACTIVE
	uc, notifier := newEvaluator(store, 1)

	result, err := uc.Execute(context.Background(), "borrower-1")
	require.NoError(t, err)

	assert.Equal(t, result.OldStatus, result.NewStatus)
	assert.Empty(t, notifier.statusChanges)
	assert.False(t, store.hasAuditKind(entity.AuditBorrowerStatus),
		"sin transición no se escribe evento de auditoría")
}

func TestEvaluateBorrower_ErrorSiDeudorInexistente(t *testing.T) {
	store := newMemStore()
	uc, _ := newEvaluator(store, 1)

	_, err := uc.Execute(context.Background(), "borrower-x")
	assert.ErrorIs(t, err, domain.ErrBorrowerNotFound)
}

// TestSweepAll_CorrigeLaDerivaDeTodos siembra tres deudores cuyo estado
// almacenado no corresponde a sus cuotas y verifica que el barrido los
// reconcilia a todos.
func TestSweepAll_CorrigeLaDerivaDeTodos(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	for i := 1; i <= 3; i++ {
		borrowerID := fmt.Sprintf("borrower-%d", i)
		loanID := fmt.Sprintf("loan-%d", i)
		store.borrowers[borrowerID] = &entity.Borrower{
			ID:         borrowerID,
			NationalID: fmt.Sprintf("90000000%d", i),
			Name:       fmt.Sprintf("Deudor %d", i),
			// Estado almacenado invertido a propósito: la deriva a corregir.
			Status: entity.BorrowerStatusInactive,
		}
		store.loans[loanID] = &entity.Loan{
			ID:         loanID,
			BorrowerID: borrowerID,
			Status:     entity.LoanStatusApproved,
		}
		// Una sola cuota vencida: muy por debajo del umbral.
		instID := fmt.Sprintf("%s-inst-1", loanID)
		store.installments[instID] = &entity.Installment{
			ID:              instID,
			LoanID:          loanID,
			Sequence:        1,
			DueDate:         now.AddDate(0, 0, -10),
			ScheduledAmount: decimal.NewFromInt(100),
			AmountPaid:      decimal.Zero,
			Status:          entity.InstallmentStatusPending,
		}
	}

	uc, notifier := newEvaluator(store, 2)
	err := uc.SweepAll(context.Background())
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		borrowerID := fmt.Sprintf("borrower-%d", i)
		assert.Equal(t, entity.BorrowerStatusActive, store.borrowers[borrowerID].Status,
			"el barrido debe reconciliar el estado almacenado con el cálculo puro")
	}
	assert.Len(t, notifier.statusChanges, 3)
}

func TestSweepAll_SinDeudoresNoFalla(t *testing.T) {
	store := newMemStore()
	uc, _ := newEvaluator(store, 4)
	assert.NoError(t, uc.SweepAll(context.Background()))
}
