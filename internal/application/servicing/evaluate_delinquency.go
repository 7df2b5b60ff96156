package servicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// EvaluateBorrowerUseCase recalcula el estado operativo de los deudores a
// partir del estado de sus cuotas (§ evaluador de mora). El estado almacenado
// es una caché: este caso de uso lo reconcilia con el cálculo puro.
type EvaluateBorrowerUseCase struct {
	txRunner    TxRunner
	notifier    Notifier
	log         *logger.Logger
	concurrency int
}

// NewEvaluateBorrowerUseCase construye el caso de uso. concurrency limita los
// deudores evaluados en paralelo durante el barrido completo.
func NewEvaluateBorrowerUseCase(txRunner TxRunner, notifier Notifier, log *logger.Logger, concurrency int) *EvaluateBorrowerUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &EvaluateBorrowerUseCase{
		txRunner:    txRunner,
		notifier:    notifier,
		log:         log.Component("evaluador-mora"),
		concurrency: concurrency,
	}
}

// Execute reevalúa un deudor en su propia transacción, tomando el mismo
// bloqueo de fila que la aplicación de pagos para no leer un estado
// intermedio de una conciliación en curso.
func (uc *EvaluateBorrowerUseCase) Execute(ctx context.Context, borrowerID string) (*dto.DelinquencyResponse, error) {
	var result *dto.DelinquencyResponse
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		var err error
		result, err = reevaluateBorrower(loanRepo, instRepo, borrowerRepo, auditRepo, borrowerID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.OldStatus != result.NewStatus {
		uc.notifier.BorrowerStatusChanged(result.BorrowerID, result.OldStatus, result.NewStatus)
	}
	return result, nil
}

// SweepAll recorre todos los deudores y reevalúa su estado para corregir
// cualquier deriva por mutaciones fuera de banda. Es de lectura intensiva y
// procesa deudores en paralelo acotado; cada uno en su propia transacción
// con su propio bloqueo de fila, así el barrido convive con pagos en vuelo.
func (uc *EvaluateBorrowerUseCase) SweepAll(ctx context.Context) error {
	var ids []string
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		_ repository.InstallmentRepository,
		borrowerRepo repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		var err error
		ids, err = borrowerRepo.ListIDs()
		return err
	})
	if err != nil {
		return err
	}

	uc.log.Info().Int("deudores", len(ids)).Msg("barrido de mora iniciado")
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for _, id := range ids {
		borrowerID := id
		g.Go(func() error {
			if _, err := uc.Execute(gctx, borrowerID); err != nil {
				// Un deudor fallido no aborta el barrido; queda en el log
				// para revisión y el siguiente ciclo lo reintenta.
				uc.log.Error().Err(err).Str("borrower_id", borrowerID).Msg("reevaluación fallida")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	uc.log.Info().
		Int("deudores", len(ids)).
		Dur("duración", time.Since(started)).
		Msg("barrido de mora terminado")
	return nil
}

// reevaluateBorrower ejecuta la evaluación dentro de la transacción del
// caller: bloquea la fila del deudor, calcula el estado puro y actualiza la
// caché solo si cambió, dejando el evento de auditoría. El caller notifica
// después del commit.
func reevaluateBorrower(
	loanRepo repository.LoanRepository,
	instRepo repository.InstallmentRepository,
	borrowerRepo repository.BorrowerRepository,
	auditRepo repository.AuditRepository,
	borrowerID string,
	now time.Time,
) (*dto.DelinquencyResponse, error) {
	borrower, err := borrowerRepo.GetForUpdate(borrowerID)
	if err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, domain.ErrBorrowerNotFound
	}

	loans, err := loanRepo.ListByBorrower(borrowerID)
	if err != nil {
		return nil, err
	}
	installments, err := instRepo.ListByBorrower(borrowerID)
	if err != nil {
		return nil, err
	}

	state := domsvc.EvaluateDelinquency(loans, installments, now)
	result := &dto.DelinquencyResponse{
		BorrowerID:   borrowerID,
		OldStatus:    borrower.Status,
		NewStatus:    state.Status,
		OverdueCount: state.OverdueCount,
		DaysPastDue:  state.DaysPastDue,
	}
	if state.Status == borrower.Status {
		return result, nil
	}

	if err := borrowerRepo.UpdateStatus(borrowerID, state.Status); err != nil {
		return nil, err
	}
	if err := auditRepo.Append(&entity.AuditEvent{
		ID:         uuid.New().String(),
		Kind:       entity.AuditBorrowerStatus,
		EntityType: "BORROWER",
		EntityID:   borrowerID,
		OldValue:   borrower.Status,
		NewValue:   state.Status,
		Detail:     "reevaluación de mora",
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}
	return result, nil
}
