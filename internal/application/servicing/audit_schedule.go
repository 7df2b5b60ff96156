package servicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// ConsistencyAuditUseCase verifica los invariantes estructurales de los
// planes de pago: conteo exacto de cuotas, secuencias contiguas sin
// duplicados y ausencia de cuotas huérfanas. Existe porque el sistema
// anterior acumuló estos defectos tras regeneraciones ad-hoc; aquí es un
// pase de verificación permanente, no un script de una sola vez.
//
// Por defecto solo reporta. Con repair activo aplica la reparación segura y
// auditada: descarta duplicados conservando la cuota con pagos de menor id
// (o la de menor id a secas) y regenera únicamente las secuencias faltantes
// con la fórmula del generador, sin tocar cuotas con pagos. Nunca repara en
// silencio y nunca dentro de la ruta caliente de un pago.
type ConsistencyAuditUseCase struct {
	txRunner TxRunner
	notifier Notifier
	log      *logger.Logger
}

// NewConsistencyAuditUseCase construye el caso de uso.
func NewConsistencyAuditUseCase(txRunner TxRunner, notifier Notifier, log *logger.Logger) *ConsistencyAuditUseCase {
	return &ConsistencyAuditUseCase{
		txRunner: txRunner,
		notifier: notifier,
		log:      log.Component("auditor-consistencia"),
	}
}

// Execute audita un préstamo puntual (loanID no vacío) o todos los préstamos
// aprobados. Cada préstamo se procesa en su propia transacción con la fila
// bloqueada, así la auditoría convive con generaciones y pagos en vuelo.
func (uc *ConsistencyAuditUseCase) Execute(ctx context.Context, loanID string, repair bool) ([]dto.FindingResponse, error) {
	loanIDs, err := uc.targetLoans(ctx, loanID)
	if err != nil {
		return nil, err
	}

	var report []dto.FindingResponse
	for _, id := range loanIDs {
		findings, err := uc.auditLoan(ctx, id, repair)
		if err != nil {
			return nil, err
		}
		report = append(report, findings...)
	}

	orphans, err := uc.auditOrphans(ctx)
	if err != nil {
		return nil, err
	}
	report = append(report, orphans...)

	uc.log.Info().
		Int("préstamos", len(loanIDs)).
		Int("hallazgos", len(report)).
		Bool("repair", repair).
		Msg("auditoría de consistencia terminada")
	return report, nil
}

// targetLoans resuelve el alcance de la auditoría.
func (uc *ConsistencyAuditUseCase) targetLoans(ctx context.Context, loanID string) ([]string, error) {
	var ids []string
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		_ repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		_ repository.AuditRepository,
	) error {
		if loanID != "" {
			loan, err := loanRepo.GetByID(loanID)
			if err != nil {
				return err
			}
			if loan == nil {
				return domain.ErrNotFound
			}
			ids = []string{loan.ID}
			return nil
		}
		loans, err := loanRepo.ListApproved()
		if err != nil {
			return err
		}
		for _, loan := range loans {
			ids = append(ids, loan.ID)
		}
		return nil
	})
	return ids, err
}

// auditLoan verifica (y opcionalmente repara) el plan de un préstamo dentro
// de una transacción con la fila del préstamo bloqueada.
func (uc *ConsistencyAuditUseCase) auditLoan(ctx context.Context, loanID string, repair bool) ([]dto.FindingResponse, error) {
	var report []dto.FindingResponse
	var published []domsvc.Finding
	err := uc.txRunner.Run(ctx, func(
		loanRepo repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		loan, err := loanRepo.GetForUpdate(loanID)
		if err != nil {
			return err
		}
		if loan == nil || loan.Status != entity.LoanStatusApproved {
			return nil
		}
		installments, err := instRepo.ListByLoan(loanID)
		if err != nil {
			return err
		}

		findings := domsvc.CheckLoanSchedule(loan, installments)
		for _, finding := range findings {
			repaired := false
			if repair {
				repaired, err = uc.repairFinding(loan, finding, instRepo, auditRepo)
				if err != nil {
					return err
				}
			}
			if err := uc.recordFinding(auditRepo, finding, repaired); err != nil {
				return err
			}
			published = append(published, finding)
			report = append(report, dto.FindingResponse{
				LoanID:   finding.LoanID,
				Kind:     finding.Kind,
				Sequence: finding.Sequence,
				Detail:   finding.Detail,
				Repaired: repaired,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, finding := range published {
		uc.notifier.ConsistencyFinding(finding)
	}
	return report, nil
}

// repairFinding aplica la reparación segura de un hallazgo:
//   - EXCESS: elimina la cuota sobrante señalada por la detección;
//   - MISSING: regenera la secuencia faltante con la fórmula por cuota del
//     generador (las cuotas existentes con pagos no se tocan).
//
// ORPHANED no tiene reparación automática: recuperar o eliminar una cuota
// huérfana exige decidir sobre el préstamo perdido, y eso es intervención
// manual sobre el hallazgo registrado.
func (uc *ConsistencyAuditUseCase) repairFinding(
	loan *entity.Loan,
	finding domsvc.Finding,
	instRepo repository.InstallmentRepository,
	auditRepo repository.AuditRepository,
) (bool, error) {
	now := time.Now()
	switch finding.Kind {
	case domsvc.FindingExcess:
		if finding.RemoveInstallmentID == "" {
			return false, nil
		}
		if err := instRepo.Delete(finding.RemoveInstallmentID); err != nil {
			return false, err
		}
		return true, auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditConsistencyRepair,
			EntityType: "INSTALLMENT",
			EntityID:   finding.RemoveInstallmentID,
			OldValue:   fmt.Sprintf("secuencia %d", finding.Sequence),
			Detail:     finding.Detail,
			CreatedAt:  now,
		})
	case domsvc.FindingMissing:
		line, err := domsvc.BuildScheduleLine(loan, finding.Sequence)
		if err != nil {
			return false, err
		}
		inst := &entity.Installment{
			ID:              uuid.New().String(),
			LoanID:          loan.ID,
			Sequence:        line.Sequence,
			DueDate:         line.DueDate,
			ScheduledAmount: line.ScheduledAmount,
			PrincipalAmount: line.Principal,
			InterestAmount:  line.Interest,
			AmountPaid:      decimal.Zero,
			Status:          entity.InstallmentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := instRepo.Create(inst); err != nil {
			return false, err
		}
		return true, auditRepo.Append(&entity.AuditEvent{
			ID:         uuid.New().String(),
			Kind:       entity.AuditConsistencyRepair,
			EntityType: "INSTALLMENT",
			EntityID:   inst.ID,
			NewValue:   fmt.Sprintf("secuencia %d regenerada", line.Sequence),
			Detail:     finding.Detail,
			CreatedAt:  now,
		})
	}
	return false, nil
}

// auditOrphans reporta cuotas cuyo préstamo no existe. Solo detección.
func (uc *ConsistencyAuditUseCase) auditOrphans(ctx context.Context) ([]dto.FindingResponse, error) {
	var report []dto.FindingResponse
	var published []domsvc.Finding
	err := uc.txRunner.Run(ctx, func(
		_ repository.LoanRepository,
		instRepo repository.InstallmentRepository,
		_ repository.BorrowerRepository,
		_ repository.PaymentRepository,
		_ repository.CreditLedgerRepository,
		auditRepo repository.AuditRepository,
	) error {
		orphans, err := instRepo.ListOrphans()
		if err != nil {
			return err
		}
		for _, inst := range orphans {
			finding := domsvc.Finding{
				LoanID:   inst.LoanID,
				Kind:     domsvc.FindingOrphaned,
				Sequence: inst.Sequence,
				Detail:   fmt.Sprintf("cuota %s referencia el préstamo inexistente %s", inst.ID, inst.LoanID),
			}
			if err := uc.recordFinding(auditRepo, finding, false); err != nil {
				return err
			}
			published = append(published, finding)
			report = append(report, dto.FindingResponse{
				LoanID:   finding.LoanID,
				Kind:     finding.Kind,
				Sequence: finding.Sequence,
				Detail:   finding.Detail,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, finding := range published {
		uc.notifier.ConsistencyFinding(finding)
	}
	return report, nil
}

// recordFinding persiste el hallazgo en el registro de auditoría.
func (uc *ConsistencyAuditUseCase) recordFinding(auditRepo repository.AuditRepository, finding domsvc.Finding, repaired bool) error {
	detail := finding.Detail
	if repaired {
		detail = detail + " [reparado]"
	}
	return auditRepo.Append(&entity.AuditEvent{
		ID:         uuid.New().String(),
		Kind:       entity.AuditConsistencyFinding,
		EntityType: "LOAN",
		EntityID:   finding.LoanID,
		NewValue:   finding.Kind,
		Detail:     detail,
		CreatedAt:  time.Now(),
	})
}
