// Package notify implementa los publicadores de eventos salientes del motor.
package notify

import (
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

var _ servicing.Notifier = (*LoggerNotifier)(nil)

// LoggerNotifier publica los eventos del motor como log estructurado. Es el
// publicador por defecto; un broker externo puede sustituirlo implementando
// el mismo puerto.
type LoggerNotifier struct {
	log *logger.Logger
}

// NewLoggerNotifier construye el publicador sobre el logger dado.
func NewLoggerNotifier(log *logger.Logger) *LoggerNotifier {
	return &LoggerNotifier{log: log.Component("notifier")}
}

// InstallmentsGenerated anuncia un plan de cuotas recién generado.
func (n *LoggerNotifier) InstallmentsGenerated(loanID string, count int) {
	n.log.Info().
		Str("evento", "cuotas_generadas").
		Str("loan_id", loanID).
		Int("cuotas", count).
		Msg("plan de cuotas generado")
}

// ReconciliationCompleted anuncia el resultado de conciliar un pago.
func (n *LoggerNotifier) ReconciliationCompleted(result *dto.ReconciliationResult) {
	n.log.Info().
		Str("evento", "conciliacion_completada").
		Str("payment_id", result.PaymentID).
		Str("referencia", result.Reference).
		Str("estado", result.Status).
		Int("asignaciones", len(result.Allocations)).
		Str("remanente", result.CreditRemainder.String()).
		Msg("pago conciliado")
}

// BorrowerStatusChanged anuncia un cambio de estado de mora del deudor.
func (n *LoggerNotifier) BorrowerStatusChanged(borrowerID, oldStatus, newStatus string) {
	n.log.Info().
		Str("evento", "estado_deudor_cambiado").
		Str("borrower_id", borrowerID).
		Str("anterior", oldStatus).
		Str("nuevo", newStatus).
		Msg("estado del deudor actualizado")
}

// ConsistencyFinding anuncia un hallazgo de la auditoría de consistencia.
func (n *LoggerNotifier) ConsistencyFinding(finding domsvc.Finding) {
	n.log.Warn().
		Str("evento", "hallazgo_consistencia").
		Str("loan_id", finding.LoanID).
		Str("tipo", finding.Kind).
		Int("secuencia", finding.Sequence).
		Str("detalle", finding.Detail).
		Msg("inconsistencia detectada en plan de cuotas")
}
