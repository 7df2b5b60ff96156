package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
)

// AuditHandler maneja las peticiones HTTP de la auditoría de consistencia.
type AuditHandler struct {
	auditor *servicing.ConsistencyAuditUseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(auditor *servicing.ConsistencyAuditUseCase) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// Run verifica los invariantes estructurales de los planes. Con ?loan_id
// audita un préstamo puntual; con ?repair=true aplica la reparación segura.
// POST /api/audits/consistency
func (h *AuditHandler) Run(c *fiber.Ctx) error {
	loanID := c.Query("loan_id")
	repair := c.QueryBool("repair")
	findings, err := h.auditor.Execute(c.Context(), loanID, repair)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"findings": findings, "total": len(findings), "repair": repair})
}
