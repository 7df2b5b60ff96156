package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
)

// ScheduleHandler maneja las peticiones HTTP del plan de cuotas.
type ScheduleHandler struct {
	generator *servicing.GenerateScheduleUseCase
}

// NewScheduleHandler construye el handler.
func NewScheduleHandler(generator *servicing.GenerateScheduleUseCase) *ScheduleHandler {
	return &ScheduleHandler{generator: generator}
}

// Generate genera (o regenera, si el body lo pide y no hay pagos) el plan.
// POST /api/loans/:id/schedule
func (h *ScheduleHandler) Generate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	var in dto.GenerateScheduleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "cuerpo inválido")
		}
	}
	installments, err := h.generator.Execute(c.Context(), id, in.Regenerate)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"loan_id": id, "installments": len(installments)})
}

// Get devuelve el plan vigente con su resumen.
// GET /api/loans/:id/schedule
func (h *ScheduleHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id requerido")
	}
	schedule, err := h.generator.GetSchedule(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(schedule)
}
