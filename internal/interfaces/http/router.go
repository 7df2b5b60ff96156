package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Lifecycle  *servicing.LoanLifecycleUseCase
	Generator  *servicing.GenerateScheduleUseCase
	Reconciler *servicing.ApplyPaymentUseCase
	Evaluator  *servicing.EvaluateBorrowerUseCase
	Auditor    *servicing.ConsistencyAuditUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Deudores
	borrowers := api.Group("/borrowers")
	borrowerHandler := NewBorrowerHandler(deps.Lifecycle, deps.Evaluator)
	borrowers.Post("/", borrowerHandler.Register)
	borrowers.Post("/sweep", borrowerHandler.Sweep)
	borrowers.Post("/:id/evaluate", borrowerHandler.Evaluate)
	borrowers.Get("/:id/credit", borrowerHandler.CreditBalance)
	borrowers.Get("/:id/loans", borrowerHandler.Portfolio)
	borrowers.Get("/:id/history", borrowerHandler.History)

	// Préstamos y su plan de cuotas
	loans := api.Group("/loans")
	loanHandler := NewLoanHandler(deps.Lifecycle)
	scheduleHandler := NewScheduleHandler(deps.Generator)
	loans.Post("/", loanHandler.Register)
	loans.Post("/:id/approve", loanHandler.Approve)
	loans.Post("/:id/reject", loanHandler.Reject)
	loans.Post("/:id/cancel", loanHandler.Cancel)
	loans.Get("/:id/history", loanHandler.History)
	loans.Post("/:id/schedule", scheduleHandler.Generate)
	loans.Get("/:id/schedule", scheduleHandler.Get)

	// Conciliación de pagos
	payments := api.Group("/payments")
	paymentHandler := NewPaymentHandler(deps.Reconciler)
	payments.Post("/", paymentHandler.Apply)
	payments.Post("/reversals", paymentHandler.Reverse)
	payments.Get("/unmatched", paymentHandler.ListUnmatched)

	// Auditoría de consistencia
	audits := api.Group("/audits")
	auditHandler := NewAuditHandler(deps.Auditor)
	audits.Post("/consistency", auditHandler.Run)
}
