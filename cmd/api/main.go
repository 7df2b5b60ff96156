package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/notify"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/Cartera-api/internal/interfaces/http"
	"github.com/jhoicas/Cartera-api/pkg/config"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	notifier := notify.NewLoggerNotifier(log)

	evaluatorUC := servicing.NewEvaluateBorrowerUseCase(txRunner, notifier, log, cfg.Sweep.Concurrency)
	generatorUC := servicing.NewGenerateScheduleUseCase(txRunner, notifier)
	reconcilerUC := servicing.NewApplyPaymentUseCase(txRunner, notifier, log)
	auditorUC := servicing.NewConsistencyAuditUseCase(txRunner, notifier, log)
	lifecycleUC := servicing.NewLoanLifecycleUseCase(txRunner, generatorUC, evaluatorUC)

	// Procesos periódicos: barrido de mora y auditoría de consistencia.
	sched, err := scheduler.New(cfg.Sweep, evaluatorUC, auditorUC, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de los procesos periódicos")
	}
	sched.Start()
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Lifecycle:  lifecycleUC,
		Generator:  generatorUC,
		Reconciler: reconcilerUC,
		Evaluator:  evaluatorUC,
		Auditor:    auditorUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
