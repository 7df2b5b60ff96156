// Package scheduler programa los procesos periódicos del motor sobre
// robfig/cron: el barrido de mora y la auditoría de consistencia.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/pkg/config"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// Scheduler ejecuta en background los barridos del motor según las
// expresiones cron de la configuración.
type Scheduler struct {
	cron      *cron.Cron
	evaluator *servicing.EvaluateBorrowerUseCase
	auditor   *servicing.ConsistencyAuditUseCase
	log       *logger.Logger
}

// New construye el scheduler sin arrancarlo.
func New(
	cfg config.SweepConfig,
	evaluator *servicing.EvaluateBorrowerUseCase,
	auditor *servicing.ConsistencyAuditUseCase,
	log *logger.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		evaluator: evaluator,
		auditor:   auditor,
		log:       log.Component("scheduler"),
	}

	if _, err := s.cron.AddFunc(cfg.DelinquencyCron, s.runDelinquencySweep); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.AuditCron, s.runConsistencyAudit); err != nil {
		return nil, err
	}
	return s, nil
}

// Start arranca los jobs en background.
func (s *Scheduler) Start() {
	s.log.Info().Msg("procesos periódicos arrancados")
	s.cron.Start()
}

// Stop detiene el scheduler y espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("procesos periódicos detenidos")
}

func (s *Scheduler) runDelinquencySweep() {
	if err := s.evaluator.SweepAll(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("barrido de mora fallido")
	}
}

func (s *Scheduler) runConsistencyAudit() {
	// Solo detección en el ciclo automático: la reparación es una decisión
	// explícita del operador vía la API.
	if _, err := s.auditor.Execute(context.Background(), "", false); err != nil {
		s.log.Error().Err(err).Msg("auditoría de consistencia fallida")
	}
}
