package monitorservice

import (
	"context"
	"time"

	"gorent/internal/pkg/logger"
)

// schedulerActor identifica o monitor como autor das mutações que ele dispara.
const schedulerActor = "stock-monitor"

// Scheduler dispara o monitor de estoque em intervalos fixos, com uma rodada
// inicial pouco depois do arranque. Falhas de rodada são logadas e a próxima
// rodada acontece normalmente.
type Scheduler struct {
	monitor      *Service
	interval     time.Duration
	startupDelay time.Duration
	logger       logger.Logger
}

// NewScheduler cria o agendador do monitor de estoque.
func NewScheduler(monitor *Service, interval, startupDelay time.Duration, logger logger.Logger) *Scheduler {
	return &Scheduler{monitor: monitor, interval: interval, startupDelay: startupDelay, logger: logger}
}

// Run bloqueia até o contexto ser cancelado. Deve rodar em uma goroutine
// própria.
func (s *Scheduler) Run(ctx context.Context) {
	select {
	case <-time.After(s.startupDelay):
		s.runOnce(ctx)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Agendador do monitor de estoque encerrado.", nil)
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.monitor.RunStockCheck(ctx, schedulerActor); err != nil {
		s.logger.Error("Rodada do monitor de estoque falhou.", err)
	}
}
