// Package jobs - фоновые задачи по расписанию.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// IndexRebuilder перестраивает индекс близости из хранилища
type IndexRebuilder interface {
	RebuildIndex(ctx context.Context) error
}

// Scheduler - обертка над cron с логированием запусков
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// ScheduleIndexResync регистрирует периодическую пересборку индекса.
// Каждый запуск ограничен timeout.
func (s *Scheduler) ScheduleIndexResync(schedule string, rebuilder IndexRebuilder, timeout time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.resyncIndex(rebuilder, timeout)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index resync %q: %w", schedule, err)
	}
	s.logger.WithField("schedule", schedule).Info("Index resync scheduled")
	return nil
}

func (s *Scheduler) resyncIndex(rebuilder IndexRebuilder, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := rebuilder.RebuildIndex(ctx); err != nil {
		s.logger.WithError(err).Error("Scheduled index resync failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Debug("Scheduled index resync finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения запущенных задач
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
