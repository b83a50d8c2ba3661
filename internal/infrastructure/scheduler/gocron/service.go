package scheduler

import (
	"context"
	"time"

	"github.com/JavierCervilla/BTC-OPENBOOK/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler returns a scheduler whose jobs never overlap with a previous
// run of themselves. The context given to the jobs is canceled on Stop.
func NewScheduler() ports.SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &service{
		scheduler: gocron.NewScheduler(time.UTC),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *service) ScheduleCron(spec string, job func(ctx context.Context)) error {
	_, err := s.scheduler.Cron(spec).SingletonMode().Do(func() {
		job(s.ctx)
	})
	return err
}
