package ports

import "context"

// SchedulerService runs jobs on a cron schedule.
type SchedulerService interface {
	Start()
	Stop()
	// ScheduleCron registers job to run at every tick of the cron spec.
	ScheduleCron(spec string, job func(ctx context.Context)) error
}

// TipNotifier pushes the height of every new chain tip.
type TipNotifier interface {
	Start(ctx context.Context) error
	Tips() <-chan uint64
	Close()
}
