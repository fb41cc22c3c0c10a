package work

import (
	"errors"
	"fmt"
	"time"

	"github.com/Daskott/agenda/server/cron"
	"github.com/Daskott/agenda/server/logger"
	"github.com/Daskott/agenda/server/models"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const MAX_CONCURRENCY = 1

type WorkerPoolAdapter struct {
	cronScheduler *gocron.Scheduler
	pool          *WorkerPool
	logg          *zap.SugaredLogger
}

// NewWorkerAdapter returns a worker pool backed by 'store' whose periodic jobs
// are scheduled in 'timeZone'. A nil 'logg' logs to the console.
func NewWorkerAdapter(store *models.JobStore, timeZone string, logg *zap.SugaredLogger) (*WorkerPoolAdapter, error) {
	return newWorkerAdapter(store, timeZone, logg, DefaultIdleBackoffs)
}

func newWorkerAdapter(store *models.JobStore, timeZone string, logg *zap.SugaredLogger, idleBackoffs []time.Duration) (*WorkerPoolAdapter, error) {
	if logg == nil {
		logg = logger.NewLogger()
	}

	pool, err := newWorkerPool(store, MAX_CONCURRENCY, idleBackoffs, logg)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolAdapter{
		cronScheduler: cron.NewCronScheduler(timeZone),
		pool:          pool,
		logg:          logg,
	}, nil
}

// Start starts the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Start() {
	adapter.logg.Info("Starting cron scheduler & worker pool")
	adapter.cronScheduler.StartAsync()
	adapter.pool.start()
}

// Stop stops the cron scheduler & worker pool
func (adapter *WorkerPoolAdapter) Stop() {
	adapter.logg.Info("Stopping cron scheduler & worker pool")
	adapter.cronScheduler.Stop()
	adapter.pool.stop()
}

// Register binds a name to a handler.
func (adapter *WorkerPoolAdapter) Register(name string, handler Handler) error {
	return adapter.pool.registerHandler(name, handler)
}

// Perform sends a new job to the queue, now - to be executed as soon as a worker is available
func (adapter *WorkerPoolAdapter) Perform(job JobParams) error {
	adapter.logg.Infof("Enqueuing job: %v", job.Name)

	err := adapter.pool.enqueue(job)
	if errors.Is(err, models.ErrDuplicateJob) {
		adapter.logg.Warnf("Duplicate job already in queue for: %v", job.Name)
		return nil
	}

	if err != nil {
		return fmt.Errorf("error enqueuing job: %v, %v", job.Name, err)
	}

	return nil
}

// PeriodicallyPerform adds a job to the queue (to be executed)
// periodically, based on the 'cronExpression' expression provided
func (adapter *WorkerPoolAdapter) PeriodicallyPerform(cronExpression string, job JobParams) error {
	_, err := adapter.cronScheduler.Cron(cronExpression).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					adapter.logg.Error(err)
				}
			},
			job,
		)
	return err
}

func (adapter *WorkerPoolAdapter) RemovePeriodicJob(jobName string) error {
	return adapter.cronScheduler.RemoveByTag(jobName)
}
