package work

import (
	"errors"
	"time"

	"github.com/Daskott/agenda/colors"
	"github.com/Daskott/agenda/server/models"
	"go.uber.org/zap"
)

const (
	// in-progress jobs not updated within this many minutes are considered stuck
	STUCK_JOB_MINUTES = 30
)

var ReaperSleepDuration = 30 * time.Minute

type stuckJobsReaper struct {
	store    *models.JobStore
	stopChan chan struct{}
	logg     *zap.SugaredLogger
}

func newStuckJobsReaper(store *models.JobStore, logg *zap.SugaredLogger) *stuckJobsReaper {
	return &stuckJobsReaper{
		store:    store,
		stopChan: make(chan struct{}),
		logg:     logg,
	}
}

// start starts the reaper loop that pulls jobs from 'in-progress'
// that are stuck(i.e stayed too long in-progress) and requeue them
func (r *stuckJobsReaper) start() {
	go r.loop()
}

func (r *stuckJobsReaper) stop() {
	r.stopChan <- struct{}{}
}

func (r *stuckJobsReaper) loop() {
	var stuckJob *models.Job
	var err error

	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	r.logg.Infof("Starting job reaper")
	for {
		select {
		case <-r.stopChan:
			r.logg.Infof("Stopping job reaper")
			return
		case <-rateLimiter.C:
			stuckJob, err = r.store.LastJobLastUpdated(STUCK_JOB_MINUTES, models.IN_PROGRESS_JOB)

			// If no stuck job found, sleep for 'ReaperSleepDuration'
			if errors.Is(err, models.ErrRecordNotFound) {
				rateLimiter.Reset(ReaperSleepDuration)
				continue
			}

			if err != nil {
				r.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			r.logInfof("fetched job with id=%v, status_id=%v, job.claimed=%v",
				stuckJob.ID, stuckJob.JobStatusID, stuckJob.Claimed)

			r.requeue(stuckJob)
			rateLimiter.Reset(DefaultTickerDuration)
		}
	}
}

func (r *stuckJobsReaper) requeue(job *models.Job) {
	jobStatus, err := r.store.FindJobStatus(models.ENQUEUED_JOB)
	if err != nil {
		r.logError(err)
		return
	}

	err = r.store.UpdateJob(job.ID, map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
	})
	if err != nil {
		r.logError(err)
		return
	}

	r.logInfof("job with id=%v requeued", job.ID)
}

func (r *stuckJobsReaper) logInfof(template string, args ...interface{}) {
	prefix := colors.Tag(colors.Yellow, "job reaper")
	r.logg.Infof(prefix+template, args...)
}

func (r *stuckJobsReaper) logError(err error) {
	prefix := colors.Tag(colors.Red, "job reaper")
	r.logg.Errorf("%v%v", prefix, err)
}
