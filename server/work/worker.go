package work

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Daskott/agenda/colors"
	"github.com/Daskott/agenda/server/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MAX_FAILS = 4

var (
	DefaultTickerDuration = 5 * time.Millisecond
	TickerDurationOnError = 10 * time.Millisecond

	// DefaultIdleBackoffs is how long an idle worker waits between queue polls,
	// growing with each consecutive empty poll.
	DefaultIdleBackoffs = []time.Duration{time.Second, 10 * time.Second, 100 * time.Second, 120 * time.Second}

	ErrDuplicateHandler = errors.New("handler with provided name already mapped")
	ErrMissingHandler   = errors.New("no handler mapped for job")
)

type JobParams struct {
	Name    string
	Handler string
	Unique  bool
	Args    map[string]interface{}
}

type Handler func(map[string]interface{}) error

type worker struct {
	id           string
	store        *models.JobStore
	handlers     map[string]Handler
	stopChan     chan struct{}
	idleBackoffs []time.Duration
	logg         *zap.SugaredLogger
}

func newWorker(store *models.JobStore, idleBackoffs []time.Duration, logg *zap.SugaredLogger) *worker {
	return &worker{
		id:           uuid.NewString()[:8],
		store:        store,
		handlers:     make(map[string]Handler),
		stopChan:     make(chan struct{}),
		idleBackoffs: idleBackoffs,
		logg:         logg,
	}
}

// registerHandler binds a name to a job handler.
func (w *worker) registerHandler(name string, handler Handler) error {
	if _, ok := w.handlers[name]; ok {
		return ErrDuplicateHandler
	}

	w.handlers[name] = handler

	return nil
}

// start starts the worker loop that pulls jobs from the queue & process them
func (w *worker) start() {
	go w.loop()
}

func (w *worker) stop() {
	w.stopChan <- struct{}{}
}

func (w *worker) loop() {
	var consecutiveNoJobs int
	var currentJob *models.Job
	var err error

	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	w.logg.Infof("Starting worker %s", w.id)
	for {
		select {
		case <-w.stopChan:
			w.logg.Infof("Stopping worker %s", w.id)
			return
		case <-rateLimiter.C:
			currentJob, err = w.store.FirstJob(models.ENQUEUED_JOB, false)
			if err != nil {
				if errors.Is(err, models.ErrRecordNotFound) {
					// If no job found, slowly increase the wait time between each job fetch
					// using 'idleBackoffs'. To reduce db hit when it's not necessary.
					idx := consecutiveNoJobs
					if idx >= len(w.idleBackoffs) {
						idx = len(w.idleBackoffs) - 1
					}
					consecutiveNoJobs++
					rateLimiter.Reset(w.idleBackoffs[idx])
					continue
				}

				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			claimed, err := w.store.ClaimJob(currentJob.ID)
			if err != nil {
				w.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			w.logInfof("fetched job with id=%v, name=%v, claimed=%v", currentJob.ID, currentJob.Name, claimed)

			if !claimed {
				continue
			}

			w.processJob(currentJob)
			rateLimiter.Reset(DefaultTickerDuration)
			consecutiveNoJobs = 0
		}
	}
}

func (w *worker) processJob(job *models.Job) {
	handler, ok := w.handlers[job.Handler]
	if !ok {
		w.determineFailedJobFate(job, fmt.Errorf("%w: %v", ErrMissingHandler, job.Handler))
		return
	}

	args := make(map[string]interface{})
	err := json.Unmarshal([]byte(job.Args), &args)
	if err != nil {
		w.logError(err)
		w.determineFailedJobFate(job, err)
		return
	}

	err = handler(args)
	if err != nil {
		w.logError(err)
		w.determineFailedJobFate(job, err)
		return
	}
	w.markJobAsSuccessful(job)
}

func (w *worker) determineFailedJobFate(job *models.Job, runError error) {
	var jobStatus *models.JobStatus
	var err error

	job.Fails++

	// For job with Fails >= MAX_FAILS mark as DEAD else requeue the job to be retried
	if job.Fails >= MAX_FAILS {
		jobStatus, err = w.store.FindJobStatus(models.DEAD_JOB)
	} else {
		jobStatus, err = w.store.FindJobStatus(models.ENQUEUED_JOB)
	}

	if err != nil {
		w.logError(err)
		return
	}

	// Unclaim job and update it with the necessary fail information
	err = w.store.UpdateJob(job.ID, map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
		"fails":         job.Fails,
		"last_error":    runError.Error(),
	})
	if err != nil {
		w.logError(err)
	}
	w.logInfof("job with id=%v completed with status=%v", job.ID, jobStatus.Name)
}

func (w *worker) markJobAsSuccessful(job *models.Job) {
	jobStatus, err := w.store.FindJobStatus(models.SUCCESSFUL_JOB)
	if err != nil {
		w.logError(err)
		return
	}

	err = w.store.UpdateJob(job.ID, map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
	})
	if err != nil {
		w.logError(err)
	}
	w.logInfof("job with id=%v completed with status=%v", job.ID, jobStatus.Name)
}

func (w *worker) logInfof(template string, args ...interface{}) {
	prefix := colors.Tag(colors.Yellow, "worker "+w.id)
	w.logg.Infof(prefix+template, args...)
}

func (w *worker) logError(err error) {
	prefix := colors.Tag(colors.Red, "worker "+w.id)
	w.logg.Errorf("%v%v", prefix, err)
}
