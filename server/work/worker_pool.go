package work

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Daskott/agenda/server/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type WorkerPool struct {
	store    *models.JobStore
	handlers map[string]Handler
	workers  []*worker
	reaper   *stuckJobsReaper
	started  bool
	mu       sync.Mutex
}

func newWorkerPool(store *models.JobStore, concurrency int, idleBackoffs []time.Duration, logg *zap.SugaredLogger) (*WorkerPool, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %v", concurrency)
	}

	if len(idleBackoffs) == 0 {
		return nil, fmt.Errorf("at least one idle backoff is required")
	}

	for _, backoff := range idleBackoffs {
		if backoff <= 0 {
			return nil, fmt.Errorf("idle backoffs must be positive, got %v", backoff)
		}
	}

	wp := WorkerPool{
		store:    store,
		handlers: make(map[string]Handler),
		reaper:   newStuckJobsReaper(store, logg),
	}

	for i := 0; i < concurrency; i++ {
		wp.workers = append(wp.workers, newWorker(store, idleBackoffs, logg))
	}

	return &wp, nil
}

// registerHandler binds a name to a job handler for all workers in pool
func (wp *WorkerPool) registerHandler(name string, handler Handler) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return fmt.Errorf("unable to register %v: worker pool already started", name)
	}

	if _, ok := wp.handlers[name]; ok {
		return ErrDuplicateHandler
	}
	wp.handlers[name] = handler

	for _, worker := range wp.workers {
		err := worker.registerHandler(name, handler)
		if err != nil && !errors.Is(err, ErrDuplicateHandler) {
			return err
		}
	}
	return nil
}

// enqueue adds a job to the queue(to be executed) by creating a DB record based on 'JobParams' provided
func (wp *WorkerPool) enqueue(job JobParams) error {
	if strings.TrimSpace(job.Name) == "" || strings.TrimSpace(job.Handler) == "" {
		return fmt.Errorf("both a name & handler is required for a job")
	}

	if job.Args == nil {
		job.Args = map[string]interface{}{}
	}

	argsAsJson, err := json.Marshal(job.Args)
	if err != nil {
		return err
	}

	return wp.store.CreateJob(job.Name, job.Handler, string(argsAsJson), job.Unique)
}

// start starts all workers in pool i.e the workers can start processing jobs
func (wp *WorkerPool) start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return
	}
	wp.started = true

	for _, worker := range wp.workers {
		worker.start()
	}
	wp.reaper.start()
}

// stop stops all workers in pool i.e jobs will stop being processed.
// In-flight jobs are allowed to finish.
func (wp *WorkerPool) stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.started {
		return
	}

	wg := sync.WaitGroup{}
	for _, w := range wp.workers {
		wg.Add(1)
		go func(w *worker) {
			w.stop()
			wg.Done()
		}(w)
	}
	wg.Add(1)
	go func() {
		wp.reaper.stop()
		wg.Done()
	}()

	wg.Wait()
	wp.started = false
}
