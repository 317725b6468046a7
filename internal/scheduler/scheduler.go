// Package scheduler is a generic concurrent job engine: a priority
// queue drained by a fixed worker pool, with per-job timeouts and
// bounded retries. Queue, running set and histories are owned by a
// single dispatch goroutine; workers and callers communicate with it
// exclusively through channels.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"myai/internal/logger"
	"myai/internal/model"

	"go.uber.org/zap"
)

var ErrNotRunning = errors.New("scheduler is not running")

type Config struct {
	MaxConcurrentJobs   int
	HealthCheckInterval time.Duration
	PollInterval        time.Duration
	MaxHistory          int
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = 3
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = 100
	}
}

// JobSpec describes a job to enqueue. Zero fields take defaults:
// priority 5, 3 retries, 30s retry delay, 5m timeout.
type JobSpec struct {
	Type          model.JobType
	TargetAdapter string
	Priority      int
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
	Metadata      map[string]string
}

type Handler func(ctx context.Context, job *model.SyncJob) (any, error)

type outcome struct {
	job      *model.SyncJob
	result   any
	err      error
	duration time.Duration
}

type waitingJob struct {
	job *model.SyncJob
	due time.Time
}

// state is touched only by the dispatch goroutine.
type state struct {
	queue     jobHeap
	seq       uint64
	waiting   []waitingJob
	jobs      map[string]*model.SyncJob
	running   map[string]*model.SyncJob
	completed []*model.SyncJob
	failed    []*model.SyncJob
	stats     model.SchedulerStats
}

type Scheduler struct {
	cfg      Config
	handlers map[model.JobType]Handler

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	addCh   chan *model.SyncJob
	readyCh chan *model.SyncJob
	doneCh  chan outcome
	reqCh   chan func(*state)

	nextID atomic.Int64
}

func New(cfg Config, handlers map[model.JobType]Handler) *Scheduler {
	cfg.applyDefaults()

	if handlers == nil {
		handlers = make(map[model.JobType]Handler)
	}

	return &Scheduler{
		cfg:      cfg,
		handlers: handlers,
	}
}

// RegisterHandler installs or replaces the handler for a job type.
// Must be called before Start.
func (s *Scheduler) RegisterHandler(jt model.JobType, h Handler) {
	s.handlers[jt] = h
}

// Start is idempotent.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.addCh = make(chan *model.SyncJob, 64)
	s.readyCh = make(chan *model.SyncJob)
	s.doneCh = make(chan outcome, s.cfg.MaxConcurrentJobs)
	s.reqCh = make(chan func(*state))
	s.running = true

	s.wg.Add(1)
	go s.dispatch()

	for i := 0; i < s.cfg.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go s.healthLoop()

	logger.Log.Info("scheduler started",
		zap.Int("workers", s.cfg.MaxConcurrentJobs))
	return nil
}

// Stop cancels all workers and the health loop and waits for clean
// shutdown. In-flight jobs are abandoned at their next suspension
// point, not rolled back.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logger.Log.Info("scheduler stopped")
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// AddJob enqueues a new job and returns its id. The queue is
// unbounded; callers are trusted not to spam it.
func (s *Scheduler) AddJob(spec JobSpec) (string, error) {
	if !s.isRunning() {
		return "", ErrNotRunning
	}

	job := &model.SyncJob{
		ID:            fmt.Sprintf("job-%d", s.nextID.Add(1)),
		Type:          spec.Type,
		TargetAdapter: spec.TargetAdapter,
		Priority:      spec.Priority,
		MaxRetries:    spec.MaxRetries,
		RetryDelay:    spec.RetryDelay,
		Timeout:       spec.Timeout,
		Status:        model.JobPending,
		CreatedAt:     time.Now(),
		Metadata:      spec.Metadata,
	}
	if job.Priority <= 0 {
		job.Priority = 5
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = 3
	}
	if job.RetryDelay <= 0 {
		job.RetryDelay = 30 * time.Second
	}
	if job.Timeout <= 0 {
		job.Timeout = 5 * time.Minute
	}

	select {
	case s.addCh <- job:
		return job.ID, nil
	case <-s.ctx.Done():
		return "", ErrNotRunning
	}
}

// CancelJob marks a queued job to be skipped or flags a running job
// as no longer active. It never aborts in-flight execution.
func (s *Scheduler) CancelJob(id string) (bool, error) {
	var cancelled bool
	err := s.request(func(st *state) {
		job, ok := st.jobs[id]
		if !ok {
			return
		}

		switch job.Status {
		case model.JobPending, model.JobRetrying, model.JobRunning:
			job.Status = model.JobCancelled
			cancelled = true
		}
	})
	return cancelled, err
}

func (s *Scheduler) GetJobStatus(id string) (*model.SyncJob, error) {
	var found *model.SyncJob
	err := s.request(func(st *state) {
		if job, ok := st.jobs[id]; ok {
			cp := *job
			found = &cp
		}
	})
	return found, err
}

func (s *Scheduler) GetQueueStatus() (model.QueueStatus, error) {
	var status model.QueueStatus
	err := s.request(func(st *state) {
		status = model.QueueStatus{
			QueueSize: st.queue.Len() + len(st.waiting),
			Running:   len(st.running),
			Completed: len(st.completed),
			Failed:    len(st.failed),
			Stats:     st.stats,
		}
	})
	return status, err
}

// CleanupOldJobs trims completed and failed history to the given caps,
// keeping the most recent entries. Returns how many were dropped.
func (s *Scheduler) CleanupOldJobs(keepCompleted, keepFailed int) (int, error) {
	var removed int
	err := s.request(func(st *state) {
		removed += trimHistory(st, &st.completed, keepCompleted)
		removed += trimHistory(st, &st.failed, keepFailed)
	})
	return removed, err
}

// RecentFailures returns the most recent permanently-failed jobs.
func (s *Scheduler) RecentFailures(limit int) ([]*model.SyncJob, error) {
	var jobs []*model.SyncJob
	err := s.request(func(st *state) {
		n := len(st.failed)
		if limit > 0 && limit < n {
			n = limit
		}
		for i := len(st.failed) - n; i < len(st.failed); i++ {
			cp := *st.failed[i]
			jobs = append(jobs, &cp)
		}
	})
	return jobs, err
}

func (s *Scheduler) request(fn func(*state)) error {
	if !s.isRunning() {
		return ErrNotRunning
	}

	done := make(chan struct{})
	wrapped := func(st *state) {
		fn(st)
		close(done)
	}

	select {
	case s.reqCh <- wrapped:
	case <-s.ctx.Done():
		return ErrNotRunning
	}

	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		return ErrNotRunning
	}
}

// dispatch owns all queue and history state.
func (s *Scheduler) dispatch() {
	defer s.wg.Done()

	st := &state{
		jobs:    make(map[string]*model.SyncJob),
		running: make(map[string]*model.SyncJob),
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Cancelled jobs at the head are archived, not handed out.
		for st.queue.Len() > 0 && st.queue.peek().Status == model.JobCancelled {
			s.archiveCancelled(st, st.queue.pop())
		}

		var ready chan *model.SyncJob
		var next *model.SyncJob
		if st.queue.Len() > 0 {
			ready = s.readyCh
			next = st.queue.peek()
		}

		select {
		case <-s.ctx.Done():
			return

		case job := <-s.addCh:
			st.jobs[job.ID] = job
			st.seq++
			st.queue.push(job, st.seq)

		case ready <- next:
			job := st.queue.pop()
			now := time.Now()
			job.Status = model.JobRunning
			job.StartedAt = &now
			st.running[job.ID] = job

		case o := <-s.doneCh:
			s.handleOutcome(st, o)

		case fn := <-s.reqCh:
			fn(st)

		case <-ticker.C:
			s.requeueDue(st)
		}
	}
}

func (s *Scheduler) requeueDue(st *state) {
	now := time.Now()
	kept := st.waiting[:0]

	for _, w := range st.waiting {
		switch {
		case w.job.Status == model.JobCancelled:
			s.archiveCancelled(st, w.job)
		case !w.due.After(now):
			w.job.Status = model.JobPending
			st.seq++
			st.queue.push(w.job, st.seq)
		default:
			kept = append(kept, w)
		}
	}

	st.waiting = kept
}

func (s *Scheduler) handleOutcome(st *state, o outcome) {
	job := o.job
	delete(st.running, job.ID)
	now := time.Now()

	if job.Status == model.JobCancelled {
		// Cancelled mid-flight; whatever the handler produced is
		// discarded and the job is archived without retry.
		s.archiveCancelled(st, job)
		return
	}

	if o.err == nil {
		job.Status = model.JobCompleted
		job.CompletedAt = &now
		job.Result = o.result
		st.stats.Completed++
		st.stats.TotalExecTime += o.duration
		st.stats.LastSuccess = &now

		appendHistory(st, &st.completed, job, s.cfg.MaxHistory)

		logger.Log.Info("job completed",
			zap.String("id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Duration("duration", o.duration))
		return
	}

	job.Status = model.JobFailed
	job.Error = o.err.Error()

	if job.RetryCount < job.MaxRetries {
		job.RetryCount++
		job.Status = model.JobRetrying
		job.Error = ""
		st.stats.Retried++
		st.waiting = append(st.waiting, waitingJob{
			job: job,
			due: now.Add(job.RetryDelay),
		})

		logger.Log.Warn("job failed, will retry",
			zap.String("id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(o.err))
		return
	}

	job.CompletedAt = &now
	st.stats.Failed++
	appendHistory(st, &st.failed, job, s.cfg.MaxHistory)

	logger.Log.Error("job failed permanently",
		zap.String("id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("retries", job.RetryCount),
		zap.Error(o.err))
}

func (s *Scheduler) archiveCancelled(st *state, job *model.SyncJob) {
	if job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}
	appendHistory(st, &st.failed, job, s.cfg.MaxHistory)
}

func appendHistory(st *state, list *[]*model.SyncJob, job *model.SyncJob, max int) {
	*list = append(*list, job)
	trimHistory(st, list, max)
}

func trimHistory(st *state, list *[]*model.SyncJob, keep int) int {
	if keep < 0 {
		keep = 0
	}

	drop := len(*list) - keep
	if drop <= 0 {
		return 0
	}

	for _, job := range (*list)[:drop] {
		delete(st.jobs, job.ID)
	}
	*list = append((*list)[:0], (*list)[drop:]...)
	return drop
}

func (s *Scheduler) worker(n int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case job := <-s.readyCh:
			// A fault in the loop itself must not kill the worker;
			// that would silently shrink effective concurrency.
			if !s.runOne(job) {
				time.Sleep(100 * time.Millisecond)
			}

			select {
			case <-s.ctx.Done():
				return
			default:
			}
		}
	}
}

func (s *Scheduler) runOne(job *model.SyncJob) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("worker loop panic",
				zap.String("id", job.ID),
				zap.Any("panic", r))
			ok = false

			select {
			case s.doneCh <- outcome{job: job, err: fmt.Errorf("worker panicked: %v", r)}:
			case <-s.ctx.Done():
			}
		}
	}()

	out := s.execute(job)

	select {
	case s.doneCh <- out:
	case <-s.ctx.Done():
	}

	return true
}

// execute runs one job under its timeout. Handler panics and timeouts
// are both reported as execution failures.
func (s *Scheduler) execute(job *model.SyncJob) outcome {
	handler, ok := s.handlers[job.Type]
	if !ok {
		return outcome{job: job, err: fmt.Errorf("no handler for job type %s", job.Type)}
	}

	ctx, cancel := context.WithTimeout(s.ctx, job.Timeout)
	defer cancel()

	type result struct {
		res any
		err error
	}
	resCh := make(chan result, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- result{err: fmt.Errorf("job panicked: %v", r)}
			}
		}()

		res, err := handler(ctx, job)
		resCh <- result{res: res, err: err}
	}()

	select {
	case r := <-resCh:
		return outcome{job: job, result: r.res, err: r.err, duration: time.Since(start)}

	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("job timed out after %s", job.Timeout)
		}
		return outcome{job: job, err: err, duration: time.Since(start)}
	}
}

// healthLoop injects a low-priority liveness probe on a fixed cadence,
// independent of coordinator activity.
func (s *Scheduler) healthLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			_, err := s.AddJob(JobSpec{
				Type:       model.JobHealthCheck,
				Priority:   10,
				MaxRetries: 1,
				Timeout:    30 * time.Second,
			})
			if err != nil && !errors.Is(err, ErrNotRunning) {
				logger.Log.Warn("failed to inject health check", zap.Error(err))
			}
		}
	}
}
