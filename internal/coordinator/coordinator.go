// Package coordinator bridges watcher notifications into scheduler
// jobs: per-target debouncing, priority mapping, a periodic full-sync
// backstop and the manual trigger surface used by the CLI.
package coordinator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"myai/internal/integration"
	"myai/internal/logger"
	"myai/internal/model"
	"myai/internal/repository"
	"myai/internal/scheduler"
	"myai/internal/watcher"

	"go.uber.org/zap"
)

const recentEventsCap = 100

// JobQueue is the slice of the scheduler the coordinator needs.
type JobQueue interface {
	AddJob(spec scheduler.JobSpec) (string, error)
	GetQueueStatus() (model.QueueStatus, error)
}

type Config struct {
	BaseDir          string
	TargetDebounce   time.Duration
	FullSyncInterval time.Duration
	WatchPaths       []string // overrides default path discovery when set
}

type Coordinator struct {
	mu   sync.Mutex
	w    *watcher.Watcher
	jobs JobQueue
	mgr  integration.Manager
	repo *repository.WatchPathRepository // nil when persistence is off
	cfg  Config

	enabled    bool
	running    bool
	callbackID int

	pending    map[model.WatchTarget]model.WatchEvent
	pendingSeq map[model.WatchTarget]uint64
	lastFired  map[model.WatchTarget]time.Time
	recent     []model.EventSummary

	jobsSubmitted int64
	eventsSeen    int64
	lastAutoSync  *time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(w *watcher.Watcher, jobs JobQueue, mgr integration.Manager, repo *repository.WatchPathRepository, cfg Config) *Coordinator {
	if cfg.TargetDebounce <= 0 {
		cfg.TargetDebounce = 2 * time.Second
	}
	if cfg.FullSyncInterval <= 0 {
		cfg.FullSyncInterval = 5 * time.Minute
	}

	return &Coordinator{
		w:          w,
		jobs:       jobs,
		mgr:        mgr,
		repo:       repo,
		cfg:        cfg,
		enabled:    true,
		pending:    make(map[model.WatchTarget]model.WatchEvent),
		pendingSeq: make(map[model.WatchTarget]uint64),
		lastFired:  make(map[model.WatchTarget]time.Time),
	}
}

// Initialize wires the watcher callback and initializes the
// integration collaborator.
func (c *Coordinator) Initialize() error {
	if err := c.mgr.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize integrations: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.callbackID == 0 {
		c.callbackID = c.w.AddCallback(c.handleEvent)
	}

	return nil
}

// Start begins watching, starts the periodic full-sync loop and runs
// the startup sequence: one health check, then one full sync.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	for _, path := range c.watchPaths() {
		if err := c.w.AddPath(path, true, nil); err != nil {
			// Missing default paths are expected; keep going.
			logger.Log.Debug("skipping watch path",
				zap.String("path", path),
				zap.Error(err))
		}
	}

	if err := c.w.Start(); err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	c.wg.Add(1)
	go c.fullSyncLoop()

	c.submit(scheduler.JobSpec{Type: model.JobHealthCheck, Priority: 1}, "startup health check")
	c.submit(scheduler.JobSpec{Type: model.JobFullSync, Priority: 2}, "startup full sync")

	logger.Log.Info("sync coordinator started",
		zap.Duration("full_sync_interval", c.cfg.FullSyncInterval))
	return nil
}

// Stop cancels the periodic loop and detaches from the watcher. The
// watcher itself keeps running for any other registered consumers.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)

	if c.callbackID != 0 {
		c.w.RemoveCallback(c.callbackID)
		c.callbackID = 0
	}

	c.pending = make(map[model.WatchTarget]model.WatchEvent)
	c.mu.Unlock()

	c.wg.Wait()
	logger.Log.Info("sync coordinator stopped")
}

// Enable resumes turning watch events into jobs.
func (c *Coordinator) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable stops producing jobs from watch events. Events are still
// observed and recorded, just not acted on.
func (c *Coordinator) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

func (c *Coordinator) watchPaths() []string {
	if len(c.cfg.WatchPaths) > 0 {
		return c.cfg.WatchPaths
	}

	paths := watcher.DefaultPaths(c.cfg.BaseDir, c.mgr)

	if c.repo != nil {
		stored, err := c.repo.GetAll()
		if err != nil {
			logger.Log.Warn("failed to load stored watch paths", zap.Error(err))
			return paths
		}
		for _, wp := range stored {
			paths = append(paths, wp.Path)
		}
	}

	return paths
}

// handleEvent runs on watcher delivery. Each target gets its own
// debounce window, coarser than the watcher's per-path one: only the
// last event per target within the window produces a job.
func (c *Coordinator) handleEvent(ev model.WatchEvent) {
	c.mu.Lock()

	c.eventsSeen++
	c.recent = append(c.recent, model.EventSummary{
		Type:      ev.Type,
		Path:      ev.Path,
		Target:    ev.Target,
		Timestamp: ev.Timestamp,
	})
	if len(c.recent) > recentEventsCap {
		c.recent = c.recent[len(c.recent)-recentEventsCap:]
	}

	if !c.enabled || !c.running {
		c.mu.Unlock()
		return
	}

	target := ev.Target
	c.pending[target] = ev
	c.pendingSeq[target]++
	seq := c.pendingSeq[target]
	c.mu.Unlock()

	time.AfterFunc(c.cfg.TargetDebounce, func() {
		c.flushTarget(target, seq)
	})
}

func (c *Coordinator) flushTarget(target model.WatchTarget, seq uint64) {
	c.mu.Lock()
	if !c.running || c.pendingSeq[target] != seq {
		c.mu.Unlock()
		return
	}

	if _, ok := c.pending[target]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, target)
	c.lastFired[target] = time.Now()
	c.mu.Unlock()

	jobType, priority := mapTarget(target)
	c.submit(scheduler.JobSpec{Type: jobType, Priority: priority},
		fmt.Sprintf("%s change", target))
}

// mapTarget decides what kind of sync a target's change warrants.
func mapTarget(target model.WatchTarget) (model.JobType, int) {
	switch target {
	case model.TargetConfig:
		return model.JobConfigSync, 2
	case model.TargetAgents, model.TargetTemplates:
		return model.JobAgentSync, 3
	default:
		return model.JobFullSync, 4
	}
}

// submit enqueues a job, counting and logging; submission failures are
// recovered locally so the coordinator never stops observing.
func (c *Coordinator) submit(spec scheduler.JobSpec, reason string) (string, bool) {
	id, err := c.jobs.AddJob(spec)
	if err != nil {
		logger.Log.Error("failed to submit job",
			zap.String("type", string(spec.Type)),
			zap.String("reason", reason),
			zap.Error(err))
		return "", false
	}

	c.mu.Lock()
	c.jobsSubmitted++
	c.mu.Unlock()

	logger.Log.Info("sync job submitted",
		zap.String("id", id),
		zap.String("type", string(spec.Type)),
		zap.Int("priority", spec.Priority),
		zap.String("reason", reason))
	return id, true
}

// fullSyncLoop is the correctness backstop against missed events.
func (c *Coordinator) fullSyncLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.FullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return

		case <-ticker.C:
			c.mu.Lock()
			enabled := c.enabled
			c.mu.Unlock()
			if !enabled {
				continue
			}

			if _, ok := c.submit(scheduler.JobSpec{Type: model.JobFullSync, Priority: 5}, "periodic full sync"); ok {
				now := time.Now()
				c.mu.Lock()
				c.lastAutoSync = &now
				c.mu.Unlock()
			}
		}
	}
}

func (c *Coordinator) TriggerManualSync(priority int) (string, error) {
	return c.trigger(model.JobFullSync, priority, "manual full sync")
}

func (c *Coordinator) TriggerConfigSync(priority int) (string, error) {
	return c.trigger(model.JobConfigSync, priority, "manual config sync")
}

func (c *Coordinator) TriggerAgentSync(priority int) (string, error) {
	return c.trigger(model.JobAgentSync, priority, "manual agent sync")
}

func (c *Coordinator) trigger(jobType model.JobType, priority int, reason string) (string, error) {
	id, ok := c.submit(scheduler.JobSpec{Type: jobType, Priority: priority}, reason)
	if !ok {
		return "", fmt.Errorf("failed to submit %s job", jobType)
	}
	return id, nil
}

// AddWatchPath registers an extra path, persisting it when a
// repository is configured.
func (c *Coordinator) AddWatchPath(path string) error {
	if err := c.w.AddPath(path, true, nil); err != nil {
		return err
	}

	if c.repo != nil {
		exists, err := c.repo.Exists(path)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := c.repo.Add(path, true); err != nil {
				return fmt.Errorf("failed to persist watch path: %w", err)
			}
		}
	}

	return nil
}

func (c *Coordinator) RemoveWatchPath(path string) error {
	if err := c.w.RemovePath(path); err != nil {
		return err
	}

	if c.repo != nil {
		if err := c.repo.DeleteByPath(path); err != nil {
			logger.Log.Warn("failed to remove stored watch path",
				zap.String("path", path),
				zap.Error(err))
		}
	}

	return nil
}

func (c *Coordinator) GetStatus() model.CoordinatorStatus {
	queue, err := c.jobs.GetQueueStatus()
	if err != nil {
		logger.Log.Debug("queue status unavailable", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make([]model.WatchTarget, 0, len(c.pending))
	for target := range c.pending {
		pending = append(pending, target)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })

	last := make(map[model.WatchTarget]time.Time, len(c.lastFired))
	for target, at := range c.lastFired {
		last[target] = at
	}

	return model.CoordinatorStatus{
		Enabled:        c.enabled,
		Running:        c.running,
		WatcherActive:  c.w.IsRunning(),
		PendingTargets: pending,
		LastTriggers:   last,
		Queue:          queue,
		JobsSubmitted:  c.jobsSubmitted,
		EventsSeen:     c.eventsSeen,
		LastAutoSync:   c.lastAutoSync,
	}
}

// GetRecentEvents returns up to limit most recent watch events, newest
// last.
func (c *Coordinator) GetRecentEvents(limit int) []model.EventSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.recent)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]model.EventSummary, n)
	copy(out, c.recent[len(c.recent)-n:])
	return out
}
