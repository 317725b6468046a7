package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"myai/internal/integration"
	"myai/internal/model"
	"myai/internal/scheduler"
	"myai/internal/watcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu    sync.Mutex
	specs []scheduler.JobSpec
	next  int
}

func (q *fakeQueue) AddJob(spec scheduler.JobSpec) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.specs = append(q.specs, spec)
	q.next++
	return "job-test", nil
}

func (q *fakeQueue) GetQueueStatus() (model.QueueStatus, error) {
	return model.QueueStatus{}, nil
}

func (q *fakeQueue) submitted() []scheduler.JobSpec {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]scheduler.JobSpec, len(q.specs))
	copy(out, q.specs)
	return out
}

type noopManager struct{}

func (noopManager) Initialize() error { return nil }
func (noopManager) SyncAgents(ctx context.Context, names []string) (map[string]model.SyncResult, error) {
	return nil, nil
}
func (noopManager) ValidateConfigurations(names []string) (map[string]model.ValidationResult, error) {
	return nil, nil
}
func (noopManager) HealthCheck(ctx context.Context, names []string) (map[string]model.HealthResult, error) {
	return nil, nil
}
func (noopManager) ListAdapters() []string                 { return nil }
func (noopManager) GetAdapter(name string) integration.Adapter { return nil }

func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *fakeQueue) {
	t.Helper()

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{t.TempDir()}
	}
	if cfg.TargetDebounce == 0 {
		cfg.TargetDebounce = 30 * time.Millisecond
	}
	if cfg.FullSyncInterval == 0 {
		cfg.FullSyncInterval = time.Hour
	}

	w := watcher.New(watcher.Config{Debounce: 10 * time.Millisecond})
	q := &fakeQueue{}
	c := New(w, q, noopManager{}, nil, cfg)
	require.NoError(t, c.Initialize())

	t.Cleanup(func() {
		c.Stop()
		w.Stop()
	})

	return c, q
}

func event(target model.WatchTarget, path string) model.WatchEvent {
	return model.WatchEvent{
		Type:      model.EventModified,
		Path:      path,
		Target:    target,
		Timestamp: time.Now(),
	}
}

func TestCoordinator_StartupSequence(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())

	specs := q.submitted()
	require.GreaterOrEqual(t, len(specs), 2)
	assert.Equal(t, model.JobHealthCheck, specs[0].Type)
	assert.Equal(t, 1, specs[0].Priority)
	assert.Equal(t, model.JobFullSync, specs[1].Type)
	assert.Equal(t, 2, specs[1].Priority)
}

func TestCoordinator_TargetMapping(t *testing.T) {
	tests := []struct {
		target   model.WatchTarget
		jobType  model.JobType
		priority int
	}{
		{model.TargetConfig, model.JobConfigSync, 2},
		{model.TargetAgents, model.JobAgentSync, 3},
		{model.TargetTemplates, model.JobAgentSync, 3},
		{model.TargetTools, model.JobFullSync, 4},
		{model.TargetIntegrations, model.JobFullSync, 4},
	}

	for _, tt := range tests {
		jobType, priority := mapTarget(tt.target)
		assert.Equal(t, tt.jobType, jobType, "target %s", tt.target)
		assert.Equal(t, tt.priority, priority, "target %s", tt.target)
	}
}

func TestCoordinator_EventProducesJob(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())
	startup := len(q.submitted())

	c.handleEvent(event(model.TargetConfig, "/base/config.yaml"))

	require.Eventually(t, func() bool {
		return len(q.submitted()) > startup
	}, time.Second, 5*time.Millisecond)

	specs := q.submitted()
	last := specs[len(specs)-1]
	assert.Equal(t, model.JobConfigSync, last.Type)
	assert.Equal(t, 2, last.Priority)
}

func TestCoordinator_PerTargetDebounce(t *testing.T) {
	c, q := newTestCoordinator(t, Config{TargetDebounce: 50 * time.Millisecond})
	require.NoError(t, c.Start())
	startup := len(q.submitted())

	// A burst of agent changes within the window collapses to one job.
	for i := 0; i < 5; i++ {
		c.handleEvent(event(model.TargetAgents, "/base/agents/reviewer.md"))
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	var agentJobs int
	for _, spec := range q.submitted()[startup:] {
		if spec.Type == model.JobAgentSync {
			agentJobs++
		}
	}
	assert.Equal(t, 1, agentJobs)
}

func TestCoordinator_SeparateTargetsNotCoalesced(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())
	startup := len(q.submitted())

	c.handleEvent(event(model.TargetConfig, "/base/config.yaml"))
	c.handleEvent(event(model.TargetAgents, "/base/agents/reviewer.md"))

	require.Eventually(t, func() bool {
		return len(q.submitted()) >= startup+2
	}, time.Second, 5*time.Millisecond)

	types := make(map[model.JobType]bool)
	for _, spec := range q.submitted()[startup:] {
		types[spec.Type] = true
	}
	assert.True(t, types[model.JobConfigSync])
	assert.True(t, types[model.JobAgentSync])
}

func TestCoordinator_DisableSuppressesJobs(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())
	c.Disable()
	startup := len(q.submitted())

	c.handleEvent(event(model.TargetAgents, "/base/agents/reviewer.md"))
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, q.submitted(), startup, "disabled coordinator must not submit jobs")

	// Events are still observed and recorded while disabled.
	events := c.GetRecentEvents(10)
	require.NotEmpty(t, events)
	assert.Equal(t, "/base/agents/reviewer.md", events[len(events)-1].Path)

	c.Enable()
	c.handleEvent(event(model.TargetAgents, "/base/agents/reviewer.md"))

	require.Eventually(t, func() bool {
		return len(q.submitted()) > startup
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinator_PeriodicFullSync(t *testing.T) {
	c, q := newTestCoordinator(t, Config{FullSyncInterval: 40 * time.Millisecond})
	require.NoError(t, c.Start())
	startup := len(q.submitted())

	require.Eventually(t, func() bool {
		for _, spec := range q.submitted()[startup:] {
			if spec.Type == model.JobFullSync && spec.Priority == 5 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	status := c.GetStatus()
	assert.NotNil(t, status.LastAutoSync)
}

func TestCoordinator_ManualTriggers(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())

	id, err := c.TriggerManualSync(1)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = c.TriggerConfigSync(2)
	require.NoError(t, err)
	_, err = c.TriggerAgentSync(3)
	require.NoError(t, err)

	specs := q.submitted()
	tail := specs[len(specs)-3:]
	assert.Equal(t, model.JobFullSync, tail[0].Type)
	assert.Equal(t, 1, tail[0].Priority)
	assert.Equal(t, model.JobConfigSync, tail[1].Type)
	assert.Equal(t, model.JobAgentSync, tail[2].Type)
}

func TestCoordinator_StatusCounters(t *testing.T) {
	c, q := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())

	c.handleEvent(event(model.TargetAgents, "/base/agents/a.md"))
	c.handleEvent(event(model.TargetAgents, "/base/agents/b.md"))

	status := c.GetStatus()
	assert.True(t, status.Running)
	assert.True(t, status.Enabled)
	assert.True(t, status.WatcherActive)
	assert.EqualValues(t, 2, status.EventsSeen)
	assert.Contains(t, status.PendingTargets, model.TargetAgents)

	require.Eventually(t, func() bool {
		return len(q.submitted()) >= 3
	}, time.Second, 5*time.Millisecond)

	status = c.GetStatus()
	assert.Empty(t, status.PendingTargets)
	assert.Contains(t, status.LastTriggers, model.TargetAgents)
}

func TestCoordinator_RecentEventsLimit(t *testing.T) {
	c, _ := newTestCoordinator(t, Config{})
	require.NoError(t, c.Start())
	c.Disable()

	for i := 0; i < 10; i++ {
		c.handleEvent(event(model.TargetAgents, "/base/agents/a.md"))
	}

	events := c.GetRecentEvents(3)
	assert.Len(t, events, 3)

	all := c.GetRecentEvents(0)
	assert.Len(t, all, 10)
}

func TestCoordinator_StopDetachesFromWatcher(t *testing.T) {
	cfg := Config{WatchPaths: []string{t.TempDir()}}
	w := watcher.New(watcher.Config{Debounce: 10 * time.Millisecond})
	q := &fakeQueue{}
	c := New(w, q, noopManager{}, nil, cfg)
	require.NoError(t, c.Initialize())
	require.NoError(t, c.Start())
	defer w.Stop()

	c.Stop()
	assert.True(t, w.IsRunning(), "watcher survives coordinator stop")

	before := len(q.submitted())
	c.handleEvent(event(model.TargetAgents, "/base/agents/a.md"))
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, q.submitted(), before)
}
