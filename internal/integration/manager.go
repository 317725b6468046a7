package integration

import (
	"context"
	"fmt"
	"sync"

	"myai/internal/agent"
	"myai/internal/logger"
	"myai/internal/model"

	"go.uber.org/zap"
)

// ToolManager is the concrete Manager over a fixed adapter set.
type ToolManager struct {
	mu       sync.RWMutex
	store    *agent.Store
	adapters map[string]Adapter
	order    []string
}

func NewToolManager(store *agent.Store, adapters ...Adapter) *ToolManager {
	m := &ToolManager{
		store:    store,
		adapters: make(map[string]Adapter),
	}
	for _, a := range adapters {
		m.Register(a)
	}
	return m
}

func (m *ToolManager) Register(a Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.adapters[a.Name()]; !exists {
		m.order = append(m.order, a.Name())
	}
	m.adapters[a.Name()] = a
}

func (m *ToolManager) Initialize() error {
	for _, name := range m.ListAdapters() {
		logger.Log.Debug("adapter registered", zap.String("adapter", name))
	}
	return nil
}

func (m *ToolManager) pick(names []string) ([]Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(names) == 0 {
		selected := make([]Adapter, 0, len(m.order))
		for _, name := range m.order {
			selected = append(selected, m.adapters[name])
		}
		return selected, nil
	}

	selected := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := m.adapters[name]
		if !ok {
			return nil, fmt.Errorf("unknown adapter: %s", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func (m *ToolManager) SyncAgents(ctx context.Context, adapterNames []string) (map[string]model.SyncResult, error) {
	adapters, err := m.pick(adapterNames)
	if err != nil {
		return nil, err
	}

	agents, err := m.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	results := make(map[string]model.SyncResult, len(adapters))
	for _, a := range adapters {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := a.Sync(ctx, agents)
		results[a.Name()] = res

		logger.Log.Info("agents synced",
			zap.String("adapter", a.Name()),
			zap.String("status", res.Status),
			zap.Int("synced", res.Synced),
			zap.Int("errors", len(res.Errors)))
	}

	return results, nil
}

func (m *ToolManager) ValidateConfigurations(adapterNames []string) (map[string]model.ValidationResult, error) {
	adapters, err := m.pick(adapterNames)
	if err != nil {
		return nil, err
	}

	agents, err := m.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	results := make(map[string]model.ValidationResult, len(adapters))
	for _, a := range adapters {
		results[a.Name()] = a.Validate(agents)
	}
	return results, nil
}

func (m *ToolManager) HealthCheck(ctx context.Context, adapterNames []string) (map[string]model.HealthResult, error) {
	adapters, err := m.pick(adapterNames)
	if err != nil {
		return nil, err
	}

	results := make(map[string]model.HealthResult, len(adapters))
	for _, a := range adapters {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results[a.Name()] = a.Health(ctx)
	}
	return results, nil
}

func (m *ToolManager) ListAdapters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

func (m *ToolManager) GetAdapter(name string) Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adapters[name]
}
